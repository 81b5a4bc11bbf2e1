// seed-admin ensures the bootstrap administrator and the default product types exist.
//
// Usage (from backend directory):
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-admin
//
// ADMIN_EMAIL / ADMIN_PASSWORD override admin@pos.local / Admin123.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mmdatafocus/pos_backend/config"
	"github.com/mmdatafocus/pos_backend/models"
)

const (
	defaultAdminEmail    = "admin@pos.local"
	defaultAdminPassword = "Admin123"
	adminName            = "Administrator"
)

var productTypes = []string{"Comida", "Bebidas", "Alcohol"}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func main() {
	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	models.MigrateTable()

	email := envOr("ADMIN_EMAIL", defaultAdminEmail)
	user, created, err := models.EnsureAdmin(ctx, email, envOr("ADMIN_PASSWORD", defaultAdminPassword), adminName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to ensure admin: %v\n", err)
		os.Exit(1)
	}
	if created {
		fmt.Printf("Created admin user id=%d email=%s\n", user.ID, user.Email)
	} else {
		fmt.Printf("Admin user already exists id=%d email=%s role=%s\n", user.ID, user.Email, user.Role)
	}

	if err := models.SeedProductTypes(ctx, productTypes...); err != nil {
		fmt.Fprintf(os.Stderr, "failed to seed product types: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Product types ensured: %s\n", strings.Join(productTypes, ", "))
}
