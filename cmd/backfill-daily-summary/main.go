package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mmdatafocus/pos_backend/config"
	"github.com/mmdatafocus/pos_backend/models"
)

func parseDay(value string, fallback time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	return time.ParseInLocation("2006-01-02", value, config.Location())
}

func main() {
	from := flag.String("from", "", "Start date (YYYY-MM-DD). Defaults to 30 days ago.")
	to := flag.String("to", "", "End date (YYYY-MM-DD), inclusive. Defaults to yesterday.")
	flag.Parse()

	now := time.Now().In(config.Location())
	start, err := parseDay(*from, now.AddDate(0, 0, -30))
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -from: %v\n", err)
		os.Exit(2)
	}
	end, err := parseDay(*to, now.AddDate(0, 0, -1))
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -to: %v\n", err)
		os.Exit(2)
	}
	if end.Before(start) {
		fmt.Fprintln(os.Stderr, "-to must not be before -from")
		os.Exit(2)
	}

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil)")
		os.Exit(1)
	}
	// Ensure schema is up-to-date (creates daily_sales_summaries if missing).
	models.MigrateTable()

	fmt.Printf("Backfilling daily_sales_summaries from=%s to=%s tz=%s\n",
		start.Format("2006-01-02"), end.Format("2006-01-02"), config.Location())
	days, err := models.BackfillDailySummaries(ctx, start, end)
	if err != nil {
		fmt.Fprintf(os.Stderr, "backfill stopped after %d days: %v\n", days, err)
		os.Exit(1)
	}
	fmt.Printf("Done. %d days recomputed.\n", days)
}
