package utils

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
)

type JwtCustomClaim struct {
	Role  string `json:"role"`
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.StandardClaims
}

// UserId parses the numeric subject.
func (c *JwtCustomClaim) UserId() (int, error) {
	return strconv.Atoi(c.Subject)
}

func getJwtSecret() []byte {
	secret := os.Getenv("API_SECRET")
	if secret == "" {
		return []byte("pos-api-secret")
	}
	return []byte(secret)
}

// JwtGenerate signs an access token and returns it with its jti.
func JwtGenerate(userId int, role, email, name string, lifespan time.Duration) (string, string, error) {
	now := time.Now()
	jti := uuid.NewString()

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, &JwtCustomClaim{
		Role:  role,
		Email: email,
		Name:  name,
		StandardClaims: jwt.StandardClaims{
			Subject:   strconv.Itoa(userId),
			Id:        jti,
			ExpiresAt: now.Add(lifespan).Unix(),
			IssuedAt:  now.Unix(),
		},
	})

	token, err := t.SignedString(getJwtSecret())
	if err != nil {
		return "", "", err
	}
	return token, jti, nil
}

func JwtValidate(token string) (*JwtCustomClaim, error) {
	parsed, err := jwt.ParseWithClaims(token, &JwtCustomClaim{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("there's a problem with the signing method")
		}
		return getJwtSecret(), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*JwtCustomClaim)
	if !ok || !parsed.Valid {
		return nil, ErrUnauthorized
	}
	if claims.Id == "" || claims.Subject == "" {
		return nil, ErrUnauthorized
	}
	return claims, nil
}
