package config

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	defaultTimezone      = "America/Santiago"
	defaultPhoneRegion   = "CL"
	defaultTokenLifespan = 168
	defaultDailyCron     = "5 0 * * *"
)

// PublicRegistrationEnabled controls POST /auth/register.
//
// Set via env:
// - PUBLIC_REGISTRATION=false
func PublicRegistrationEnabled() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("PUBLIC_REGISTRATION")))
	return !(v == "0" || v == "false" || v == "no" || v == "n")
}

// DailySummaryCronSpec returns the cron spec of the daily summary job, or "" when disabled.
//
// Set via env:
// - DAILY_SUMMARY_CRON="5 0 * * *" (or "off")
func DailySummaryCronSpec() string {
	v := strings.TrimSpace(os.Getenv("DAILY_SUMMARY_CRON"))
	if v == "" {
		return defaultDailyCron
	}
	if strings.EqualFold(v, "off") {
		return ""
	}
	return v
}

// TokenLifespan is TOKEN_HOUR_LIFESPAN in hours, 7 days by default.
func TokenLifespan() time.Duration {
	hours, err := strconv.Atoi(strings.TrimSpace(os.Getenv("TOKEN_HOUR_LIFESPAN")))
	if err != nil || hours <= 0 {
		hours = defaultTokenLifespan
	}
	return time.Duration(hours) * time.Hour
}

// PhoneRegion is the default region used to parse settings phone numbers.
func PhoneRegion() string {
	if v := strings.TrimSpace(os.Getenv("PHONE_REGION")); v != "" {
		return strings.ToUpper(v)
	}
	return defaultPhoneRegion
}

func IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production")
}

var (
	locOnce sync.Once
	loc     *time.Location
)

// Location is the store's time zone; "today" and report day boundaries are computed in it.
func Location() *time.Location {
	locOnce.Do(func() {
		name := strings.TrimSpace(os.Getenv("TIMEZONE"))
		if name == "" {
			name = defaultTimezone
		}
		l, err := time.LoadLocation(name)
		if err != nil {
			l = time.UTC
		}
		loc = l
	})
	return loc
}
