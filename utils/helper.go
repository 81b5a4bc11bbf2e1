package utils

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"text/template"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/ttacon/libphonenumber"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func ValidatePhoneNumber(phoneNumber, countryCode string) error {
	p, err := libphonenumber.Parse(phoneNumber, countryCode)
	if err != nil {
		return err
	}

	if !libphonenumber.IsValidNumber(p) {
		return fmt.Errorf("phone number is not valid")
	}

	return nil
}

// FormatPhoneNumber returns the E.164 form of a valid number.
func FormatPhoneNumber(phoneNumber, countryCode string) (string, error) {
	p, err := libphonenumber.Parse(phoneNumber, countryCode)
	if err != nil {
		return "", err
	}
	if !libphonenumber.IsValidNumber(p) {
		return "", fmt.Errorf("phone number is not valid")
	}
	return libphonenumber.Format(p, libphonenumber.E164), nil
}

func ProcessValidationErrors(err error) map[string]string {
	errorResponse := make(map[string]string)

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return errorResponse
	}
	for _, ve := range validationErrors {
		errorResponse[ve.Field()] = ve.Tag()
	}

	return errorResponse
}

func NewTrue() *bool {
	b := true
	return &b
}

func NewFalse() *bool {
	b := false
	return &b
}

// returns slice removing duplicate elements
func UniqueSlice[T comparable](slice []T) []T {
	inResult := make(map[T]bool)
	var result []T
	for _, elm := range slice {
		if _, ok := inResult[elm]; !ok {
			inResult[elm] = true
			result = append(result, elm)
		}
	}
	return result
}

// safely dereference pointer of type T, nil pointer return zero value or optional default
func DereferencePtr[T any](ptr *T, defaults ...T) T {
	var defaultValue T
	if len(defaults) > 0 {
		defaultValue = defaults[0]
	}
	if ptr == nil {
		return defaultValue
	}
	return *ptr
}

// execute given template string and return generated string
func ExecTemplate(tString string, data map[string]interface{}) (string, error) {
	t, err := template.New("sql").Parse(tString)
	if err != nil {
		return "", errors.New("error parsing sql template: " + err.Error())
	}
	var b bytes.Buffer
	if err := t.Execute(&b, data); err != nil {
		return "", errors.New("failed to execute sql template: " + err.Error())
	}
	return b.String(), nil
}

// ParseDecimal converts a string to a decimal.Decimal value.
func ParseDecimal(value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero, errors.New("empty decimal string")
	}
	return decimal.NewFromString(value)
}

// ParseFormBool coerces multipart form values: "true"/"1"/"on"/"yes" are true.
// Empty input yields nil.
func ParseFormBool(value string) *bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "":
		return nil
	case "true", "1", "on", "yes":
		return NewTrue()
	default:
		return NewFalse()
	}
}

// ParseDateOrTime accepts RFC3339 or YYYY-MM-DD (interpreted in loc).
// dateOnly reports whether the short form was used.
func ParseDateOrTime(value string, loc *time.Location) (t time.Time, dateOnly bool, err error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false, NewValidationError("empty date")
	}
	if t, err = time.Parse(time.RFC3339, value); err == nil {
		return t, false, nil
	}
	if t, err = time.ParseInLocation("2006-01-02", value, loc); err == nil {
		return t, true, nil
	}
	return time.Time{}, false, NewValidationError("invalid date %q", value)
}

// DayRange returns [start of day, start of next day) of t in loc.
func DayRange(t time.Time, loc *time.Location) (time.Time, time.Time) {
	local := t.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

// ParseRange resolves optional date/from/to query values into a half-open range [from, to).
// With nothing given, defaultToday selects today.
func ParseRange(date, from, to string, loc *time.Location, defaultToday bool) (*time.Time, *time.Time, error) {
	if strings.TrimSpace(date) != "" {
		d, _, err := ParseDateOrTime(date, loc)
		if err != nil {
			return nil, nil, err
		}
		start, end := DayRange(d, loc)
		return &start, &end, nil
	}

	var start, end *time.Time
	if strings.TrimSpace(from) != "" {
		f, _, err := ParseDateOrTime(from, loc)
		if err != nil {
			return nil, nil, err
		}
		start = &f
	}
	if strings.TrimSpace(to) != "" {
		t, _, err := ParseDateOrTime(to, loc)
		if err != nil {
			return nil, nil, err
		}
		end = &t
	}
	if start == nil && end == nil && defaultToday {
		s, e := DayRange(time.Now(), loc)
		return &s, &e, nil
	}
	if start != nil && end != nil && !end.After(*start) {
		return nil, nil, NewValidationError("to must be after from")
	}
	return start, end, nil
}
