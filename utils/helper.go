package utils

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const defaultBusinessTimezone = "Europe/Warsaw"

// BusinessTimezone returns the IANA timezone all calendar-day math uses.
// Deals and due dates are interpreted in the business's local day, not UTC.
func BusinessTimezone() string {
	tz := strings.TrimSpace(os.Getenv("BUSINESS_TIMEZONE"))
	if tz == "" {
		return defaultBusinessTimezone
	}
	return tz
}

// BusinessLocation loads the business timezone, falling back to UTC when the
// tz database entry is unavailable.
func BusinessLocation() *time.Location {
	loc, err := time.LoadLocation(BusinessTimezone())
	if err != nil {
		return time.UTC
	}
	return loc
}

// ConvertToDate truncates t to midnight in the given timezone.
func ConvertToDate(t time.Time, timezone string) (time.Time, error) {
	if timezone == "" {
		timezone = defaultBusinessTimezone
	}

	location, err := time.LoadLocation(timezone)
	if err != nil {
		return t, err
	}
	localTime := t.In(location)

	dateOnly := time.Date(localTime.Year(), localTime.Month(), localTime.Day(), 0, 0, 0, 0, location)
	return dateOnly, nil
}

// ParseDecimal converts a string to a decimal.Decimal value.
func ParseDecimal(value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero, errors.New("empty decimal string")
	}
	return decimal.NewFromString(value)
}

func NewTrue() *bool {
	b := true
	return &b
}

func NewFalse() *bool {
	b := false
	return &b
}

func DereferencePtr[T any](ptr *T) T {
	var zero T
	if ptr == nil {
		return zero
	}
	return *ptr
}

func IntFromEnv(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func BoolFromEnv(key string, def bool) bool {
	val := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch val {
	case "true", "1", "yes", "y", "on":
		return true
	case "false", "0", "no", "n", "off":
		return false
	default:
		return def
	}
}

func StringFromEnv(key string, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}
