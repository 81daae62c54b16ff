package tools

import (
	"fmt"
	"time"
)

// DefaultBookingHorizonDays bounds how far ahead a stay can be booked.
const DefaultBookingHorizonDays = 365

// ValidateBookingDate checks a guest-supplied booking date: ISO format
// (YYYY-MM-DD), not in the past, and within the booking horizon. Returns the
// normalised ISO string. Pure rule-based validation, no inference.
func ValidateBookingDate(value string, now time.Time, horizonDays int) (string, error) {
	if horizonDays <= 0 {
		horizonDays = DefaultBookingHorizonDays
	}

	d, err := time.ParseInLocation("2006-01-02", value, now.Location())
	if err != nil {
		return "", fmt.Errorf("date must be in YYYY-MM-DD format, got %q", value)
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if d.Before(today) {
		return "", fmt.Errorf("date %s is in the past", value)
	}
	if d.After(today.AddDate(0, 0, horizonDays)) {
		return "", fmt.Errorf("date %s is more than %d days ahead", value, horizonDays)
	}

	return d.Format("2006-01-02"), nil
}
