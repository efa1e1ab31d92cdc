package utils

import (
	"fmt"
	"time"

	"github.com/julianstephens/unfilled/internal/constants"
)

// LoadLocation loads a timezone location from an IANA timezone name.
// If the timezone is "Local" or empty, it returns the system's local timezone.
func LoadLocation(timezone string) (*time.Location, error) {
	if timezone == "" || timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(timezone)
}

// NowInTimezone returns the current time in the specified timezone.
func NowInTimezone(timezone string) (time.Time, error) {
	loc, err := LoadLocation(timezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	return time.Now().In(loc), nil
}

// TodayID returns today's day id (YYYY-MM-DD) in the given timezone, so the
// calendar day follows the photographer's clock rather than the server's.
func TodayID(timezone string) (string, error) {
	now, err := NowInTimezone(timezone)
	if err != nil {
		return "", err
	}
	return now.Format(constants.DateFormat), nil
}

// ParseDayID parses a YYYY-MM-DD day id.
func ParseDayID(dayID string) (time.Time, error) {
	return time.Parse(constants.DateFormat, dayID)
}

// ShiftDay moves a day id by delta days.
func ShiftDay(dayID string, delta int) (string, error) {
	t, err := ParseDayID(dayID)
	if err != nil {
		return "", fmt.Errorf("invalid day %q: %w", dayID, err)
	}
	return t.AddDate(0, 0, delta).Format(constants.DateFormat), nil
}

// ValidateTimezone checks if a timezone string is valid.
func ValidateTimezone(timezone string) bool {
	_, err := LoadLocation(timezone)
	return err == nil
}
