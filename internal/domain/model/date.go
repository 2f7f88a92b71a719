package model

import (
	"strings"
	"time"
)

// DateLayout is the calendar date format used by seasons and events.
const DateLayout = "2006-01-02"

// Today returns the local calendar date.
func Today() string {
	return time.Now().Format(DateLayout)
}

// NormalizeDate trims d and substitutes today when it is blank.
func NormalizeDate(d string) string {
	d = strings.TrimSpace(d)
	if d == "" {
		return Today()
	}
	return d
}

// ValidDate reports whether d is a YYYY-MM-DD calendar date.
func ValidDate(d string) bool {
	_, err := time.Parse(DateLayout, d)
	return err == nil
}
