// Package dates handles the YYYY-MM-DD day keys used by the calendar and
// scheduling endpoints. Days are calendar dates, not instants: parsing and
// formatting round-trip without any timezone involvement.
package dates

import (
	"fmt"
	"time"
)

const Layout = "2006-01-02"

// Parse parses a YYYY-MM-DD day key.
func Parse(value string) (time.Time, error) {
	t, err := time.Parse(Layout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", value)
	}
	return t, nil
}

// Format renders a day key. Format(Parse(d)) == d for any valid d.
func Format(t time.Time) string {
	return t.Format(Layout)
}

// Valid reports whether value is a well-formed day key.
func Valid(value string) bool {
	_, err := Parse(value)
	return err == nil
}

// RangeOrDefault parses an optional from/to pair, defaulting to a window
// around today when either bound is missing.
func RangeOrDefault(from, to string, before, after int) (string, string, error) {
	now := time.Now()
	if from == "" {
		from = Format(now.AddDate(0, 0, -before))
	} else if !Valid(from) {
		return "", "", fmt.Errorf("invalid from date %q", from)
	}
	if to == "" {
		to = Format(now.AddDate(0, 0, after))
	} else if !Valid(to) {
		return "", "", fmt.Errorf("invalid to date %q", to)
	}
	return from, to, nil
}
