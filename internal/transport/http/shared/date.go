package shared

import (
	"strings"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	MonthLayout = "2006-01"
)

// ParseDate reads YYYY-MM-DD or an RFC3339 timestamp. Empty input yields the
// zero time.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	if parsed, err := time.Parse(DateLayout, value); err == nil {
		return parsed, nil
	}
	return time.Parse(time.RFC3339, value)
}

// Month validates a YYYY-MM query value, falling back to the month of now
// when it is empty.
func (v *Validator) Month(field, raw string, now time.Time) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return now.Format(MonthLayout)
	}
	if _, err := time.Parse(MonthLayout, raw); err != nil {
		v.Add(field, "must be a month in YYYY-MM format")
		return ""
	}
	return raw
}
