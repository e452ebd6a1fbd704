package events

import (
	"errors"
	"time"
)

// ErrBadStartTime reports an unparseable start_time value.
var ErrBadStartTime = errors.New("start_time must be YYYY-MM-DD or an ISO-8601 datetime")

// startTimeLayouts are tried in order after the date-only form. Layouts
// without an offset are interpreted as UTC.
var startTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
}

// ParseStartTime accepts a bare date, normalized to midnight UTC, or an
// ISO-8601 datetime. Naive datetimes are taken as UTC.
func ParseStartTime(raw string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	for _, layout := range startTimeLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, ErrBadStartTime
}
