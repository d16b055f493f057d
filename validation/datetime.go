package validation

import (
	"strings"
	"time"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"
)

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, Field("date", "Date has wrong format. Use YYYY-MM-DD.")
	}
	return d, nil
}

// ParseClock parses HH:MM or HH:MM:SS. Only the clock fields of the result are meaningful.
func ParseClock(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{TimeLayout, "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, Field("time", "Time has wrong format. Use hh:mm or hh:mm:ss.")
}

// ParseDateTime parses an RFC 3339 instant.
func ParseDateTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, Field("date_time", "Datetime has wrong format. Use RFC 3339.")
	}
	return t, nil
}

// Combine joins the calendar date of date and the wall clock of clock in loc.
func Combine(date, clock time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := date.Date()
	return time.Date(y, m, d, clock.Hour(), clock.Minute(), clock.Second(), 0, loc)
}

// DayRange is the half-open interval [date 00:00, next day 00:00) in loc.
func DayRange(date time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := date.Date()
	from := time.Date(y, m, d, 0, 0, 0, 0, loc)
	return from, from.AddDate(0, 0, 1)
}
