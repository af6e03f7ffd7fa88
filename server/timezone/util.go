// Package timezone provides the timezone utilities shared by the schedule
// parser, the conflict checker and the CLI.
//
// It handles timezone parsing, calendar-day arithmetic and the placement of
// a local wall-clock time on a calendar day, including DST edge cases.
package timezone

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

const (
	// TimezoneUTC is the UTC timezone identifier
	TimezoneUTC = "UTC"

	// TimezoneAsiaShanghai is the China Standard Time timezone
	TimezoneAsiaShanghai = "Asia/Shanghai"

	// DefaultTimezone is used when no timezone is configured.
	DefaultTimezone = TimezoneAsiaShanghai
)

// LocationAsiaShanghai is the pre-loaded Asia/Shanghai location
var LocationAsiaShanghai = MustParseTimezone(TimezoneAsiaShanghai)

// ParseTimezone parses an IANA timezone identifier (e.g., "Asia/Shanghai").
// An empty identifier selects DefaultTimezone. If the timezone is invalid,
// returns the default location and an error.
func ParseTimezone(tz string) (*time.Location, error) {
	switch tz {
	case "":
		return time.LoadLocation(DefaultTimezone)
	case TimezoneUTC:
		return time.UTC, nil
	}

	loc, err := time.LoadLocation(tz)
	if err != nil {
		fallback, _ := time.LoadLocation(DefaultTimezone)
		return fallback, errors.Wrapf(err, "invalid timezone %q", tz)
	}
	return loc, nil
}

// MustParseTimezone parses a timezone or panics if invalid.
// Use this for constants that are known to be valid at compile time.
func MustParseTimezone(tz string) *time.Location {
	loc, err := ParseTimezone(tz)
	if err != nil {
		panic(err)
	}
	return loc
}

// IsValidTimezone checks if a timezone identifier is valid.
func IsValidTimezone(tz string) bool {
	_, err := ParseTimezone(tz)
	return err == nil
}

// StartOfDay returns the start of the day (00:00:00) in the given timezone.
func StartOfDay(t time.Time, tz *time.Location) time.Time {
	if tz == nil {
		tz = t.Location()
	}
	t = t.In(tz)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, tz)
}

// SameDay reports whether a and b fall on the same calendar day in a's location.
func SameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// Placement is a wall-clock time placed on a calendar day.
type Placement struct {
	Time    time.Time
	Warning string // set when DST moved or duplicated the requested time
}

// PlaceLocal places hour:minute on day's calendar date in day's location.
//
// DST edge cases:
//
//  1. Spring forward: the requested time does not exist and time.Date moves it
//     past the gap. The adjusted time is kept and a warning is recorded.
//  2. Fall back: the requested time occurs twice. The instant time.Date picks
//     is kept and a warning is recorded.
func PlaceLocal(day time.Time, hour, minute int) Placement {
	loc := day.Location()
	t := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc)

	p := Placement{Time: t}
	switch {
	case t.Hour() != hour || t.Minute() != minute:
		p.Warning = fmt.Sprintf("%04d-%02d-%02d %02d:%02d does not exist in %s (DST), using %s",
			day.Year(), day.Month(), day.Day(), hour, minute, loc, t.Format("15:04"))
	case isAmbiguous(t):
		p.Warning = fmt.Sprintf("%04d-%02d-%02d %02d:%02d occurs twice in %s (DST), using the %s offset",
			day.Year(), day.Month(), day.Day(), hour, minute, loc, zoneName(t))
	}
	return p
}

// isAmbiguous reports whether the wall-clock time of t also exists one hour
// earlier or later under a different offset.
func isAmbiguous(t time.Time) bool {
	_, offset := t.Zone()
	for _, shifted := range []time.Time{t.Add(-time.Hour), t.Add(time.Hour)} {
		_, o := shifted.Zone()
		if o != offset && shifted.Hour() == t.Hour() && shifted.Minute() == t.Minute() {
			return true
		}
	}
	return false
}

func zoneName(t time.Time) string {
	name, _ := t.Zone()
	return name
}

// FormatRange formats an interval for display.
// Rules:
//   - Same day: "2006-01-02 15:04 - 16:00"
//   - Spanning days: "2006-01-02 23:00 - 2006-01-03 01:00"
func FormatRange(start, end time.Time) string {
	end = end.In(start.Location())
	if SameDay(start, end) {
		return fmt.Sprintf("%s - %s", start.Format("2006-01-02 15:04"), end.Format("15:04"))
	}
	return fmt.Sprintf("%s - %s", start.Format("2006-01-02 15:04"), end.Format("2006-01-02 15:04"))
}
