// Package aitime turns transcribed Chinese utterances into calendar dates,
// times of day and appointment titles.
//
// Every function in this package is a pure function of its arguments: the
// tables it reads live in an immutable Lexicon and the "current moment" is
// always passed in by the caller.
package aitime

import (
	"fmt"
	"time"
)

// Date grammar names, in the order the date resolver consults them.
const (
	GrammarBaseKeyword     = "base_keyword"
	GrammarDateLiteral     = "date_literal"
	GrammarRelativeWeekday = "relative_weekday"
	GrammarWeekMonth       = "week_month_relative"
	GrammarUnitsFromNow    = "units_from_now"
	// GrammarDefault marks the fallback to the reference date.
	GrammarDefault = "default"
)

// Clock is a time of day.
type Clock struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// Minutes returns the number of minutes since midnight.
func (c Clock) Minutes() int {
	return c.Hour*60 + c.Minute
}

// Valid reports whether the clock is within 00:00-23:59.
func (c Clock) Valid() bool {
	return c.Hour >= 0 && c.Hour <= 23 && c.Minute >= 0 && c.Minute <= 59
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// On places the clock on the calendar day of date.
func (c Clock) On(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), c.Hour, c.Minute, 0, 0, date.Location())
}

// TimeRange is a start/end pair of times of day on one resolved date.
type TimeRange struct {
	Start Clock `json:"start"`
	End   Clock `json:"end"`
}

// Degenerate reports whether the range is a single instant.
func (r TimeRange) Degenerate() bool {
	return r.Start == r.End
}

// CandidateDate is a resolved calendar date and the grammar that produced it.
type CandidateDate struct {
	Date    time.Time `json:"date"`
	Grammar string    `json:"grammar"`
}
