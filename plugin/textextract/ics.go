package textextract

import (
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/pkg/errors"
	"github.com/teambition/rrule-go"
)

// AllDayMarker prefixes the block of an all-day event so the scanner skips it.
const AllDayMarker = "全天"

// maxOccurrences caps the expansion of one recurring event within a day.
const maxOccurrences = 64

// icsEvent is the part of a VEVENT needed to render blocks.
type icsEvent struct {
	uid          string
	summary      string
	start, end   time.Time
	allDay       bool
	rrule        string
	exDates      []time.Time
	recurrenceID *time.Time
}

// occurrence is one concrete instance of an event.
type occurrence struct {
	start, end time.Time
	allDay     bool
	summary    string
}

// BlocksFromICS renders the events of day as text blocks of the form
// "15:04-15:04 summary", sorted by start. Recurring events are expanded and
// moved instances replace their original slot. All-day events, and events
// covering the whole day, are rendered with AllDayMarker. Event ranges are
// clipped to the day; an event running past midnight ends at "00:00".
func BlocksFromICS(r io.Reader, day time.Time) ([]string, error) {
	cal, err := ical.ParseCalendar(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse ics")
	}

	loc := day.Location()
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	dayEnd := dayStart.AddDate(0, 0, 1)

	var events []icsEvent
	moved := make(map[string][]time.Time)
	for _, ve := range cal.Events() {
		ev, perr := parseVEvent(ve, loc)
		if perr != nil {
			slog.Warn("skipping ics event", "uid", ev.uid, "error", perr)
			continue
		}
		if ev.recurrenceID != nil {
			moved[ev.uid] = append(moved[ev.uid], *ev.recurrenceID)
		}
		events = append(events, ev)
	}

	var occs []occurrence
	for _, ev := range events {
		occs = append(occs, expand(ev, moved[ev.uid], dayStart, dayEnd)...)
	}
	sort.SliceStable(occs, func(i, j int) bool {
		return occs[i].start.Before(occs[j].start)
	})

	blocks := make([]string, 0, len(occs))
	for _, o := range occs {
		blocks = append(blocks, render(o, dayStart, dayEnd))
	}
	return blocks, nil
}

func parseVEvent(ve *ical.VEvent, loc *time.Location) (icsEvent, error) {
	var ev icsEvent
	if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
		ev.uid = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		ev.summary = strings.TrimSpace(p.Value)
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil {
		return ev, errors.New("missing DTSTART")
	}
	ev.allDay = isDateValue(dtStart)

	if ev.allDay {
		start, err := time.ParseInLocation("20060102", strings.TrimSpace(dtStart.Value), loc)
		if err != nil {
			return ev, errors.Wrap(err, "invalid all-day DTSTART")
		}
		ev.start = start
		ev.end = start.AddDate(0, 0, 1)
		if p := ve.GetProperty(ical.ComponentPropertyDtEnd); p != nil {
			if end, err := time.ParseInLocation("20060102", strings.TrimSpace(p.Value), loc); err == nil && end.After(start) {
				ev.end = end
			}
		}
	} else {
		start, err := ve.GetStartAt()
		if err != nil {
			return ev, errors.Wrap(err, "invalid DTSTART")
		}
		ev.start = start
		ev.end = start.Add(time.Hour)
		if end, err := ve.GetEndAt(); err == nil && end.After(start) {
			ev.end = end
		}
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		ev.rrule = p.Value
	}
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			if t, err := parseICSTime(part, propertyLocation(p, ev.start.Location())); err == nil {
				ev.exDates = append(ev.exDates, t)
			}
		}
	}
	if p := ve.GetProperty("RECURRENCE-ID"); p != nil {
		if t, err := parseICSTime(p.Value, propertyLocation(p, ev.start.Location())); err == nil {
			ev.recurrenceID = &t
		}
	}
	return ev, nil
}

// expand returns the occurrences of ev overlapping [dayStart, dayEnd).
func expand(ev icsEvent, moved []time.Time, dayStart, dayEnd time.Time) []occurrence {
	duration := ev.end.Sub(ev.start)
	if ev.rrule == "" || ev.recurrenceID != nil {
		if !overlapsDay(ev.start, ev.end, dayStart, dayEnd) {
			return nil
		}
		return []occurrence{{start: ev.start, end: ev.end, allDay: ev.allDay, summary: ev.summary}}
	}

	rule, err := rrule.StrToRRule(ev.rrule)
	if err != nil {
		slog.Warn("skipping ics recurrence", "uid", ev.uid, "rrule", ev.rrule, "error", err)
		return nil
	}
	rule.DTStart(ev.start)

	var set rrule.Set
	set.RRule(rule)
	for _, ex := range ev.exDates {
		set.ExDate(ex)
	}
	for _, m := range moved {
		set.ExDate(m)
	}

	loc := ev.start.Location()
	starts := set.Between(dayStart.Add(-duration).In(loc), dayEnd.In(loc), true)
	if len(starts) > maxOccurrences {
		starts = starts[:maxOccurrences]
	}

	var out []occurrence
	for _, s := range starts {
		e := s.Add(duration)
		if ev.allDay {
			s = time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, s.Location())
			e = s.AddDate(0, 0, int(duration/(24*time.Hour)))
		}
		if overlapsDay(s, e, dayStart, dayEnd) {
			out = append(out, occurrence{start: s, end: e, allDay: ev.allDay, summary: ev.summary})
		}
	}
	return out
}

func render(o occurrence, dayStart, dayEnd time.Time) string {
	loc := dayStart.Location()
	start, end := o.start.In(loc), o.end.In(loc)
	if o.allDay || (!start.After(dayStart) && !end.Before(dayEnd)) {
		return strings.TrimSpace(AllDayMarker + " " + o.summary)
	}
	if start.Before(dayStart) {
		start = dayStart
	}
	if end.After(dayEnd) {
		end = dayEnd
	}
	return strings.TrimSpace(start.Format("15:04") + "-" + end.Format("15:04") + " " + o.summary)
}

func overlapsDay(start, end, dayStart, dayEnd time.Time) bool {
	return start.Before(dayEnd) && end.After(dayStart)
}

// isDateValue reports whether a DTSTART carries a date without a time.
func isDateValue(p *ical.IANAProperty) bool {
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

func propertyLocation(p *ical.IANAProperty, fallback *time.Location) *time.Location {
	if tzs, ok := p.ICalParameters["TZID"]; ok && len(tzs) > 0 {
		if loc, err := time.LoadLocation(tzs[0]); err == nil {
			return loc
		}
	}
	return fallback
}

// parseICSTime reads the UTC, floating and date-only forms of an ICS time.
func parseICSTime(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		return time.Time{}, errors.New("empty time value")
	case strings.HasSuffix(v, "Z"):
		return time.Parse("20060102T150405Z", v)
	case strings.Contains(v, "T"):
		return time.ParseInLocation("20060102T150405", v, loc)
	}
	return time.ParseInLocation("20060102", v, loc)
}
