package aitime

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	periodGroup   = `(早上|早晨|上午|中午|下午|傍晚|晚上|夜里|凌晨)`
	hourGroup     = `(` + numeralClass + `{1,3})`
	minuteGroup   = `(半|` + numeralClass + `{1,3}分|\d{2})?`
	rangeSepGroup = `(?:到|至|-|~|—|–)`

	cnRangeSource = periodGroup + `?\s*` + hourGroup + `\s*[点时]\s*` + minuteGroup +
		`\s*` + rangeSepGroup + `\s*` +
		periodGroup + `?\s*` + hourGroup + `\s*[点时]\s*` + minuteGroup
	digitRangeSource = periodGroup + `?\s*(\d{1,2}):(\d{2})\s*` + rangeSepGroup + `\s*` +
		periodGroup + `?\s*(\d{1,2}):(\d{2})`
	cnSingleSource    = periodGroup + `?\s*` + hourGroup + `\s*[点时]\s*` + minuteGroup
	digitSingleSource = periodGroup + `?\s*(\d{1,2}):(\d{2})`
)

var (
	cnRangePattern     = regexp.MustCompile(cnRangeSource)
	digitRangePattern  = regexp.MustCompile(digitRangeSource)
	cnSinglePattern    = regexp.MustCompile(cnSingleSource)
	digitSinglePattern = regexp.MustCompile(digitSingleSource)
)

// periodKind classifies day-period qualifiers.
type periodKind int

const (
	periodNone periodKind = iota
	periodMorning
	periodNoon
	periodAfternoon
)

var periodKinds = map[string]periodKind{
	"早上": periodMorning,
	"早晨": periodMorning,
	"上午": periodMorning,
	"凌晨": periodMorning,
	"中午": periodNoon,
	"下午": periodAfternoon,
	"傍晚": periodAfternoon,
	"晚上": periodAfternoon,
	"夜里": periodAfternoon,
}

// ResolveTime extracts a start/end time of day from a normalized utterance.
// Ranges are tried before single times; a single time comes back as a
// degenerate range. ok is false when no time of day can be found.
func (l *Lexicon) ResolveTime(text string) (TimeRange, bool) {
	return ResolveTime(text)
}

// ResolveTime is the lexicon-independent time resolver.
func ResolveTime(text string) (TimeRange, bool) {
	for _, m := range cnRangePattern.FindAllStringSubmatch(text, -1) {
		if r, ok := buildRange(m[1], m[2], m[3], m[4], m[5], m[6], parseSpokenMinute); ok {
			return r, true
		}
	}
	for _, m := range digitRangePattern.FindAllStringSubmatch(text, -1) {
		if r, ok := buildRange(m[1], m[2], m[3], m[4], m[5], m[6], parseDigitMinute); ok {
			return r, true
		}
	}
	for _, m := range cnSinglePattern.FindAllStringSubmatch(text, -1) {
		if c, ok := buildClock(m[1], m[2], m[3], parseSpokenMinute); ok {
			return TimeRange{Start: c, End: c}, true
		}
	}
	for _, m := range digitSinglePattern.FindAllStringSubmatch(text, -1) {
		if c, ok := buildClock(m[1], m[2], m[3], parseDigitMinute); ok {
			return TimeRange{Start: c, End: c}, true
		}
	}
	return TimeRange{}, false
}

func buildRange(startPeriod, startHour, startMinute, endPeriod, endHour, endMinute string,
	minute func(string) (int, bool)) (TimeRange, bool) {
	sh, ok := parseNumeral(startHour)
	if !ok {
		return TimeRange{}, false
	}
	eh, ok := parseNumeral(endHour)
	if !ok {
		return TimeRange{}, false
	}
	sm, ok := minute(startMinute)
	if !ok {
		return TimeRange{}, false
	}
	em, ok := minute(endMinute)
	if !ok {
		return TimeRange{}, false
	}

	sh = applyPeriod(periodKinds[startPeriod], sh)
	if endPeriod != "" {
		eh = applyPeriod(periodKinds[endPeriod], eh)
	} else {
		eh = inferEndHour(periodKinds[startPeriod], sh, eh)
	}

	r := TimeRange{Start: Clock{Hour: sh, Minute: sm}, End: Clock{Hour: eh, Minute: em}}
	if !r.Start.Valid() || !r.End.Valid() {
		return TimeRange{}, false
	}
	return r, true
}

func buildClock(period, hour, minuteToken string, minute func(string) (int, bool)) (Clock, bool) {
	h, ok := parseNumeral(hour)
	if !ok {
		return Clock{}, false
	}
	m, ok := minute(minuteToken)
	if !ok {
		return Clock{}, false
	}
	c := Clock{Hour: applyPeriod(periodKinds[period], h), Minute: m}
	return c, c.Valid()
}

// applyPeriod moves an hour into the half of the day named by the period.
func applyPeriod(kind periodKind, hour int) int {
	switch kind {
	case periodAfternoon, periodNoon:
		if hour < 12 {
			return hour + 12
		}
	case periodMorning:
		if hour == 12 {
			return 0
		}
	}
	return hour
}

// inferEndHour places an end hour that carries no period of its own. The
// start's period applies when it keeps the end at or after the start;
// otherwise the nearest later reading wins, and an end that can only be
// earlier is left as-is so the range wraps past midnight.
func inferEndHour(kind periodKind, start, end int) int {
	if adjusted := applyPeriod(kind, end); adjusted >= start {
		return adjusted
	}
	if end >= start {
		return end
	}
	if end < 12 && end+12 <= 23 && end+12 > start {
		return end + 12
	}
	if end == 12 {
		return 0
	}
	return end
}

func parseSpokenMinute(token string) (int, bool) {
	switch {
	case token == "":
		return 0, true
	case token == "半":
		return 30, true
	}
	n, ok := parseNumeral(strings.TrimSuffix(token, "分"))
	if !ok || n > 59 {
		return 0, false
	}
	return n, true
}

func parseDigitMinute(token string) (int, bool) {
	n, err := strconv.Atoi(token)
	if err != nil || n > 59 {
		return 0, false
	}
	return n, true
}
