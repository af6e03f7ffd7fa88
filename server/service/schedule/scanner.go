package schedule

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/hrygo/voicecal/plugin/ai/aitime"
)

const scanSide = `(\d{1,2})(?::(\d{2}))?\s*([AaPp]\.?\s?[Mm]\.?)?`

// blockRangePattern matches "H:MM - H:MM" with ASCII hyphen, en dash or em
// dash, each side optionally carrying AM/PM.
var blockRangePattern = regexp.MustCompile(scanSide + `\s*[-–—]\s*` + scanSide)

// DefaultAllDayMarkers returns the all-day markers of the built-in lexicon.
func DefaultAllDayMarkers() []string {
	return aitime.DefaultLexicon().AllDayMarkers()
}

// ScanBlock extracts the time range of one scraped calendar entry. Blocks
// carrying an all-day marker and blocks without a time range yield false.
// A nil markers slice selects DefaultAllDayMarkers.
func ScanBlock(block string, markers []string) (ExistingEventInterval, bool) {
	if markers == nil {
		markers = DefaultAllDayMarkers()
	}
	lower := strings.ToLower(block)
	for _, marker := range markers {
		if marker != "" && strings.Contains(lower, strings.ToLower(marker)) {
			return ExistingEventInterval{}, false
		}
	}

	// A rejected match may have swallowed the start of a real range, so the
	// search resumes at its second side rather than after the whole match.
	for offset := 0; offset < len(block); {
		loc := blockRangePattern.FindStringSubmatchIndex(block[offset:])
		if loc == nil {
			break
		}
		m := submatches(block[offset:], loc)
		if start, end, ok := parseScanRange(m); ok {
			return ExistingEventInterval{
				Start:           start,
				End:             end,
				CrossesMidnight: end.Minutes() <= start.Minutes(),
				SourceText:      strings.Join(strings.Fields(block), " "),
			}, true
		}
		offset += loc[8]
	}
	return ExistingEventInterval{}, false
}

// ScanBlocks scans every block in order and drops the ones without a range.
func ScanBlocks(blocks []string, markers []string) []ExistingEventInterval {
	if markers == nil {
		markers = DefaultAllDayMarkers()
	}
	intervals := make([]ExistingEventInterval, 0, len(blocks))
	for _, block := range blocks {
		if iv, ok := ScanBlock(block, markers); ok {
			intervals = append(intervals, iv)
		}
	}
	return intervals
}

// parseScanRange reads both sides of a match. A meridiem written only after
// the end also applies to a start that has minutes but no meridiem of its
// own, as long as the start stays before the end: "1:00-2:30 PM".
func parseScanRange(m []string) (start, end aitime.Clock, ok bool) {
	if end, ok = parseScanSide(m[4], m[5], m[6]); !ok {
		return start, end, false
	}
	if m[3] == "" && m[6] != "" && m[2] != "" {
		if carried, ok := parseScanSide(m[1], m[2], m[6]); ok && carried.Minutes() < end.Minutes() {
			return carried, end, true
		}
	}
	start, ok = parseScanSide(m[1], m[2], m[3])
	return start, end, ok
}

func submatches(s string, loc []int) []string {
	m := make([]string, len(loc)/2)
	for i := range m {
		if loc[2*i] >= 0 {
			m[i] = s[loc[2*i]:loc[2*i+1]]
		}
	}
	return m
}

// parseScanSide reads "H:MM", "H:MM AM/PM" or "H AM/PM". A bare hour is not
// a time. Without AM/PM the hour is taken as a 24-hour value.
func parseScanSide(hourToken, minuteToken, meridiem string) (aitime.Clock, bool) {
	if minuteToken == "" && meridiem == "" {
		return aitime.Clock{}, false
	}
	hour, err := strconv.Atoi(hourToken)
	if err != nil {
		return aitime.Clock{}, false
	}
	minute := 0
	if minuteToken != "" {
		if minute, err = strconv.Atoi(minuteToken); err != nil {
			return aitime.Clock{}, false
		}
	}

	switch normalizeMeridiem(meridiem) {
	case "am":
		if hour < 1 || hour > 12 {
			return aitime.Clock{}, false
		}
		hour %= 12
	case "pm":
		if hour < 1 || hour > 12 {
			return aitime.Clock{}, false
		}
		hour = hour%12 + 12
	}

	c := aitime.Clock{Hour: hour, Minute: minute}
	return c, c.Valid()
}

func normalizeMeridiem(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, ".", "")
	return strings.ReplaceAll(s, " ", "")
}
