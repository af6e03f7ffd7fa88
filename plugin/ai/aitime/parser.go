package aitime

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

const daysPerWeek = 7

// relDateOffsets maps base date keywords to day offsets. Order is priority:
// 大后天 must be tested before 后天.
var relDateOffsets = []struct {
	keyword string
	offset  int
}{
	{"今天", 0},
	{"今日", 0},
	{"明天", 1},
	{"明日", 1},
	{"大后天", 3},
	{"后天", 2},
	{"昨天", -1},
	{"前天", -2},
}

// weekdayIndex maps weekday characters to an index with Monday = 0.
var weekdayIndex = map[string]int{
	"一": 0, "1": 0,
	"二": 1, "2": 1,
	"三": 2, "3": 2,
	"四": 3, "4": 3,
	"五": 4, "5": 4,
	"六": 5, "6": 5,
	"日": 6, "天": 6, "7": 6,
}

const weekdaySource = `(下下|下|这|本|上)?个?(?:周|星期|礼拜)([一二三四五六日天1-7])`

var (
	fullDatePattern  = regexp.MustCompile(`(\d{4})\s*年\s*(\d{1,2})\s*月\s*(\d{1,2})\s*[日号]?`)
	monthDayPattern  = regexp.MustCompile(`(\d{1,2})\s*月\s*(\d{1,2})\s*[日号]?`)
	slashDatePattern = regexp.MustCompile(`(\d{1,2})[/.\-](\d{1,2})`)
	dayOnlyPattern   = regexp.MustCompile(`(\d{1,2})\s*[日号]`)

	weekdayPattern    = regexp.MustCompile(weekdaySource)
	nextWeekPattern   = regexp.MustCompile(`(下+)个?(?:周|星期|礼拜)`)
	nextMonthPattern  = regexp.MustCompile(`(下+)个?月(?:\s*(\d{1,2})\s*[日号])?`)
	unitsLaterPattern = regexp.MustCompile(`(\d+|` + cnNumeralClass + `+)\s*(个)?\s*(天|日|周|星期|礼拜|月)(以后|之后|后)?`)
)

// dateGrammar is one date-extraction rule.
type dateGrammar struct {
	name    string
	resolve func(text string, ref time.Time) (time.Time, bool)
}

// dateGrammars is consulted in order; the first grammar that matches wins
// and later grammars are never tried.
var dateGrammars = []dateGrammar{
	{GrammarBaseKeyword, resolveBaseKeyword},
	{GrammarDateLiteral, resolveDateLiteral},
	{GrammarRelativeWeekday, resolveRelativeWeekday},
	{GrammarWeekMonth, resolveWeekMonth},
	{GrammarUnitsFromNow, resolveUnitsFromNow},
}

// DateGrammars returns the grammar names in priority order.
func DateGrammars() []string {
	names := make([]string, 0, len(dateGrammars))
	for _, g := range dateGrammars {
		names = append(names, g.name)
	}
	return names
}

// ResolveDate resolves the calendar date of a normalized utterance relative
// to ref. It always succeeds: without a match the reference date is returned.
func (l *Lexicon) ResolveDate(text string, ref time.Time) CandidateDate {
	return ResolveDate(text, ref)
}

// ResolveDate is the lexicon-independent date resolver.
func ResolveDate(text string, ref time.Time) CandidateDate {
	day := startOfDay(ref)
	for _, g := range dateGrammars {
		if d, ok := g.resolve(text, day); ok {
			return CandidateDate{Date: d, Grammar: g.name}
		}
	}
	return CandidateDate{Date: day, Grammar: GrammarDefault}
}

func resolveBaseKeyword(text string, ref time.Time) (time.Time, bool) {
	for _, kw := range relDateOffsets {
		if strings.Contains(text, kw.keyword) {
			return ref.AddDate(0, 0, kw.offset), true
		}
	}
	return time.Time{}, false
}

func resolveDateLiteral(text string, ref time.Time) (time.Time, bool) {
	if m := fullDatePattern.FindStringSubmatch(text); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		if d, ok := makeDate(year, month, day, ref.Location()); ok {
			return d, true
		}
	}

	for _, loc := range monthDayPattern.FindAllStringSubmatchIndex(text, -1) {
		if precededBy(text, loc[0], isDigit) {
			continue
		}
		month, _ := strconv.Atoi(text[loc[2]:loc[3]])
		day, _ := strconv.Atoi(text[loc[4]:loc[5]])
		if d, ok := monthDayFrom(month, day, ref); ok {
			return d, true
		}
	}

	for _, loc := range slashDatePattern.FindAllStringSubmatchIndex(text, -1) {
		if precededBy(text, loc[0], func(r rune) bool { return isDigit(r) || strings.ContainsRune(":./-", r) }) {
			continue
		}
		if followedBy(text, loc[1], func(r rune) bool { return isDigit(r) || strings.ContainsRune(":点时分小个天周月星礼", r) }) {
			continue
		}
		month, _ := strconv.Atoi(text[loc[2]:loc[3]])
		day, _ := strconv.Atoi(text[loc[4]:loc[5]])
		if d, ok := monthDayFrom(month, day, ref); ok {
			return d, true
		}
	}

	for _, loc := range dayOnlyPattern.FindAllStringSubmatchIndex(text, -1) {
		if precededBy(text, loc[0], func(r rune) bool { return isDigit(r) || r == '月' }) {
			continue
		}
		if followedBy(text, loc[1], func(r rune) bool { return strings.ContainsRune("后以之", r) }) {
			continue
		}
		day, _ := strconv.Atoi(text[loc[2]:loc[3]])
		if d, ok := dayOnlyFrom(day, ref); ok {
			return d, true
		}
	}
	return time.Time{}, false
}

// monthDayFrom resolves a month/day literal in the reference year, rolling to
// the next year when the date has already passed.
func monthDayFrom(month, day int, ref time.Time) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	year := ref.Year()
	if month < int(ref.Month()) || (month == int(ref.Month()) && day < ref.Day()) {
		year++
	}
	return makeDate(year, month, day, ref.Location())
}

// dayOnlyFrom resolves a bare day of month in the reference month, rolling to
// the next month when the day has already passed.
func dayOnlyFrom(day int, ref time.Time) (time.Time, bool) {
	if day < 1 || day > 31 {
		return time.Time{}, false
	}
	year, month := ref.Year(), int(ref.Month())
	if day < ref.Day() {
		month++
		if month > 12 {
			month = 1
			year++
		}
	}
	return makeDate(year, month, day, ref.Location())
}

func resolveRelativeWeekday(text string, ref time.Time) (time.Time, bool) {
	for _, loc := range weekdayPattern.FindAllStringSubmatchIndex(text, -1) {
		// "下周3点" names an hour, not Wednesday.
		if followedBy(text, loc[1], isHourUnit) {
			continue
		}
		m := submatches(text, loc)
		if target, ok := weekdayIndex[m[2]]; ok {
			return weekdayFrom(ref, m[1], target), true
		}
	}
	return time.Time{}, false
}

// weekdayFrom applies a weekday prefix (下下, 下, 这, 本, 上 or none) to ref.
func weekdayFrom(ref time.Time, prefix string, target int) time.Time {
	today := mondayIndex(ref)

	var offset int
	switch prefix {
	case "下下":
		offset = daysPerWeek - today + target + daysPerWeek
	case "下":
		offset = daysPerWeek - today + target
	case "上":
		offset = target - today - daysPerWeek
	default:
		// "这周五" said on a Friday means the following Friday.
		offset = target - today
		if offset <= 0 {
			offset += daysPerWeek
		}
	}
	return ref.AddDate(0, 0, offset)
}

func resolveWeekMonth(text string, ref time.Time) (time.Time, bool) {
	for _, loc := range nextWeekPattern.FindAllStringSubmatchIndex(text, -1) {
		if namesWeekday(text, loc[1]) {
			continue
		}
		weeks := utf8.RuneCountInString(text[loc[2]:loc[3]])
		toMonday := daysPerWeek - mondayIndex(ref)
		return ref.AddDate(0, 0, toMonday+(weeks-1)*daysPerWeek), true
	}

	if m := nextMonthPattern.FindStringSubmatch(text); m != nil {
		months := utf8.RuneCountInString(m[1])
		day := 1
		if m[2] != "" {
			day, _ = strconv.Atoi(m[2])
			if day < 1 || day > 31 {
				return time.Time{}, false
			}
		}
		return addMonthsClamped(ref, months, day), true
	}
	return time.Time{}, false
}

func resolveUnitsFromNow(text string, ref time.Time) (time.Time, bool) {
	for _, loc := range unitsLaterPattern.FindAllStringSubmatchIndex(text, -1) {
		// Fractional counts ("2.5天后") are not supported.
		if precededBy(text, loc[0], func(r rune) bool { return r == '.' }) {
			continue
		}
		m := submatches(text, loc)
		n, ok := parseNumeral(m[1])
		if !ok || n == 0 {
			continue
		}
		hasCounter, unit, later := m[2] != "", m[3], m[4] != ""
		switch unit {
		case "天":
			return ref.AddDate(0, 0, n), true
		case "日":
			// "5日" alone is a day of month.
			if later {
				return ref.AddDate(0, 0, n), true
			}
		case "周", "星期", "礼拜":
			return ref.AddDate(0, 0, n*daysPerWeek), true
		case "月":
			// "3月" alone is a month name.
			if hasCounter || later {
				return addMonthsClamped(ref, n, ref.Day()), true
			}
		}
	}
	return time.Time{}, false
}

// addMonthsClamped moves ref forward by months and sets the day, clamped to
// the length of the target month.
func addMonthsClamped(ref time.Time, months, day int) time.Time {
	first := time.Date(ref.Year(), ref.Month()+time.Month(months), 1, 0, 0, 0, 0, ref.Location())
	if last := daysIn(first.Year(), first.Month()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, ref.Location())
}

func makeDate(year, month, day int, loc *time.Location) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > daysIn(year, time.Month(month)) {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc), true
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// mondayIndex returns the weekday of t with Monday = 0 and Sunday = 6.
func mondayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % daysPerWeek
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func isHourUnit(r rune) bool {
	return r == '点' || r == '时'
}

// namesWeekday reports whether a weekday character starts at idx and is not
// the hour of a following 点 or 时.
func namesWeekday(text string, idx int) bool {
	after := strings.TrimLeftFunc(text[idx:], unicode.IsSpace)
	r, size := utf8.DecodeRuneInString(after)
	if _, ok := weekdayIndex[string(r)]; !ok {
		return false
	}
	return !followedBy(after, size, isHourUnit)
}

// submatches turns the index pairs of FindStringSubmatchIndex into strings;
// unmatched groups are empty.
func submatches(text string, loc []int) []string {
	m := make([]string, len(loc)/2)
	for i := range m {
		if loc[2*i] >= 0 {
			m[i] = text[loc[2*i]:loc[2*i+1]]
		}
	}
	return m
}

func isDigit(r rune) bool {
	return r < utf8.RuneSelf && unicode.IsDigit(r)
}

// precededBy reports whether the last non-space rune before idx satisfies pred.
func precededBy(text string, idx int, pred func(rune) bool) bool {
	before := strings.TrimRightFunc(text[:idx], unicode.IsSpace)
	if before == "" {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(before)
	return pred(r)
}

// followedBy reports whether the first non-space rune at or after idx satisfies pred.
func followedBy(text string, idx int, pred func(rune) bool) bool {
	after := strings.TrimLeftFunc(text[idx:], unicode.IsSpace)
	if after == "" {
		return false
	}
	r, _ := utf8.DecodeRuneInString(after)
	return pred(r)
}
