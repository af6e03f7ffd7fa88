package aitime

import (
	"regexp"
	"strconv"

	"golang.org/x/text/width"
)

// numeralDatePattern matches a spoken numeral directly before a date unit.
var numeralDatePattern = regexp.MustCompile(`(` + cnNumeralClass + `+)(月|日|号)`)

// Normalize canonicalises an utterance before any grammar runs. Rules apply
// in order, each on the output of the previous one:
//
//  1. full-width folding and traditional-to-simplified substitution
//  2. homophone rewrites of domain terms
//  3. compact dates before a meeting word: "1125会议" -> "11月25日会议"
//  4. spoken numerals before 月/日/号: "十二月二十五日" -> "12月25日"
//
// Normalize is idempotent.
func (l *Lexicon) Normalize(text string) string {
	text = width.Narrow.String(text)
	text = l.charReplacer.Replace(text)
	text = l.homophoneReplacer.Replace(text)
	text = l.rewriteCompactDates(text)
	return rewriteNumeralDates(text)
}

func (l *Lexicon) rewriteCompactDates(text string) string {
	return l.compactDate.ReplaceAllStringFunc(text, func(match string) string {
		m := l.compactDate.FindStringSubmatch(match)
		month, day, ok := splitCompactDate(m[2])
		if !ok {
			return match
		}
		return m[1] + strconv.Itoa(month) + "月" + strconv.Itoa(day) + "日" + m[3]
	})
}

// splitCompactDate reads "MMDD", "MDD" or "MMD". For three digits a one-digit
// month is tried first.
func splitCompactDate(digits string) (month, day int, ok bool) {
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, 0, false
	}
	switch len(digits) {
	case 4:
		month, day = n/100, n%100
		return month, day, validMonthDay(month, day)
	case 3:
		if month, day = n/100, n%100; validMonthDay(month, day) {
			return month, day, true
		}
		month, day = n/10, n%10
		return month, day, validMonthDay(month, day)
	}
	return 0, 0, false
}

func validMonthDay(month, day int) bool {
	return month >= 1 && month <= 12 && day >= 1 && day <= 31
}

func rewriteNumeralDates(text string) string {
	return numeralDatePattern.ReplaceAllStringFunc(text, func(match string) string {
		m := numeralDatePattern.FindStringSubmatch(match)
		n, ok := parseNumeral(m[1])
		if !ok {
			return match
		}
		limit := 31
		if m[2] == "月" {
			limit = 12
		}
		if n < 1 || n > limit {
			return match
		}
		return strconv.Itoa(n) + m[2]
	})
}
