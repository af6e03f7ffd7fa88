package aitime

import (
	"strconv"
	"strings"
)

// numeralDigits maps single numeral characters to their value.
var numeralDigits = map[rune]int{
	'零': 0, '〇': 0,
	'一': 1, '二': 2, '两': 2, '三': 3, '四': 4,
	'五': 5, '六': 6, '七': 7, '八': 8, '九': 9,
}

const tensRune = '十'

// Regexp character classes of the runes ParseNumeral understands.
const (
	cnNumeralClass = `[零〇一二两三四五六七八九十]`
	numeralClass   = `[0-9零〇一二两三四五六七八九十]`
)

// ParseNumeral converts a digit string or a spoken numeral ("十五", "二十",
// "二十三", "一五") to an integer. Unknown tokens map to 0.
func ParseNumeral(token string) int {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0
	}
	if n, err := strconv.Atoi(token); err == nil {
		if n < 0 {
			return 0
		}
		return n
	}

	runes := []rune(token)
	switch len(runes) {
	case 1:
		if runes[0] == tensRune {
			return 10
		}
		return numeralDigits[runes[0]]
	case 2:
		// 十X
		if runes[0] == tensRune {
			if v, ok := numeralDigits[runes[1]]; ok {
				return 10 + v
			}
			return 0
		}
		// X十
		if runes[1] == tensRune {
			if v, ok := numeralDigits[runes[0]]; ok {
				return v * 10
			}
			return 0
		}
		// XY, digit by digit: "二三" = 23. 两 is never read as a digit here,
		// "一两" and "两三" are approximations.
		if runes[0] == '两' || runes[1] == '两' {
			return 0
		}
		tens, ok1 := numeralDigits[runes[0]]
		ones, ok2 := numeralDigits[runes[1]]
		if ok1 && ok2 {
			return tens*10 + ones
		}
		return 0
	case 3:
		// X十Y
		if runes[1] != tensRune {
			return 0
		}
		tens, ok1 := numeralDigits[runes[0]]
		ones, ok2 := numeralDigits[runes[2]]
		if ok1 && ok2 {
			return tens*10 + ones
		}
	}
	return 0
}

// parseNumeral is ParseNumeral with the "0 from a non-zero token" rule applied:
// ok is false when the token is not a recognisable numeral.
func parseNumeral(token string) (int, bool) {
	n := ParseNumeral(token)
	if n > 0 {
		return n, true
	}
	return 0, isZeroToken(token)
}

func isZeroToken(token string) bool {
	token = strings.TrimSpace(token)
	if token == "" {
		return false
	}
	for _, r := range token {
		if r != '0' && r != '零' && r != '〇' {
			return false
		}
	}
	return true
}
