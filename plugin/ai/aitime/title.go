package aitime

import (
	"regexp"
	"strings"
	"unicode"
)

// fragmentSeparator splits the residue left after stripping.
var fragmentSeparator = regexp.MustCompile(`[\s,，。.!！?？;；:：、~]+`)

// ExtractTitle strips every date/time expression, stopword and filler from a
// normalized utterance and returns what is left, truncated to MaxTitleRunes.
// It falls back to the lexicon's fixed title when nothing remains.
func (l *Lexicon) ExtractTitle(text string) string {
	buf := text
	for _, re := range l.titleRemovals {
		buf = re.ReplaceAllString(buf, " ")
	}
	if l.stopwordPattern != nil {
		buf = l.stopwordPattern.ReplaceAllString(buf, " ")
	}

	var fragments []string
	for _, frag := range fragmentSeparator.Split(buf, -1) {
		if frag = l.trimFillers(frag); frag != "" {
			fragments = append(fragments, frag)
		}
	}

	title := joinFragments(fragments)
	if title == "" {
		return l.fallbackTitle
	}
	return truncateRunes(title, MaxTitleRunes)
}

// trimFillers removes filler words from both ends of a fragment until none is left.
func (l *Lexicon) trimFillers(frag string) string {
	for {
		before := frag
		for _, p := range l.fillerPrefixes {
			if strings.HasPrefix(frag, p) {
				frag = strings.TrimPrefix(frag, p)
				break
			}
		}
		for _, s := range l.fillerSuffixes {
			if strings.HasSuffix(frag, s) {
				frag = strings.TrimSuffix(frag, s)
				break
			}
		}
		if frag == before {
			return frag
		}
	}
}

// joinFragments glues CJK fragments directly and separates everything else
// with a space.
func joinFragments(fragments []string) string {
	var b strings.Builder
	for i, frag := range fragments {
		if i > 0 {
			prev := []rune(fragments[i-1])
			if !isHan(prev[len(prev)-1]) || !isHan([]rune(frag)[0]) {
				b.WriteByte(' ')
			}
		}
		b.WriteString(frag)
	}
	return b.String()
}

func isHan(r rune) bool {
	return unicode.Is(unicode.Han, r)
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return strings.TrimSpace(string(runes[:n]))
}
