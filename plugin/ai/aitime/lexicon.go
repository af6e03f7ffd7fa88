package aitime

import (
	"io"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	// MaxTitleRunes is the maximum title length in characters.
	MaxTitleRunes = 20
	// DefaultFallbackTitle is used when nothing is left after stripping.
	DefaultFallbackTitle = "日程"
	// DefaultFailureMessage is reported when no time of day can be found.
	DefaultFailureMessage = "抱歉，没有听清具体时间，请说明日程的开始时间，例如“明天下午2点到3点”。"
)

// Replacement is one substring rewrite.
type Replacement struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// Lexicon holds every table the parser consults. It is immutable once built
// and safe for concurrent use.
type Lexicon struct {
	meetingWords   []string
	stopwords      []string
	fillerPrefixes []string
	fillerSuffixes []string
	allDayMarkers  []string
	fallbackTitle  string
	failureMessage string

	charReplacer      *strings.Replacer
	homophoneReplacer *strings.Replacer
	compactDate       *regexp.Regexp
	titleRemovals     []*regexp.Regexp
	stopwordPattern   *regexp.Regexp
}

// lexiconFile is the YAML form of a lexicon overlay. Empty fields keep the
// built-in defaults.
type lexiconFile struct {
	CharMap        []Replacement `yaml:"char_map"`
	Homophones     []Replacement `yaml:"homophones"`
	MeetingWords   []string      `yaml:"meeting_words"`
	TitlePatterns  []string      `yaml:"title_patterns"`
	Stopwords      []string      `yaml:"stopwords"`
	FillerPrefixes []string      `yaml:"filler_prefixes"`
	FillerSuffixes []string      `yaml:"filler_suffixes"`
	AllDayMarkers  []string      `yaml:"all_day_markers"`
	FallbackTitle  string        `yaml:"fallback_title"`
	FailureMessage string        `yaml:"failure_message"`
}

func defaultLexiconFile() lexiconFile {
	return lexiconFile{
		CharMap: []Replacement{
			{"兩", "两"}, {"會", "会"}, {"幫", "帮"}, {"點", "点"}, {"後", "后"},
			{"鐘", "钟"}, {"憶", "忆"}, {"議", "议"}, {"時", "时"}, {"間", "间"},
			{"開", "开"}, {"週", "周"}, {"號", "号"}, {"個", "个"}, {"禮", "礼"},
			{"題", "题"}, {"論", "论"}, {"團", "团"}, {"隊", "队"}, {"討", "讨"},
			{"約", "约"}, {"請", "请"}, {"給", "给"}, {"與", "与"}, {"電", "电"},
			{"話", "话"}, {"見", "见"}, {"課", "课"}, {"醫", "医"},
			{"裡", "里"}, {"這", "这"}, {"樣", "样"}, {"為", "为"}, {"麼", "么"},
		},
		Homophones: []Replacement{
			// longest first: at one position the earlier entry wins
			{"开回忆", "开会议"},
			{"回忆", "会议"}, {"汇议", "会议"}, {"惠议", "会议"},
			{"开回", "开会"}, {"开汇", "开会"}, {"开惠", "开会"},
		},
		MeetingWords: []string{"会议", "开会", "例会", "会"},
		TitlePatterns: []string{
			cnRangeSource,
			digitRangeSource,
			cnSingleSource,
			`\d{1,2}:\d{2}`,
			`\d{4}年\d{1,2}月\d{1,2}[日号]?`,
			`\d{1,2}\s*月\s*\d{1,2}\s*[日号]?`,
			`\d+\.\d+\s*个?\s*(?:天|周|星期|礼拜|月)(?:以后|之后|后)?`,
			`\d{1,2}[/.\-]\d{1,2}`,
			`\d{1,2}[日号]`,
			weekdaySource,
			`下+个?(?:周|星期|礼拜|月)`,
			`(?:\d+|` + cnNumeralClass + `+)\s*个?\s*(?:天|周|星期|礼拜|月)(?:以后|之后|后)?`,
		},
		Stopwords: []string{
			"大后天", "今天", "今日", "明天", "明日", "后天", "昨天", "前天",
			"本周", "这周", "这个月", "本月", "早上", "早晨", "上午", "中午",
			"下午", "傍晚", "晚上", "夜里", "凌晨", "以后", "之后",
		},
		FillerPrefixes: []string{
			"请帮我", "帮我", "麻烦", "请", "给我", "提醒我", "我要", "我想", "要",
			"安排一个", "安排个", "安排", "添加", "创建", "新建", "预约",
			"开一个", "开个", "有一个", "有个", "一个", "在", "的",
		},
		FillerSuffixes: []string{"的", "吧", "了", "啊", "呢", "哦"},
		AllDayMarkers:  []string{"全天", "全日", "整天", "all day", "all-day"},
		FallbackTitle:  DefaultFallbackTitle,
		FailureMessage: DefaultFailureMessage,
	}
}

var defaultLexicon = mustBuildLexicon(defaultLexiconFile())

// DefaultLexicon returns the built-in lexicon.
func DefaultLexicon() *Lexicon {
	return defaultLexicon
}

// LoadLexicon reads a YAML overlay and merges it over the built-in tables.
// Lists present in the overlay replace the corresponding default list.
func LoadLexicon(r io.Reader) (*Lexicon, error) {
	var overlay lexiconFile
	if err := yaml.NewDecoder(r).Decode(&overlay); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "failed to decode lexicon")
	}

	merged := defaultLexiconFile()
	if len(overlay.CharMap) > 0 {
		merged.CharMap = overlay.CharMap
	}
	if len(overlay.Homophones) > 0 {
		merged.Homophones = overlay.Homophones
	}
	if len(overlay.MeetingWords) > 0 {
		merged.MeetingWords = overlay.MeetingWords
	}
	if len(overlay.TitlePatterns) > 0 {
		merged.TitlePatterns = overlay.TitlePatterns
	}
	if len(overlay.Stopwords) > 0 {
		merged.Stopwords = overlay.Stopwords
	}
	if len(overlay.FillerPrefixes) > 0 {
		merged.FillerPrefixes = overlay.FillerPrefixes
	}
	if len(overlay.FillerSuffixes) > 0 {
		merged.FillerSuffixes = overlay.FillerSuffixes
	}
	if len(overlay.AllDayMarkers) > 0 {
		merged.AllDayMarkers = overlay.AllDayMarkers
	}
	if overlay.FallbackTitle != "" {
		merged.FallbackTitle = overlay.FallbackTitle
	}
	if overlay.FailureMessage != "" {
		merged.FailureMessage = overlay.FailureMessage
	}
	return buildLexicon(merged)
}

func mustBuildLexicon(f lexiconFile) *Lexicon {
	l, err := buildLexicon(f)
	if err != nil {
		panic(err)
	}
	return l
}

func buildLexicon(f lexiconFile) (*Lexicon, error) {
	for _, rep := range append(append([]Replacement{}, f.CharMap...), f.Homophones...) {
		if rep.From == "" {
			return nil, errors.New("lexicon replacement with empty source")
		}
	}
	if len(f.MeetingWords) == 0 {
		return nil, errors.New("lexicon needs at least one meeting word")
	}

	l := &Lexicon{
		meetingWords:   byLengthDesc(f.MeetingWords),
		stopwords:      byLengthDesc(f.Stopwords),
		fillerPrefixes: byLengthDesc(f.FillerPrefixes),
		fillerSuffixes: byLengthDesc(f.FillerSuffixes),
		allDayMarkers:  f.AllDayMarkers,
		fallbackTitle:  f.FallbackTitle,
		failureMessage: f.FailureMessage,
	}
	l.charReplacer = strings.NewReplacer(flatten(f.CharMap)...)
	l.homophoneReplacer = strings.NewReplacer(flatten(f.Homophones)...)

	// A 3-4 digit run directly followed by a meeting word.
	l.compactDate = regexp.MustCompile(`(^|\D)(\d{3,4})(` + quoteAll(l.meetingWords) + `)`)

	for _, src := range f.TitlePatterns {
		re, err := regexp.Compile(src)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid title pattern %q", src)
		}
		l.titleRemovals = append(l.titleRemovals, re)
	}
	if len(l.stopwords) > 0 {
		l.stopwordPattern = regexp.MustCompile(quoteAll(l.stopwords))
	}
	return l, nil
}

// FailureMessage is the user-facing message for an utterance without a time.
func (l *Lexicon) FailureMessage() string {
	return l.failureMessage
}

// AllDayMarkers returns the markers that flag an all-day calendar entry.
func (l *Lexicon) AllDayMarkers() []string {
	return append([]string(nil), l.allDayMarkers...)
}

func flatten(reps []Replacement) []string {
	out := make([]string, 0, len(reps)*2)
	for _, rep := range reps {
		out = append(out, rep.From, rep.To)
	}
	return out
}

func byLengthDesc(words []string) []string {
	out := append([]string(nil), words...)
	sort.SliceStable(out, func(i, j int) bool {
		return utf8.RuneCountInString(out[i]) > utf8.RuneCountInString(out[j])
	})
	return out
}

func quoteAll(words []string) string {
	quoted := make([]string, 0, len(words))
	for _, w := range words {
		quoted = append(quoted, regexp.QuoteMeta(w))
	}
	return strings.Join(quoted, "|")
}
