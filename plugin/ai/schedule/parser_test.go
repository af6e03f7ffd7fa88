package schedule

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/voicecal/internal/errors"
	"github.com/hrygo/voicecal/plugin/ai/aitime"
)

// referenceTime is Friday 2025-11-28 10:00 in Asia/Shanghai.
func referenceTime(t *testing.T) time.Time {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Shanghai")
	require.NoError(t, err)
	return time.Date(2025, 11, 28, 10, 0, 0, 0, loc)
}

func newTestParser(t *testing.T) *Parser {
	t.Helper()
	ref := referenceTime(t)
	return NewParser(
		WithLocation(ref.Location()),
		WithNow(func() time.Time { return ref }),
	)
}

func TestParser_Parse(t *testing.T) {
	parser := newTestParser(t)

	tests := []struct {
		name      string
		input     string
		wantTitle string
		wantStart string
		wantEnd   string
	}{
		{
			name:      "range with title",
			input:     "明天下午2点到3点,团队会议",
			wantTitle: "团队会议",
			wantStart: "2025-11-29 14:00",
			wantEnd:   "2025-11-29 15:00",
		},
		{
			name:      "single time widened by an hour",
			input:     "下午2点开会",
			wantTitle: "开会",
			wantStart: "2025-11-28 14:00",
			wantEnd:   "2025-11-28 15:00",
		},
		{
			name:      "widening crosses midnight",
			input:     "明天晚上11点半提醒我吃药",
			wantTitle: "吃药",
			wantStart: "2025-11-29 23:30",
			wantEnd:   "2025-11-30 00:30",
		},
		{
			name:      "range crosses midnight",
			input:     "今天晚上11点到1点上线",
			wantTitle: "上线",
			wantStart: "2025-11-28 23:00",
			wantEnd:   "2025-11-29 01:00",
		},
		{
			name:      "traditional characters and homophone",
			input:     "後天下午三點開回",
			wantTitle: "开会",
			wantStart: "2025-11-30 15:00",
			wantEnd:   "2025-11-30 16:00",
		},
		{
			name:      "compact date before meeting word",
			input:     "1225会议 下午3点",
			wantTitle: "会议",
			wantStart: "2025-12-25 15:00",
			wantEnd:   "2025-12-25 16:00",
		},
		{
			name:      "this friday said on friday",
			input:     "本周五上午10点到11点半周会",
			wantTitle: "周会",
			wantStart: "2025-12-05 10:00",
			wantEnd:   "2025-12-05 11:30",
		},
		{
			name:      "digit after next week is the hour",
			input:     "下周3点开会",
			wantTitle: "开会",
			wantStart: "2025-12-01 03:00",
			wantEnd:   "2025-12-01 04:00",
		},
		{
			name:      "decimal day count leaves the date alone",
			input:     "2.5天后下午3点",
			wantTitle: aitime.DefaultFallbackTitle,
			wantStart: "2025-11-28 15:00",
			wantEnd:   "2025-11-28 16:00",
		},
		{
			name:      "overlapping homophones",
			input:     "开回忆下午3点",
			wantTitle: "开会议",
			wantStart: "2025-11-28 15:00",
			wantEnd:   "2025-11-28 16:00",
		},
		{
			name:      "nothing but time",
			input:     "明天下午3点",
			wantTitle: aitime.DefaultFallbackTitle,
			wantStart: "2025-11-29 15:00",
			wantEnd:   "2025-11-29 16:00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parser.Parse(tt.input)
			require.True(t, result.OK(), "failure: %+v", result.Failure)
			require.Nil(t, result.Failure)
			require.NoError(t, result.Err())

			req := result.Request
			assert.Equal(t, tt.wantTitle, req.Title)
			assert.Equal(t, tt.wantStart, req.Start.Format("2006-01-02 15:04"))
			assert.Equal(t, tt.wantEnd, req.End.Format("2006-01-02 15:04"))
			assert.True(t, req.End.After(req.Start))
		})
	}
}

func TestParser_Parse_UnresolvableTime(t *testing.T) {
	parser := newTestParser(t)

	result := parser.Parse("明天开会")

	assert.False(t, result.OK())
	assert.Nil(t, result.Request)
	require.NotNil(t, result.Failure)
	assert.Equal(t, errors.ErrCodeUnresolvableTime, result.Failure.Code)
	assert.Equal(t, aitime.DefaultFailureMessage, result.Failure.Message)
	assert.True(t, errors.IsCode(result.Err(), errors.ErrCodeUnresolvableTime))
}

func TestParser_Parse_InvalidInput(t *testing.T) {
	parser := newTestParser(t)

	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"whitespace", "   "},
		{"too long", "明天下午3点" + strings.Repeat("会", MaxInputLength)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parser.Parse(tt.input)
			require.NotNil(t, result.Failure)
			assert.Equal(t, errors.ErrCodeInvalidArgument, result.Failure.Code)
			assert.Nil(t, result.Request)
		})
	}
}

func TestParser_ParseAt_UsesParserLocation(t *testing.T) {
	parser := newTestParser(t)

	// 20:00 UTC on the 28th is already 04:00 on the 29th in Shanghai.
	now := time.Date(2025, 11, 28, 20, 0, 0, 0, time.UTC)
	result := parser.ParseAt("明天上午9点", now)

	require.True(t, result.OK())
	assert.Equal(t, "2025-11-30 09:00", result.Request.Start.Format("2006-01-02 15:04"))
	assert.Equal(t, parser.Location(), result.Request.Start.Location())
}

func TestParser_Parse_DateGrammarRecorded(t *testing.T) {
	parser := newTestParser(t)

	result := parser.Parse("下周三下午3点产品评审")
	require.True(t, result.OK())
	assert.Equal(t, aitime.GrammarRelativeWeekday, result.Request.DateGrammar)
	assert.Equal(t, "产品评审", result.Request.Title)

	result = parser.Parse("下午3点产品评审")
	require.True(t, result.OK())
	assert.Equal(t, aitime.GrammarDefault, result.Request.DateGrammar)
}

func TestParser_WithLexicon(t *testing.T) {
	lex, err := aitime.LoadLexicon(strings.NewReader("fallback_title: 待办\nfailure_message: 请说时间\n"))
	require.NoError(t, err)

	ref := referenceTime(t)
	parser := NewParser(WithLexicon(lex), WithLocation(ref.Location()), WithNow(func() time.Time { return ref }))

	assert.Equal(t, "待办", parser.Parse("明天下午3点").Request.Title)
	assert.Equal(t, "请说时间", parser.Parse("明天开会").Failure.Message)
}

func TestParser_DSTGapWarning(t *testing.T) {
	newYork, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// Saturday 2024-03-09; the clocks spring forward at 02:00 on Sunday.
	ref := time.Date(2024, 3, 9, 12, 0, 0, 0, newYork)
	parser := NewParser(WithLocation(newYork), WithNow(func() time.Time { return ref }))

	result := parser.Parse("明天凌晨2点半跑批")
	require.True(t, result.OK())
	assert.NotEmpty(t, result.Request.Warnings)
	assert.Equal(t, DefaultDuration, result.Request.Duration())
}

func TestParser_ConcurrentUse(t *testing.T) {
	parser := newTestParser(t)

	var wg sync.WaitGroup
	results := make([]ParseResult, 20)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = parser.Parse("明天下午2点到3点,团队会议")
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		require.True(t, r.OK())
		assert.Equal(t, results[0].Request.Start, r.Request.Start)
		assert.Equal(t, "团队会议", r.Request.Title)
	}
}

func TestParser_WithCache(t *testing.T) {
	ref := referenceTime(t)
	parser := NewParser(WithLocation(ref.Location()), WithCache(16, time.Minute))

	first := parser.ParseAt("明天下午3点开会", ref)
	require.True(t, first.OK())

	// a cached result must not be changed through an earlier copy
	first.Request.Title = "changed"
	first.Request.Warnings = append(first.Request.Warnings, "x")

	second := parser.ParseAt("  明天下午3点开会 ", ref.Add(time.Hour))
	require.True(t, second.OK())
	assert.Equal(t, "开会", second.Request.Title)
	assert.Empty(t, second.Request.Warnings)
	assert.Equal(t, "  明天下午3点开会 ", second.Utterance)

	// the next day resolves 明天 again
	third := parser.ParseAt("明天下午3点开会", ref.AddDate(0, 0, 1))
	assert.Equal(t, "2025-11-30 15:00", third.Request.Start.Format("2006-01-02 15:04"))

	failed := parser.ParseAt("明天开会", ref)
	again := parser.ParseAt("明天开会", ref)
	assert.Equal(t, failed.Failure, again.Failure)
	assert.NotSame(t, failed.Failure, again.Failure)
}
