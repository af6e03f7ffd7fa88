package aitime

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadLexicon_EmptyKeepsDefaults(t *testing.T) {
	lex, err := LoadLexicon(strings.NewReader(""))
	require.NoError(t, err)

	assert.Equal(t, DefaultFailureMessage, lex.FailureMessage())
	assert.Equal(t, DefaultFallbackTitle, lex.ExtractTitle("明天下午3点"))
	assert.Equal(t, "明天开会", lex.Normalize("明天开回"))
}

func TestLoadLexicon_Overlay(t *testing.T) {
	overlay := `
fallback_title: 待办
failure_message: 请说出时间
homophones:
  - from: 开灰
    to: 开会
all_day_markers: [全天, 通宵]
`
	lex, err := LoadLexicon(strings.NewReader(overlay))
	require.NoError(t, err)

	assert.Equal(t, "待办", lex.ExtractTitle("明天下午3点"))
	assert.Equal(t, "请说出时间", lex.FailureMessage())
	assert.Equal(t, "明天开会", lex.Normalize("明天开灰"))
	// the overlay list replaces the default homophones
	assert.Equal(t, "明天开回", lex.Normalize("明天开回"))
	assert.Equal(t, []string{"全天", "通宵"}, lex.AllDayMarkers())
	// tables the overlay does not name keep their defaults
	assert.Equal(t, "两点", lex.Normalize("兩點"))
}

func TestLoadLexicon_Errors(t *testing.T) {
	tests := []struct {
		name    string
		overlay string
	}{
		{"malformed yaml", "homophones: [unclosed"},
		{"invalid title pattern", "title_patterns: ['(unclosed']"},
		{"empty replacement source", "char_map:\n  - from: ''\n    to: x\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lex, err := LoadLexicon(strings.NewReader(tt.overlay))
			assert.Error(t, err)
			assert.Nil(t, lex)
		})
	}
}

func TestLexicon_AllDayMarkersIsACopy(t *testing.T) {
	markers := DefaultLexicon().AllDayMarkers()
	require.NotEmpty(t, markers)
	markers[0] = "changed"
	assert.NotEqual(t, "changed", DefaultLexicon().AllDayMarkers()[0])
}
