package aitime

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveTime(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantStart string
		wantEnd   string
		wantOK    bool
	}{
		{"afternoon range", "明天下午2点到3点,团队会议", "14:00", "15:00", true},
		{"spoken half hours", "下午两点半到三点半", "14:30", "15:30", true},
		{"explicit end period", "上午10点到下午2点", "10:00", "14:00", true},
		{"evening into next day", "晚上11点到1点", "23:00", "01:00", true},
		{"bare range crosses noon", "10点到2点", "10:00", "14:00", true},
		{"morning twelve is midnight", "上午12点到1点", "00:00", "01:00", true},
		{"range with half end", "3点到5点半", "03:00", "05:30", true},
		{"afternoon to evening", "下午2点到晚上10点", "14:00", "22:00", true},
		{"tilde separator", "9点~11点", "09:00", "11:00", true},
		{"digit range", "14:00-15:30", "14:00", "15:30", true},
		{"digit range with period", "下午2:30到3:30", "14:30", "15:30", true},
		{"single afternoon", "下午2点", "14:00", "14:00", true},
		{"noon twelve", "中午12点", "12:00", "12:00", true},
		{"noon one", "中午1点", "13:00", "13:00", true},
		{"early morning", "凌晨1点", "01:00", "01:00", true},
		{"spoken minutes", "早上8点15分", "08:15", "08:15", true},
		{"digit minutes after dian", "9点30", "09:30", "09:30", true},
		{"spoken hour", "十点", "10:00", "10:00", true},
		{"twelve spoken", "十二点", "12:00", "12:00", true},
		{"digit single", "10:30", "10:30", "10:30", true},
		{"no time", "明天开会", "", "", false},
		{"hour out of range", "25点", "", "", false},
		{"minute out of range", "下午2点70分", "", "", false},
		{"empty", "", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResolveTime(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				return
			}
			assert.Equal(t, tt.wantStart, got.Start.String())
			assert.Equal(t, tt.wantEnd, got.End.String())
		})
	}
}

func TestResolveTime_SingleTimeIsDegenerate(t *testing.T) {
	got, ok := DefaultLexicon().ResolveTime("下午3点")
	assert.True(t, ok)
	assert.True(t, got.Degenerate())

	got, ok = DefaultLexicon().ResolveTime("下午3点到4点")
	assert.True(t, ok)
	assert.False(t, got.Degenerate())
}

func TestInferEndHour(t *testing.T) {
	tests := []struct {
		name  string
		kind  periodKind
		start int
		end   int
		want  int
	}{
		{"afternoon carries over", periodAfternoon, 14, 3, 15},
		{"afternoon end already late", periodAfternoon, 14, 16, 16},
		{"evening wraps", periodAfternoon, 23, 1, 1},
		{"no period later reading", periodNone, 10, 2, 14},
		{"no period plain", periodNone, 9, 11, 11},
		{"no period twelve wraps", periodNone, 22, 12, 0},
		{"morning stays", periodMorning, 8, 9, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, inferEndHour(tt.kind, tt.start, tt.end))
		})
	}
}

func TestClock(t *testing.T) {
	c := Clock{Hour: 9, Minute: 5}
	assert.Equal(t, "09:05", c.String())
	assert.Equal(t, 545, c.Minutes())
	assert.True(t, c.Valid())
	assert.False(t, Clock{Hour: 24}.Valid())
	assert.False(t, Clock{Hour: 1, Minute: 60}.Valid())
}
