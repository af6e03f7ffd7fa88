package textextract

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func icsFixture(events ...string) string {
	var b strings.Builder
	b.WriteString("BEGIN:VCALENDAR\nVERSION:2.0\nPRODID:-//voicecal//test//EN\n")
	for _, ev := range events {
		b.WriteString("BEGIN:VEVENT\n")
		b.WriteString(strings.TrimSpace(ev))
		b.WriteString("\nEND:VEVENT\n")
	}
	b.WriteString("END:VCALENDAR\n")
	return strings.ReplaceAll(b.String(), "\n", "\r\n")
}

func shanghaiDay(t *testing.T) time.Time {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Shanghai")
	require.NoError(t, err)
	return time.Date(2025, 11, 28, 0, 0, 0, 0, loc)
}

func TestBlocksFromICS(t *testing.T) {
	cal := icsFixture(
		`UID:late
DTSTART;TZID=Asia/Shanghai:20251128T230000
DTEND;TZID=Asia/Shanghai:20251129T010000
SUMMARY:发版`,
		`UID:standup
DTSTART;TZID=Asia/Shanghai:20251128T093000
DTEND;TZID=Asia/Shanghai:20251128T100000
SUMMARY:站会`,
		`UID:utc
DTSTART:20251128T060000Z
DTEND:20251128T070000Z
SUMMARY:Review`,
		`UID:offsite
DTSTART;VALUE=DATE:20251128
DTEND;VALUE=DATE:20251129
SUMMARY:团建`,
		`UID:other-day
DTSTART:20251201T020000Z
DTEND:20251201T030000Z
SUMMARY:Later`,
		`UID:weekly
DTSTART;TZID=Asia/Shanghai:20251107T160000
DTEND;TZID=Asia/Shanghai:20251107T170000
RRULE:FREQ=WEEKLY;BYDAY=FR
SUMMARY:周会`,
	)

	blocks, err := BlocksFromICS(strings.NewReader(cal), shanghaiDay(t))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"全天 团建",
		"09:30-10:00 站会",
		"14:00-15:00 Review",
		"16:00-17:00 周会",
		"23:00-00:00 发版",
	}, blocks)
}

func TestBlocksFromICS_Recurrence(t *testing.T) {
	weekly := `UID:weekly
DTSTART;TZID=Asia/Shanghai:20251107T160000
DTEND;TZID=Asia/Shanghai:20251107T170000
RRULE:FREQ=WEEKLY;BYDAY=FR
SUMMARY:周会`

	t.Run("excluded date", func(t *testing.T) {
		cal := icsFixture(weekly + "\nEXDATE;TZID=Asia/Shanghai:20251128T160000")

		blocks, err := BlocksFromICS(strings.NewReader(cal), shanghaiDay(t))
		require.NoError(t, err)
		assert.Empty(t, blocks)
	})

	t.Run("moved instance", func(t *testing.T) {
		cal := icsFixture(weekly, `UID:weekly
RECURRENCE-ID;TZID=Asia/Shanghai:20251128T160000
DTSTART;TZID=Asia/Shanghai:20251128T180000
DTEND;TZID=Asia/Shanghai:20251128T190000
SUMMARY:周会改期`)

		blocks, err := BlocksFromICS(strings.NewReader(cal), shanghaiDay(t))
		require.NoError(t, err)
		assert.Equal(t, []string{"18:00-19:00 周会改期"}, blocks)
	})

	t.Run("other weekday", func(t *testing.T) {
		cal := icsFixture(weekly)

		blocks, err := BlocksFromICS(strings.NewReader(cal), shanghaiDay(t).AddDate(0, 0, 1))
		require.NoError(t, err)
		assert.Empty(t, blocks)
	})
}

func TestBlocksFromICS_Clipping(t *testing.T) {
	cal := icsFixture(
		`UID:overnight
DTSTART;TZID=Asia/Shanghai:20251127T220000
DTEND;TZID=Asia/Shanghai:20251128T020000
SUMMARY:值班`,
		`UID:conference
DTSTART;TZID=Asia/Shanghai:20251127T090000
DTEND;TZID=Asia/Shanghai:20251129T180000
SUMMARY:大会`,
	)

	blocks, err := BlocksFromICS(strings.NewReader(cal), shanghaiDay(t))
	require.NoError(t, err)

	assert.Equal(t, []string{"全天 大会", "00:00-02:00 值班"}, blocks)
}

func TestBlocksFromICS_MissingEnd(t *testing.T) {
	cal := icsFixture(`UID:quick
DTSTART;TZID=Asia/Shanghai:20251128T110000
SUMMARY:电话`)

	blocks, err := BlocksFromICS(strings.NewReader(cal), shanghaiDay(t))
	require.NoError(t, err)

	assert.Equal(t, []string{"11:00-12:00 电话"}, blocks)
}
