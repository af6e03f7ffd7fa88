package schedule

import (
	"fmt"
	"strings"
	"time"

	aischedule "github.com/hrygo/voicecal/plugin/ai/schedule"
	"github.com/hrygo/voicecal/server/timezone"
)

// FormatConflictMessage renders the user-facing conflict warning. At most
// maxListed conflicts are spelled out; the rest are summarised by count.
// A report without conflicts renders as "".
func FormatConflictMessage(report ConflictReport, maxListed int) string {
	if !report.HasConflict {
		return ""
	}
	if maxListed <= 0 {
		maxListed = DefaultMaxConflictsListed
	}

	var b strings.Builder
	b.WriteString("检测到时间冲突！您已有以下安排：")
	for i, c := range report.Conflicts {
		if i >= maxListed {
			break
		}
		fmt.Fprintf(&b, "%d. %s到%s；", i+1, c.ExistingStart.Format("15:04"), c.ExistingEnd.Format("15:04"))
	}
	if n := len(report.Conflicts); n > maxListed {
		fmt.Fprintf(&b, "等%d个日程。", n)
	}
	b.WriteString("请调整时间或取消原有日程。")
	return b.String()
}

// FormatConfirmation renders the reply for an accepted request. Days within
// two days of now are named relatively.
func FormatConfirmation(req *aischedule.ScheduleRequest, now time.Time) string {
	if req == nil {
		return ""
	}
	start := req.Start
	end := req.End
	return fmt.Sprintf("好的！已为您安排日程：%s，时间：%s%s到%s。",
		req.Title, relativeDay(start, now), spokenClock(start), spokenClock(end))
}

func relativeDay(day, now time.Time) string {
	today := timezone.StartOfDay(now, day.Location())
	switch {
	case timezone.SameDay(day, today):
		return "今天"
	case timezone.SameDay(day, today.AddDate(0, 0, 1)):
		return "明天"
	case timezone.SameDay(day, today.AddDate(0, 0, 2)):
		return "后天"
	}
	return fmt.Sprintf("%d月%d日", int(day.Month()), day.Day())
}

func spokenClock(t time.Time) string {
	return fmt.Sprintf("%d点%02d分", t.Hour(), t.Minute())
}
