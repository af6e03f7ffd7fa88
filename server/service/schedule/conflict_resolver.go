package schedule

import (
	"log/slog"
	"sort"
	"time"

	"github.com/hrygo/voicecal/server/timezone"
)

// CheckConflicts reports every existing interval that overlaps the proposed
// range. Intervals are anchored on the calendar day of start and compared
// half-open, so back-to-back events do not conflict. An end not after start
// is moved one day forward.
func CheckConflicts(start, end time.Time, existing []ExistingEventInterval) ConflictReport {
	if !end.After(start) {
		end = end.AddDate(0, 0, 1)
	}

	report := ConflictReport{
		ProposedStart: start,
		ProposedEnd:   end,
		Conflicts:     []Conflict{},
	}

	day := timezone.StartOfDay(start, nil)
	for _, iv := range existing {
		existingStart, existingEnd := iv.On(day)
		if !overlaps(start, end, existingStart, existingEnd) {
			continue
		}
		report.Conflicts = append(report.Conflicts, Conflict{
			ExistingStart: existingStart,
			ExistingEnd:   existingEnd,
			OverlapStart:  later(start, existingStart),
			OverlapEnd:    earlier(end, existingEnd),
			SourceText:    iv.SourceText,
		})
	}
	report.HasConflict = len(report.Conflicts) > 0

	if report.HasConflict {
		slog.Info("conflicts detected",
			"requested_start", start,
			"requested_end", end,
			"conflict_count", len(report.Conflicts),
		)
	}
	return report
}

// FreeSlots finds the free periods of at least duration between hourStart and
// hourEnd on the day of day. Each gap between busy intervals yields one slot
// at the start of the gap.
func FreeSlots(day time.Time, existing []ExistingEventInterval, duration time.Duration, hourStart, hourEnd int) []TimeSlot {
	if duration <= 0 {
		return nil
	}
	anchor := timezone.StartOfDay(day, nil)
	windowStart := timezone.PlaceLocal(anchor, hourStart, 0).Time
	windowEnd := timezone.PlaceLocal(anchor, hourEnd, 0).Time

	busyRanges := make([]timeRange, 0, len(existing))
	for _, iv := range existing {
		s, e := iv.On(anchor)
		busyRanges = append(busyRanges, timeRange{start: s, end: e})
	}
	sort.Slice(busyRanges, func(i, j int) bool {
		return busyRanges[i].start.Before(busyRanges[j].start)
	})

	var slots []TimeSlot
	current := windowStart
	for _, busy := range busyRanges {
		if !busy.end.After(current) {
			continue
		}
		if busy.start.After(current) && busy.start.Sub(current) >= duration && !current.Add(duration).After(windowEnd) {
			slots = append(slots, TimeSlot{Start: current, End: current.Add(duration)})
		}
		current = busy.end
	}
	if windowEnd.Sub(current) >= duration {
		slots = append(slots, TimeSlot{Start: current, End: current.Add(duration)})
	}
	return slots
}

// SuggestAlternatives returns up to limit free slots on the proposal's day,
// best first.
func SuggestAlternatives(start, end time.Time, existing []ExistingEventInterval, limit int) []TimeSlot {
	if limit <= 0 {
		return nil
	}
	if !end.After(start) {
		end = end.AddDate(0, 0, 1)
	}
	slots := scoreAlternatives(start, FreeSlots(start, existing, end.Sub(start), slotHourStart, slotHourEnd))
	if len(slots) > limit {
		slots = slots[:limit]
	}
	return slots
}

// scoreAlternatives scores every slot against the requested start and sorts
// them by score, earliest first on ties.
func scoreAlternatives(requested time.Time, slots []TimeSlot) []TimeSlot {
	for i := range slots {
		slots[i].Score = calculateScore(requested, slots[i])
	}
	sort.SliceStable(slots, func(i, j int) bool {
		if slots[i].Score != slots[j].Score {
			return slots[i].Score > slots[j].Score
		}
		return slots[i].Start.Before(slots[j].Start)
	})
	return slots
}

// calculateScore rates a slot. Higher scores indicate better alternatives.
func calculateScore(requested time.Time, slot TimeSlot) int {
	score := 0

	// Proximity to the requested hour (up to 50 points)
	hourDiff := slot.Start.Hour() - requested.Hour()
	if hourDiff < 0 {
		hourDiff = -hourDiff
	}
	if hourDiff == 0 {
		score += 50
	} else {
		score += (24 - hourDiff) * 2
	}

	// Same half of the day (20 points)
	if (slot.Start.Hour() < 12) == (requested.Hour() < 12) {
		score += 20
	}

	hour := slot.Start.Hour()
	switch {
	case hour >= 9 && hour <= 11, hour >= 14 && hour <= 16:
		score += 15
	case hour >= 12 && hour <= 13:
		score += 10 // lunch
	}
	return score
}

type timeRange struct {
	start, end time.Time
}

// overlaps is the half-open interval test.
func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

func later(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func earlier(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
