package schedule

import (
	"context"
	"time"

	"github.com/hrygo/voicecal/plugin/ai/aitime"
	aischedule "github.com/hrygo/voicecal/plugin/ai/schedule"
	"github.com/hrygo/voicecal/server/timezone"
)

// Service runs the one-way flow from utterance to accepted schedule or
// conflict report. Implementations hold no per-call state and are safe for
// concurrent use.
type Service interface {
	// Check scans raw calendar blocks for the day of start and reports every
	// existing event that overlaps [start, end).
	Check(ctx context.Context, start, end time.Time, blocks []string) ConflictReport

	// Plan parses utterance relative to now and checks the result against blocks.
	Plan(ctx context.Context, utterance string, blocks []string, now time.Time) (*Plan, error)

	// PlanFrom is Plan with the blocks loaded for the parsed day by load.
	PlanFrom(ctx context.Context, utterance string, now time.Time, load BlockLoader) (*Plan, error)
}

// BlockLoader returns the raw calendar blocks of one day.
type BlockLoader func(ctx context.Context, day time.Time) ([]string, error)

// ExistingEventInterval is the time range scanned out of one calendar block.
type ExistingEventInterval struct {
	Start aitime.Clock `json:"start"`
	End   aitime.Clock `json:"end"`
	// CrossesMidnight is set when End is not after Start; End then belongs
	// to the following day.
	CrossesMidnight bool   `json:"crosses_midnight"`
	SourceText      string `json:"source_text"`
}

// On anchors the interval on the calendar day of day.
func (e ExistingEventInterval) On(day time.Time) (start, end time.Time) {
	start = timezone.PlaceLocal(day, e.Start.Hour, e.Start.Minute).Time
	endDay := day
	if e.CrossesMidnight {
		endDay = day.AddDate(0, 0, 1)
	}
	end = timezone.PlaceLocal(endDay, e.End.Hour, e.End.Minute).Time
	return start, end
}

// Conflict is one existing event overlapping the proposal.
type Conflict struct {
	ExistingStart time.Time `json:"existing_start"`
	ExistingEnd   time.Time `json:"existing_end"`
	OverlapStart  time.Time `json:"overlap_start"`
	OverlapEnd    time.Time `json:"overlap_end"`
	SourceText    string    `json:"source_text"`
}

// ConflictReport lists the conflicts in the scan order of the existing events.
type ConflictReport struct {
	ProposedStart time.Time  `json:"proposed_start"`
	ProposedEnd   time.Time  `json:"proposed_end"`
	HasConflict   bool       `json:"has_conflict"`
	Conflicts     []Conflict `json:"conflicts"`
	// Alternatives are free slots on the same day, best first.
	Alternatives []TimeSlot `json:"alternatives,omitempty"`
}

// TimeSlot is a free period that can hold the proposal's duration.
type TimeSlot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Score int       `json:"score"` // higher = better recommended
}

// Plan is the outcome of one utterance.
type Plan struct {
	Result aischedule.ParseResult `json:"result"`
	// Report is nil when the utterance could not be parsed.
	Report   *ConflictReport `json:"report,omitempty"`
	Accepted bool            `json:"accepted"`
	// Message is the user-facing reply: the parse failure, the conflict
	// warning or the confirmation.
	Message string `json:"message"`
}
