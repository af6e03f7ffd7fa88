// Package schedule checks parsed schedule requests against a day of existing
// calendar entries.
//
// Existing entries arrive as raw text blocks scraped from a calendar view.
// Each block is scanned for a time range, anchored on the proposal's day and
// compared half-open against the proposal. The package never mutates a
// calendar; it only reports.
package schedule

import (
	"context"
	"log/slog"
	"time"

	"github.com/hrygo/voicecal/internal/errors"
	"github.com/hrygo/voicecal/internal/observability"
	aischedule "github.com/hrygo/voicecal/plugin/ai/schedule"
	"github.com/hrygo/voicecal/server/timezone"
)

const (
	opCheck = "check"
	opPlan  = "plan"
)

type service struct {
	parser       *aischedule.Parser
	logger       *slog.Logger
	metrics      *observability.Metrics
	markers      []string
	maxListed    int
	alternatives int
}

// ServiceOption configures the service returned by NewService.
type ServiceOption func(*service)

// WithServiceLogger sets the logger used for request logging.
func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics sets the metrics collector. The global collector is used by default.
func WithMetrics(m *observability.Metrics) ServiceOption {
	return func(s *service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithMaxConflictsListed sets how many conflicts a conflict message spells out.
func WithMaxConflictsListed(n int) ServiceOption {
	return func(s *service) {
		if n > 0 {
			s.maxListed = n
		}
	}
}

// WithAllDayMarkers replaces the markers that exclude a block from scanning.
func WithAllDayMarkers(markers []string) ServiceOption {
	return func(s *service) {
		if markers != nil {
			s.markers = markers
		}
	}
}

// WithAlternatives sets how many free slots are suggested on a conflict.
// Zero disables suggestions.
func WithAlternatives(n int) ServiceOption {
	return func(s *service) {
		if n >= 0 {
			s.alternatives = n
		}
	}
}

// NewService creates a new schedule service. A nil parser selects one with
// the built-in lexicon; the all-day markers then default to that lexicon's.
func NewService(parser *aischedule.Parser, opts ...ServiceOption) Service {
	if parser == nil {
		parser = aischedule.NewParser()
	}
	s := &service{
		parser:       parser,
		logger:       slog.Default(),
		metrics:      observability.GlobalMetrics(),
		markers:      parser.Lexicon().AllDayMarkers(),
		maxListed:    DefaultMaxConflictsListed,
		alternatives: DefaultAlternatives,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Check(ctx context.Context, start, end time.Time, blocks []string) ConflictReport {
	started := time.Now()
	rc := observability.RequestFromContext(ctx, s.logger, opCheck)

	intervals := ScanBlocks(blocks, s.markers)
	report := CheckConflicts(start, end, intervals)
	if report.HasConflict && s.alternatives > 0 {
		report.Alternatives = SuggestAlternatives(report.ProposedStart, report.ProposedEnd, intervals, s.alternatives)
	}

	s.metrics.RecordRequest(opCheck, time.Since(started))
	s.metrics.RecordConflicts(len(report.Conflicts))
	rc.Debug("conflict check finished",
		slog.String(observability.LogFieldOperation, opCheck),
		slog.Int(observability.LogFieldBlocks, len(blocks)),
		slog.Int("intervals", len(intervals)),
		slog.Int(observability.LogFieldConflicts, len(report.Conflicts)),
	)
	return report
}

func (s *service) Plan(ctx context.Context, utterance string, blocks []string, now time.Time) (*Plan, error) {
	return s.PlanFrom(ctx, utterance, now, func(context.Context, time.Time) ([]string, error) {
		return blocks, nil
	})
}

func (s *service) PlanFrom(ctx context.Context, utterance string, now time.Time, load BlockLoader) (*Plan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rc := observability.RequestFromContext(ctx, s.logger, opPlan)
	ctx = observability.WithRequestContext(ctx, rc)

	result := s.parser.ParseAt(utterance, now)
	plan := &Plan{Result: result}
	if !result.OK() {
		plan.Message = result.Failure.Message
		s.metrics.RecordFailure(opPlan)
		s.metrics.RecordRequest(opPlan, rc.Duration())
		rc.Info("utterance rejected",
			slog.String(observability.LogFieldErrorCode, string(result.Failure.Code)),
		)
		return plan, nil
	}

	req := result.Request
	var blocks []string
	if load != nil {
		var err error
		blocks, err = load(ctx, timezone.StartOfDay(req.Start, nil))
		if err != nil {
			s.metrics.RecordFailure(opPlan)
			s.metrics.RecordRequest(opPlan, rc.Duration())
			rc.Error("cannot load calendar blocks", err)
			if errors.GetCodeFromError(err, "") == "" {
				err = errors.SourceUnavailable("blocks", err)
			}
			return nil, err
		}
	}

	report := s.Check(ctx, req.Start, req.End, blocks)
	plan.Report = &report
	if report.HasConflict {
		plan.Message = FormatConflictMessage(report, s.maxListed)
	} else {
		plan.Accepted = true
		plan.Message = FormatConfirmation(req, now.In(req.Start.Location()))
	}

	s.metrics.RecordRequest(opPlan, rc.Duration())
	rc.Info("plan finished",
		slog.String(observability.LogFieldGrammar, req.DateGrammar),
		slog.Bool("accepted", plan.Accepted),
		slog.Int(observability.LogFieldConflicts, len(report.Conflicts)),
		slog.Int64(observability.LogFieldDuration, rc.DurationMs()),
	)
	return plan, nil
}
