// Package schedule assembles a schedule request from a spoken utterance.
package schedule

import (
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/hrygo/voicecal/internal/errors"
	"github.com/hrygo/voicecal/plugin/ai/aitime"
	"github.com/hrygo/voicecal/server/timezone"
)

const (
	// MaxInputLength is the longest utterance accepted, in characters.
	MaxInputLength = 500
	// DefaultDuration is the span given to an utterance that names only a start time.
	DefaultDuration = time.Hour
)

// ScheduleRequest is a fully resolved appointment.
type ScheduleRequest struct {
	Title string    `json:"title"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	// DateGrammar names the date grammar that produced the calendar day.
	DateGrammar string   `json:"date_grammar"`
	Warnings    []string `json:"warnings,omitempty"`
}

// Duration returns the length of the appointment.
func (r *ScheduleRequest) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// Failure explains why an utterance could not be turned into a request.
type Failure struct {
	Code    errors.ErrorCode `json:"code"`
	Message string           `json:"message"`
}

// ParseResult holds either a Request or a Failure, never both.
type ParseResult struct {
	Utterance  string           `json:"utterance"`
	Normalized string           `json:"normalized,omitempty"`
	Request    *ScheduleRequest `json:"request,omitempty"`
	Failure    *Failure         `json:"failure,omitempty"`
}

// OK reports whether the parse produced a request.
func (r ParseResult) OK() bool {
	return r.Request != nil
}

// Err returns the failure as a *errors.ScheduleError, or nil on success.
func (r ParseResult) Err() error {
	if r.Failure == nil {
		return nil
	}
	return &errors.ScheduleError{Code: r.Failure.Code, Message: r.Failure.Message}
}

// Parser turns utterances into schedule requests. It is safe for concurrent use.
type Parser struct {
	lexicon  *aitime.Lexicon
	location *time.Location
	now      func() time.Time
	logger   *slog.Logger
	// results memoises parses per utterance and reference day; nil disables it.
	results *expirable.LRU[string, ParseResult]
}

// Option configures a Parser.
type Option func(*Parser)

// WithLexicon replaces the built-in lexicon.
func WithLexicon(lex *aitime.Lexicon) Option {
	return func(p *Parser) {
		if lex != nil {
			p.lexicon = lex
		}
	}
}

// WithLocation sets the timezone utterances are interpreted in.
func WithLocation(loc *time.Location) Option {
	return func(p *Parser) {
		if loc != nil {
			p.location = loc
		}
	}
}

// WithNow sets the clock used by Parse.
func WithNow(now func() time.Time) Option {
	return func(p *Parser) {
		if now != nil {
			p.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithCache memoises up to capacity results for ttl; a non-positive ttl keeps
// entries until evicted. A result depends only on the utterance and the
// calendar day of the reference time.
func WithCache(capacity int, ttl time.Duration) Option {
	return func(p *Parser) {
		if capacity > 0 {
			p.results = expirable.NewLRU[string, ParseResult](capacity, nil, ttl)
		}
	}
}

// NewParser creates a parser. Without options it uses the built-in lexicon,
// Asia/Shanghai and the wall clock.
func NewParser(opts ...Option) *Parser {
	p := &Parser{
		lexicon:  aitime.DefaultLexicon(),
		location: timezone.LocationAsiaShanghai,
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Lexicon returns the lexicon the parser consults.
func (p *Parser) Lexicon() *aitime.Lexicon {
	return p.lexicon
}

// Location returns the timezone utterances are interpreted in.
func (p *Parser) Location() *time.Location {
	return p.location
}

// Now returns the parser's current moment in its location.
func (p *Parser) Now() time.Time {
	return p.now().In(p.location)
}

// Parse parses text relative to the parser's clock.
func (p *Parser) Parse(text string) ParseResult {
	return p.ParseAt(text, p.now())
}

// ParseAt parses text relative to now. The only hard failure is an utterance
// without a time of day; a missing date defaults to the day of now.
func (p *Parser) ParseAt(text string, now time.Time) ParseResult {
	result := ParseResult{Utterance: text}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		result.Failure = &Failure{Code: errors.ErrCodeInvalidArgument, Message: "empty input"}
		return result
	}
	if n := utf8.RuneCountInString(trimmed); n > MaxInputLength {
		result.Failure = &Failure{
			Code:    errors.ErrCodeInvalidArgument,
			Message: "input too long",
		}
		p.logger.Debug("schedule parser: input rejected", "length", n, "max", MaxInputLength)
		return result
	}

	var key string
	if p.results != nil {
		key = trimmed + "\x00" + now.In(p.location).Format("2006-01-02")
		if cached, ok := p.results.Get(key); ok {
			cached = cached.clone()
			cached.Utterance = text
			return cached
		}
		defer func() {
			p.results.Add(key, result.clone())
		}()
	}

	normalized := p.lexicon.Normalize(trimmed)
	result.Normalized = normalized

	tr, ok := p.lexicon.ResolveTime(normalized)
	if !ok {
		p.logger.Debug("schedule parser: no time of day", "normalized", normalized)
		result.Failure = &Failure{
			Code:    errors.ErrCodeUnresolvableTime,
			Message: p.lexicon.FailureMessage(),
		}
		return result
	}

	date := p.lexicon.ResolveDate(normalized, now.In(p.location))
	req := assemble(date, tr)
	req.Title = p.lexicon.ExtractTitle(normalized)
	result.Request = req

	p.logger.Debug("schedule parser: parsed",
		"grammar", date.Grammar,
		"title", req.Title,
		"start", req.Start.Format(time.RFC3339),
		"end", req.End.Format(time.RFC3339))
	return result
}

// assemble composes the calendar day and the time range into two instants.
// A degenerate range is widened by DefaultDuration; an end earlier than the
// start moves to the next calendar day.
func assemble(date aitime.CandidateDate, tr aitime.TimeRange) *ScheduleRequest {
	req := &ScheduleRequest{DateGrammar: date.Grammar}

	start := timezone.PlaceLocal(date.Date, tr.Start.Hour, tr.Start.Minute)
	req.Start = start.Time
	req.addWarning(start.Warning)

	if tr.Degenerate() {
		req.End = req.Start.Add(DefaultDuration)
	} else {
		endDay := date.Date
		if tr.End.Minutes() < tr.Start.Minutes() {
			endDay = endDay.AddDate(0, 0, 1)
		}
		end := timezone.PlaceLocal(endDay, tr.End.Hour, tr.End.Minute)
		req.End = end.Time
		req.addWarning(end.Warning)
	}

	// DST shifts can collapse a short range.
	if !req.End.After(req.Start) {
		req.End = req.Start.Add(DefaultDuration)
	}
	return req
}

// clone copies r so a cached result cannot be modified through a caller's copy.
func (r ParseResult) clone() ParseResult {
	if r.Request != nil {
		req := *r.Request
		req.Warnings = append([]string(nil), r.Request.Warnings...)
		r.Request = &req
	}
	if r.Failure != nil {
		f := *r.Failure
		r.Failure = &f
	}
	return r
}

func (r *ScheduleRequest) addWarning(w string) {
	if w != "" {
		r.Warnings = append(r.Warnings, w)
	}
}
