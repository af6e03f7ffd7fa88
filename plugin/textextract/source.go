// Package textextract turns calendar surfaces into the raw per-event text
// blocks read by the conflict scanner. HTML day-view snapshots and ICS feeds
// are supported; each source yields the blocks of one calendar day.
package textextract

import (
	"bytes"
	"context"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	schederrors "github.com/hrygo/voicecal/internal/errors"
)

const (
	// DefaultSelector matches one event chip in a scraped calendar day view.
	DefaultSelector = "[data-eventid]"
	// DefaultMaxBytes bounds a single source file.
	DefaultMaxBytes = 8 << 20
	// DefaultConcurrency bounds the number of sources read at once.
	DefaultConcurrency = 4
)

// Config holds the block extraction configuration.
type Config struct {
	// Selector is the CSS selector of one event in an HTML snapshot.
	Selector string
	// MaxBytes is the largest source file accepted.
	MaxBytes int64
	// Concurrency is the number of sources read in parallel.
	Concurrency int
}

// DefaultConfig returns the default block extraction configuration.
func DefaultConfig() *Config {
	return &Config{
		Selector:    DefaultSelector,
		MaxBytes:    DefaultMaxBytes,
		Concurrency: DefaultConcurrency,
	}
}

// Source produces the calendar blocks of one day.
type Source interface {
	Name() string
	Blocks(ctx context.Context, day time.Time) ([]string, error)
}

// HTMLFile is a saved calendar day view.
type HTMLFile struct {
	Path     string
	Selector string
	MaxBytes int64
}

func (s HTMLFile) Name() string { return s.Path }

// Blocks ignores day: a snapshot shows a single day already.
func (s HTMLFile) Blocks(ctx context.Context, _ time.Time) ([]string, error) {
	data, err := readFile(ctx, s.Path, s.MaxBytes)
	if err != nil {
		return nil, err
	}
	return BlocksFromHTML(bytes.NewReader(data), s.Selector)
}

// ICSFile is an iCalendar export.
type ICSFile struct {
	Path     string
	MaxBytes int64
}

func (s ICSFile) Name() string { return s.Path }

func (s ICSFile) Blocks(ctx context.Context, day time.Time) ([]string, error) {
	data, err := readFile(ctx, s.Path, s.MaxBytes)
	if err != nil {
		return nil, err
	}
	return BlocksFromICS(bytes.NewReader(data), day)
}

// Inline is a fixed list of blocks, typically given on the command line.
type Inline []string

func (s Inline) Name() string { return "inline" }

func (s Inline) Blocks(context.Context, time.Time) ([]string, error) {
	return append([]string(nil), s...), nil
}

// Loader reads several sources concurrently.
type Loader struct {
	config  *Config
	sources []Source
}

// NewLoader creates a loader over sources. A nil config selects DefaultConfig.
func NewLoader(config *Config, sources ...Source) *Loader {
	if config == nil {
		config = DefaultConfig()
	}
	return &Loader{config: config, sources: sources}
}

// Sources returns the configured sources.
func (l *Loader) Sources() []Source {
	return l.sources
}

// Load returns the blocks of every source for day, concatenated in source
// order. The first failing source cancels the rest and is reported as a
// SOURCE_UNAVAILABLE error.
func (l *Loader) Load(ctx context.Context, day time.Time) ([]string, error) {
	g, ctx := errgroup.WithContext(ctx)
	if l.config.Concurrency > 0 {
		g.SetLimit(l.config.Concurrency)
	}

	results := make([][]string, len(l.sources))
	for i, src := range l.sources {
		i, src := i, src
		g.Go(func() error {
			blocks, err := src.Blocks(ctx, day)
			if err != nil {
				return schederrors.SourceUnavailable(src.Name(), err)
			}
			results[i] = blocks
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var blocks []string
	for _, r := range results {
		blocks = append(blocks, r...)
	}
	return blocks, nil
}

func readFile(ctx context.Context, path string, maxBytes int64) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open source")
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read source")
	}
	if int64(len(data)) > maxBytes {
		return nil, errors.Errorf("source exceeds %d bytes", maxBytes)
	}
	return data, nil
}
