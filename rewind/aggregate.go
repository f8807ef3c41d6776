package rewind

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

// Options configures one aggregation run.
type Options struct {
	// Year is the UTC calendar year to report on. Zero means DefaultYear.
	Year int
}

func (o Options) window() Window {
	year := o.Year
	if year == 0 {
		year = DefaultYear
	}
	return YearWindow(year)
}

// Aggregator folds conversations into a Stats report. Each Aggregator owns its state; use one per
// run. Different Aggregators may run concurrently.
type Aggregator struct {
	acc *accumulator
}

// NewAggregator returns an empty Aggregator for opts.
func NewAggregator(opts Options) *Aggregator {
	return &Aggregator{acc: newAccumulator(opts.window())}
}

// Add folds one conversation into the run.
func (g *Aggregator) Add(conv Conversation) {
	g.acc.addConversation(conv)
}

// Stats derives the report from everything added so far.
func (g *Aggregator) Stats() Stats {
	return g.acc.reduce()
}

// Aggregate runs a full aggregation over an already-decoded archive.
func Aggregate(conversations []Conversation, opts Options) Stats {
	g := NewAggregator(opts)
	for _, c := range conversations {
		g.Add(c)
	}
	return g.Stats()
}

// ArchiveOptions configures AggregateArchive.
type ArchiveOptions struct {
	Options
	Read ReadOptions

	// Logger receives debug progress. Nil disables logging.
	Logger *slog.Logger
}

// progressEvery is how many conversations pass between debug progress lines.
const progressEvery = 1000

// AggregateArchive streams an export from r and aggregates it without holding the whole archive
// in memory. The only error source is the reader: invalid JSON wraps ErrInvalidArchive.
func AggregateArchive(ctx context.Context, r io.Reader, opts ArchiveOptions) (Stats, ReadResult, error) {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	g := NewAggregator(opts.Options)
	n := 0
	res, err := ReadArchive(ctx, r, opts.Read, func(c Conversation) error {
		g.Add(c)
		n++
		if n%progressEvery == 0 {
			log.Debug("aggregating archive", "conversations", n)
		}
		return nil
	})
	if err != nil {
		return Stats{}, ReadResult{}, fmt.Errorf("AggregateArchive: %w", err)
	}

	stats := g.Stats()
	log.Debug("archive aggregated",
		"conversations", res.Conversations,
		"bytes", res.Bytes,
		"eligible_conversations", stats.TotalConversations,
		"prompts", stats.TotalPrompts,
		"voice_messages", g.acc.voiceMessages,
	)
	return stats, res, nil
}
