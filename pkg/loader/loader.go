// Package loader implements incremental batch loading from the Article
// Search API: watermark-scoped pagination past the provider's page ceiling,
// per-run deduplication, record flattening, and fixed-size batch emission.
package loader

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/iJarvis/nyt-article-loader/pkg/nyt"
	"github.com/iJarvis/nyt-article-loader/pkg/pacing"
)

// Prometheus metrics for loader runs.
var (
	loaderBatchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nyt_loader_batches_total",
		Help: "Total batches emitted across all runs",
	})

	loaderRecordsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nyt_loader_records_total",
		Help: "Total unique records buffered across all runs",
	})

	loaderDuplicatesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nyt_loader_duplicates_total",
		Help: "Total duplicate documents suppressed by the seen-set",
	})

	loaderFaultsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nyt_loader_faults_total",
		Help: "Total transient provider faults absorbed by retries",
	})

	loaderWatermarkAdvancesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nyt_loader_watermark_advances_total",
		Help: "Total watermark advancements at the provider page ceiling",
	})
)

// DefaultStartDate is the initial watermark, scoping the first query to the
// provider's full history.
const DefaultStartDate = "0000-01-01"

// Record is one flattened article: dotted-path keys mapped to leaf values.
type Record map[string]any

// Searcher issues one bounded query to the upstream search endpoint per
// call, scoped by a pub_date lower bound and a page offset.
type Searcher interface {
	Search(ctx context.Context, pubDateFloor string, page int) (*nyt.Result, error)
}

// Config holds loader configuration.
type Config struct {
	// BatchSize is the number of records per emitted batch. Required.
	BatchSize int

	// StartDate is the initial watermark (inclusive pub_date lower bound).
	// Defaults to DefaultStartDate.
	StartDate string

	// PageCeiling is the provider's maximum page count per watermark
	// window. Defaults to nyt.PageCeiling.
	PageCeiling int

	// Pacer drives the inter-request cooldown and the fault recovery
	// delay. Defaults to the provider's standard cadence.
	Pacer *pacing.Pacer
}

// Source is a connected article data source. One Source can start any number
// of independent runs, each with its own watermark, seen-set, and buffer.
type Source struct {
	searcher Searcher
	config   Config
	logger   zerolog.Logger
}

// NewSource creates a source over the given searcher.
func NewSource(searcher Searcher, cfg Config) (*Source, error) {
	if searcher == nil {
		return nil, fmt.Errorf("searcher is required")
	}
	if cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive (got %d)", cfg.BatchSize)
	}
	if cfg.StartDate == "" {
		cfg.StartDate = DefaultStartDate
	}
	if cfg.PageCeiling <= 0 {
		cfg.PageCeiling = nyt.PageCeiling
	}
	if cfg.Pacer == nil {
		cfg.Pacer = pacing.Default()
	}

	return &Source{
		searcher: searcher,
		config:   cfg,
		logger:   log.With().Str("component", "loader").Logger(),
	}, nil
}

// Connect prepares the source for a fetch run. The incremental column and
// last value are accepted for interface compatibility with other loader
// plugins; incremental state here lives in the run's watermark.
func (s *Source) Connect(incColumn, maxIncValue string) {
	s.logger.Debug().
		Str("incremental_column", incColumn).
		Str("incremental_last_value", maxIncValue).
		Msg("Source connected")
}

// Disconnect releases the source. Nothing is held open between runs.
func (s *Source) Disconnect() {
	s.logger.Debug().Msg("Source disconnected")
}

// Run starts a fresh fetch run with its own watermark, page cursor,
// seen-set, and buffer. Runs are single-threaded and pull-based; they are
// not safe for concurrent use.
func (s *Source) Run() *Run {
	return &Run{
		source:    s,
		watermark: s.config.StartDate,
		seen:      make(map[string]struct{}),
	}
}
