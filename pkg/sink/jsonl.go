package sink

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/klauspost/compress/gzip"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/iJarvis/nyt-article-loader/pkg/loader"
)

// json is a drop-in replacement for encoding/json with better performance.
var json = jsoniter.ConfigCompatibleWithStandardLibrary

var sinkRecordsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "nyt_sink_records_total",
	Help: "Total records written by sink type",
}, []string{"sink"})

// JSONL writes batches as JSON Lines, one record per line, optionally
// gzip-compressed. Not safe for concurrent use; the loader run is
// single-threaded anyway.
type JSONL struct {
	file   *os.File
	buf    *bufio.Writer
	gz     *gzip.Writer
	out    io.Writer
	logger zerolog.Logger
}

// NewJSONL creates a JSONL file sink. Paths ending in ".gz" are
// gzip-compressed.
func NewJSONL(path string) (*JSONL, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create sink file: %w", err)
	}

	s := &JSONL{
		file:   file,
		buf:    bufio.NewWriter(file),
		logger: log.With().Str("component", "sink").Str("path", path).Logger(),
	}
	s.out = s.buf

	if strings.HasSuffix(path, ".gz") {
		s.gz = gzip.NewWriter(s.buf)
		s.out = s.gz
	}

	return s, nil
}

// WriteBatch appends one batch, one JSON object per line, in batch order.
func (s *JSONL) WriteBatch(ctx context.Context, batch []loader.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	enc := json.NewEncoder(s.out)
	for _, record := range batch {
		if err := enc.Encode(record); err != nil {
			return fmt.Errorf("encode record: %w", err)
		}
	}

	sinkRecordsTotal.WithLabelValues("jsonl").Add(float64(len(batch)))
	s.logger.Debug().Int("records", len(batch)).Msg("Batch written")

	return nil
}

// Close flushes the compressor and buffer and closes the file.
func (s *JSONL) Close() error {
	if s.gz != nil {
		if err := s.gz.Close(); err != nil {
			return fmt.Errorf("close gzip writer: %w", err)
		}
	}
	if err := s.buf.Flush(); err != nil {
		return fmt.Errorf("flush sink buffer: %w", err)
	}
	if err := s.file.Close(); err != nil {
		return fmt.Errorf("close sink file: %w", err)
	}
	return nil
}

// Ensure JSONL implements Sink.
var _ Sink = (*JSONL)(nil)
