package loader

import (
	"context"
	"fmt"

	"github.com/iJarvis/nyt-article-loader/pkg/flatten"
)

// Run is one fetch run: a lazy, finite sequence of batches. All state is
// run-scoped and discarded with the Run; nothing persists across runs, so a
// new run may re-deliver records an earlier run already emitted.
type Run struct {
	source *Source

	// Pagination state. The watermark is the inclusive pub_date lower
	// bound; the page cursor resets to 0 whenever the watermark advances.
	watermark string
	page      int

	// seen holds every record id observed this run; it only grows. A
	// record enters the buffer at most once.
	seen   map[string]struct{}
	buffer []Record

	// cooldownDue marks that the next fetch must be preceded by the
	// standard inter-request cooldown. Fault retries use the fault
	// recovery delay instead and leave this unset.
	cooldownDue bool

	finished bool
	failed   error
}

// Next returns the next batch. It blocks through pacing waits and page
// fetches until a full batch is buffered.
//
// ok is false once the sequence has ended: cleanly (provider error status or
// zero hits, err nil) or fatally (transport/decode failure, err non-nil).
// Every batch has exactly BatchSize records except possibly a final
// truncated batch flushed on clean exhaustion. Abandoning the run at any
// point needs no cleanup.
func (r *Run) Next(ctx context.Context) ([]Record, bool, error) {
	if r.failed != nil {
		return nil, false, r.failed
	}

	for {
		if len(r.buffer) >= r.source.config.BatchSize {
			return r.pop(r.source.config.BatchSize), true, nil
		}

		if r.finished {
			if len(r.buffer) > 0 {
				return r.pop(len(r.buffer)), true, nil
			}
			return nil, false, nil
		}

		if err := r.fetchCycle(ctx); err != nil {
			r.failed = err
			return nil, false, err
		}
	}
}

// Watermark returns the current pub_date lower bound. It never decreases
// within a run.
func (r *Run) Watermark() string {
	return r.watermark
}

// fetchCycle performs one fetch iteration: pace, fetch one page, absorb
// faults, detect exhaustion, or flatten-dedup-buffer the page's documents
// and advance the cursor.
func (r *Run) fetchCycle(ctx context.Context) error {
	cfg := r.source.config

	if r.cooldownDue {
		if err := cfg.Pacer.Wait(ctx); err != nil {
			return err
		}
		r.cooldownDue = false
	}

	result, err := r.source.searcher.Search(ctx, r.watermark, r.page)
	if err != nil {
		return fmt.Errorf("fetch page %d (pub_date >= %s): %w", r.page, r.watermark, err)
	}

	switch {
	case result.Fault:
		loaderFaultsTotal.Inc()
		r.source.logger.Warn().
			Str("fault", result.FaultDetail).
			Int("page", r.page).
			Str("watermark", r.watermark).
			Msg("Provider fault, retrying same page after recovery delay")
		// Retry the identical request; this iteration skips the standard
		// cooldown and paces on the fault delay alone.
		return cfg.Pacer.WaitFault(ctx)

	case result.Error:
		r.source.logger.Warn().
			Int("page", r.page).
			Str("watermark", r.watermark).
			Msg("Provider returned error status, ending run")
		r.finished = true
		return nil

	case result.Hits == 0:
		r.source.logger.Info().
			Str("watermark", r.watermark).
			Msg("Query exhausted, ending run")
		r.finished = true
		return nil
	}

	added := 0
	for _, doc := range result.Docs {
		id := doc.ID()
		if _, dup := r.seen[id]; dup {
			loaderDuplicatesTotal.Inc()
			continue
		}
		r.seen[id] = struct{}{}
		r.buffer = append(r.buffer, Record(flatten.Flatten(doc)))
		added++
	}
	loaderRecordsTotal.Add(float64(added))

	r.page++
	if r.page >= cfg.PageCeiling {
		// The provider refuses offsets past the ceiling; re-scope the query
		// by the last document's date and start paging over.
		loaderWatermarkAdvancesTotal.Inc()
		r.source.logger.Info().
			Str("old_watermark", r.watermark).
			Str("new_watermark", result.LastPubDate).
			Msg("Page ceiling reached, advancing watermark")
		r.watermark = result.LastPubDate
		r.page = 0
	}

	r.source.logger.Debug().
		Int("page", r.page).
		Str("watermark", r.watermark).
		Int("added", added).
		Int("duplicates", len(result.Docs)-added).
		Int("buffered", len(r.buffer)).
		Msg("Page processed")

	r.cooldownDue = true
	return nil
}

// pop removes the n oldest records from the buffer and returns them as one
// batch.
func (r *Run) pop(n int) []Record {
	batch := make([]Record, n)
	copy(batch, r.buffer[:n])

	// Reallocate so emitted records are released rather than pinned by the
	// old backing array.
	r.buffer = append([]Record(nil), r.buffer[n:]...)

	loaderBatchesTotal.Inc()
	r.source.logger.Debug().
		Int("batch_size", n).
		Int("buffered", len(r.buffer)).
		Msg("Batch emitted")

	return batch
}
