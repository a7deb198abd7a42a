// Package sink provides downstream consumers for emitted batches.
package sink

import (
	"context"

	"github.com/iJarvis/nyt-article-loader/pkg/loader"
)

// Sink persists batches of flattened records. Implementations own their
// underlying resources; Close flushes and releases them.
type Sink interface {
	// WriteBatch persists one batch in order.
	WriteBatch(ctx context.Context, batch []loader.Record) error

	// Close flushes buffered output and releases resources.
	Close() error
}
