// Package pacing implements the fixed-cadence request pacing required by the
// Article Search API quota. The provider allows a small per-minute request
// budget, so every fetch is followed by a standard cooldown; transient fault
// responses use their own recovery delay instead.
package pacing

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for pacing waits.
var (
	pacingWaitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nyt_pacing_waits_total",
		Help: "Total pacing waits by kind (cooldown, fault_recovery)",
	}, []string{"kind"})

	pacingWaitSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nyt_pacing_wait_seconds",
		Help:    "Pacing wait duration in seconds by kind",
		Buckets: []float64{0.1, 1, 5, 12, 30, 60},
	}, []string{"kind"})
)

// Default delays for the NYT Article Search quota (5 requests/minute).
const (
	// DefaultCooldown is the standard inter-request delay.
	DefaultCooldown = 12 * time.Second

	// DefaultFaultDelay is the recovery delay after a quota fault response.
	DefaultFaultDelay = 12 * time.Second
)

// Wait kinds used as metric labels.
const (
	kindCooldown      = "cooldown"
	kindFaultRecovery = "fault_recovery"
)

// Pacer blocks the single fetch path between requests. It is not safe for
// concurrent use; each fetch run owns its own pacer.
type Pacer struct {
	cooldown   time.Duration
	faultDelay time.Duration
	logger     zerolog.Logger
}

// New creates a pacer with the given delays. Negative durations are treated
// as zero, which makes every wait return immediately (useful in tests).
func New(cooldown, faultDelay time.Duration) *Pacer {
	if cooldown < 0 {
		cooldown = 0
	}
	if faultDelay < 0 {
		faultDelay = 0
	}

	return &Pacer{
		cooldown:   cooldown,
		faultDelay: faultDelay,
		logger:     log.With().Str("component", "pacer").Logger(),
	}
}

// Default returns a pacer with the provider's standard delays.
func Default() *Pacer {
	return New(DefaultCooldown, DefaultFaultDelay)
}

// Wait blocks for the standard inter-request cooldown.
func (p *Pacer) Wait(ctx context.Context) error {
	return p.wait(ctx, p.cooldown, kindCooldown)
}

// WaitFault blocks for the fault recovery delay before the same request is
// retried.
func (p *Pacer) WaitFault(ctx context.Context) error {
	return p.wait(ctx, p.faultDelay, kindFaultRecovery)
}

// wait blocks for d, honoring context cancellation.
func (p *Pacer) wait(ctx context.Context, d time.Duration, kind string) error {
	pacingWaitsTotal.WithLabelValues(kind).Inc()
	pacingWaitSeconds.WithLabelValues(kind).Observe(d.Seconds())

	if d == 0 {
		return ctx.Err()
	}

	p.logger.Debug().
		Str("kind", kind).
		Dur("delay", d).
		Msg("Pacing wait")

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		p.logger.Warn().
			Str("kind", kind).
			Msg("Context cancelled during pacing wait")
		return fmt.Errorf("pacing wait interrupted: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
