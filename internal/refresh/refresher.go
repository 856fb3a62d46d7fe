// Package refresh keeps the feed cache warm by periodically re-running
// the first page through the pipeline.
package refresh

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/AshwiniGoutam/pitchub-sub000/internal/pipeline"
)

// Refresher re-runs the hottest page window on an interval so the
// user-facing read path mostly hits warm cache.
type Refresher struct {
	pipeline  *pipeline.Pipeline
	userScope string
	interval  time.Duration
	pageSize  int
	logger    *zap.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// New creates a Refresher. A non-positive interval disables Start.
func New(p *pipeline.Pipeline, userScope string, interval time.Duration, pageSize int, logger *zap.Logger) *Refresher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Refresher{
		pipeline:  p,
		userScope: userScope,
		interval:  interval,
		pageSize:  pageSize,
		logger:    logger,
	}
}

// Start launches the background refresh loop. It is a no-op when
// already running or when the interval is disabled.
func (r *Refresher) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running || r.interval <= 0 {
		return
	}
	r.running = true
	r.stopCh = make(chan struct{})
	r.doneCh = make(chan struct{})

	go r.loop(ctx)
}

// Stop halts the loop and waits for the in-flight cycle to finish.
func (r *Refresher) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	close(r.stopCh)
	done := r.doneCh
	r.mu.Unlock()

	<-done
}

func (r *Refresher) loop(ctx context.Context) {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.runOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.runOnce(ctx)
		}
	}
}

// runOnce refreshes the first page. Failures are logged and retried on
// the next tick; the refresher never escalates.
func (r *Refresher) runOnce(ctx context.Context) {
	cycleCtx, cancel := context.WithTimeout(ctx, r.interval)
	defer cancel()

	result, err := r.pipeline.ListInbox(cycleCtx, pipeline.ListRequest{
		UserScope: r.userScope,
		Page:      1,
		Limit:     r.pageSize,
	})
	if err != nil {
		r.logger.Warn("background refresh failed", zap.Error(err))
		return
	}
	r.logger.Debug("background refresh completed",
		zap.Int("items", len(result.Items)),
		zap.Int("total", result.Total))
}
