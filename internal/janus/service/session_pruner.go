package service

import (
	"context"
	"log"
	"time"

	"github.com/openmakerlabs/janus/internal/janus/store"
)

// SessionPruner periodically deletes scan sessions older than a
// configurable retention period.  Anything past the retention window is
// unassignable garbage.  It runs
// as a background goroutine and is safe to stop via its context or the
// Stop method.
//
// A retention of 0 disables pruning entirely.
type SessionPruner struct {
	sessions  store.ScanSessionStore
	retention time.Duration
	interval  time.Duration
	clock     Clock
	logger    *log.Logger
	cancel    context.CancelFunc
	done      chan struct{}
}

// PrunerConfig holds the parameters for NewSessionPruner.
type PrunerConfig struct {
	// RetentionHours is how many hours of scan-session history to keep.
	// 0 means keep everything (pruner will not start).
	RetentionHours int

	// IntervalHours is how often the pruner runs.  Defaults to 6.
	IntervalHours int
}

// NewSessionPruner creates a pruner but does not start it.
// Call Start to begin the background loop.
func NewSessionPruner(s store.ScanSessionStore, cfg PrunerConfig, clock Clock, logger *log.Logger) *SessionPruner {
	interval := time.Duration(cfg.IntervalHours) * time.Hour
	if interval <= 0 {
		interval = 6 * time.Hour
	}

	return &SessionPruner{
		sessions:  s,
		retention: time.Duration(cfg.RetentionHours) * time.Hour,
		interval:  interval,
		clock:     orUTC(clock),
		logger:    logger,
		done:      make(chan struct{}),
	}
}

// Start begins the background pruning loop.  It runs an immediate prune
// on startup, then repeats on the configured interval.  The loop exits
// when ctx is cancelled or Stop is called.
func (p *SessionPruner) Start(ctx context.Context) {
	if p.retention <= 0 {
		p.logger.Printf("scan session pruner disabled (retention=0)")
		close(p.done)
		return
	}

	ctx, p.cancel = context.WithCancel(ctx)

	go p.loop(ctx)

	p.logger.Printf("scan session pruner started (retention=%dh, interval=%dh)",
		int(p.retention.Hours()), int(p.interval.Hours()))
}

// Stop signals the pruner to exit and waits for it to finish.
func (p *SessionPruner) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	<-p.done
}

func (p *SessionPruner) loop(ctx context.Context) {
	defer close(p.done)

	// Run immediately on startup to clean up any backlog.
	p.prune(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.prune(ctx)
		}
	}
}

func (p *SessionPruner) prune(ctx context.Context) {
	cutoff := p.clock().Add(-p.retention)
	deleted, err := p.sessions.DeleteStaleBefore(ctx, cutoff)
	if err != nil {
		p.logger.Printf("scan session prune error: %v", err)
		return
	}
	if deleted > 0 {
		p.logger.Printf("scan session prune: deleted %d rows older than %s",
			deleted, cutoff.Format(time.RFC3339))
	}
}
