package usecase

import (
	"context"
	"sync"
	"time"
)

// rateGate serializes the outbound request budget for one source host. It
// tracks the earliest instant the next request may fire and hands out slots in
// arrival order, so category workers running concurrently never multiply the
// effective request rate against the host. The first caller passes through
// without waiting.
type rateGate struct {
	mu     sync.Mutex
	delay  time.Duration
	nextAt time.Time
}

func newRateGate(delay time.Duration) *rateGate {
	return &rateGate{delay: delay}
}

// Wait blocks until this caller's slot opens or ctx is done.
func (g *rateGate) Wait(ctx context.Context) error {
	g.mu.Lock()
	now := time.Now()
	at := g.nextAt
	if at.Before(now) {
		at = now
	}
	g.nextAt = at.Add(g.delay)
	g.mu.Unlock()

	d := at.Sub(now)
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
