// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared across commands.
package httputil

import (
	"context"
	"time"
)

// DefaultPaceInterval is the minimum interval between consecutive paced
// operations. Tests override this to avoid real sleeps.
var DefaultPaceInterval = 1 * time.Second

// Pacer enforces a minimum interval between consecutive operations. The
// download loop calls Wait once per entry, so listing hosts see at most one
// request per interval regardless of how fast entries are processed. A Pacer
// is not safe for concurrent use.
type Pacer struct {
	interval time.Duration
	last     time.Time
}

// NewPacer returns a Pacer with the given interval. A non-positive interval
// selects DefaultPaceInterval.
func NewPacer(interval time.Duration) *Pacer {
	if interval <= 0 {
		interval = DefaultPaceInterval
	}
	return &Pacer{interval: interval}
}

// Wait blocks until at least the pacer's interval has passed since the
// previous Wait. The first call returns immediately. If the context is
// cancelled during the wait, Wait returns ctx.Err() without advancing the
// pace clock.
func (p *Pacer) Wait(ctx context.Context) error {
	if !p.last.IsZero() {
		if remaining := p.interval - time.Since(p.last); remaining > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(remaining):
			}
		}
	}
	p.last = time.Now()
	return nil
}
