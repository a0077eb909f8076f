package job

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spaces out a task's reports, standing in for the time the task
// spends running each configuration. The first Wait returns at once.
type Pacer struct {
	lim *rate.Limiter
}

// NewPacer allows one report per every. A non-positive every never waits.
func NewPacer(every time.Duration) *Pacer {
	if every <= 0 {
		return &Pacer{lim: rate.NewLimiter(rate.Inf, 1)}
	}
	return &Pacer{lim: rate.NewLimiter(rate.Every(every), 1)}
}

// Wait blocks until the next report may be sent or ctx ends.
func (p *Pacer) Wait(ctx context.Context) error {
	return p.lim.Wait(ctx)
}
