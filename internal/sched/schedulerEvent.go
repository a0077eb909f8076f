// internal/sched/schedulerEvent.go

package sched

import (
	"context"
	"time"
)

// StatusKind represents the type of scheduler event
type StatusKind int

const (
	StatusAdmit StatusKind = iota
	StatusReject
	StatusSample
	StatusComplete
	StatusSchedule
	StatusDeliveryFailed
	StatusRelease
	StatusPass
)

// StatusEvent is emitted on every task lifecycle change and scheduling pass.
type StatusEvent struct {
	Time     time.Time
	Kind     StatusKind
	Task     string
	Slot     int
	Received int
	Threads  int
	Core     int
	Score    float64
	Err      error
}

func (sk StatusKind) String() string {
	switch sk {
	case StatusAdmit:
		return "Admit"
	case StatusReject:
		return "Reject"
	case StatusSample:
		return "Sample"
	case StatusComplete:
		return "Complete"
	case StatusSchedule:
		return "Schedule"
	case StatusDeliveryFailed:
		return "DeliveryFailed"
	case StatusRelease:
		return "Release"
	case StatusPass:
		return "Pass"
	default:
		return "Unknown"
	}
}

// Emitter forwards events to a buffered channel. A nil Emitter drops events.
type Emitter chan<- StatusEvent

// Emit stamps ev and sends it unless ctx is done first.
func (e Emitter) Emit(ctx context.Context, ev StatusEvent) {
	if e == nil {
		return
	}
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	select {
	case e <- ev:
	case <-ctx.Done():
	}
}
