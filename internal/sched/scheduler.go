// internal/sched/scheduler.go

package sched

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gsched/internal/logging"
	"gsched/internal/mq"
	"gsched/internal/profile"
)

var errNoQueue = errors.New("task has no private queue")

// Engine periodically assigns a thread count and core to every task whose
// profiling is complete and which has not been scheduled yet.
type Engine struct {
	reg         *Registry
	weights     Weights
	threshold   int           // largest cohort searched exhaustively
	sendTimeout time.Duration // bound on one decision send
	log         *logging.Logger
	events      Emitter
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithWeights sets the scoring weights.
func WithWeights(w Weights) EngineOption {
	return func(e *Engine) { e.weights = w }
}

// WithThreshold sets the largest cohort that is searched exhaustively.
func WithThreshold(n int) EngineOption {
	return func(e *Engine) {
		if n >= 0 {
			e.threshold = n
		}
	}
}

// WithSendTimeout bounds each decision send.
func WithSendTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.sendTimeout = d
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(l *logging.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithEvents streams engine events to ch.
func WithEvents(ch Emitter) EngineOption {
	return func(e *Engine) { e.events = ch }
}

// NewEngine creates an engine over reg.
func NewEngine(reg *Registry, opts ...EngineOption) *Engine {
	e := &Engine{
		reg:         reg,
		weights:     DefaultWeights(),
		threshold:   4,
		sendTimeout: time.Second,
		log:         logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Decision is the outcome of one task in a pass.
type Decision struct {
	Task      string
	Slot      int
	Choice    int // index of the winning sample
	Threads   int
	Core      int
	Committed bool
	Err       error // delivery failure, nil when the decision was sent
}

// Pass summarizes one scheduling run.
type Pass struct {
	Decisions  []Decision
	Score      float64
	Exhaustive bool
}

// RunOnce schedules the current cohort. Tasks are committed as scheduled
// before their decision is sent; a failed send is reported but never retried.
func (e *Engine) RunOnce(ctx context.Context) Pass {
	cohort := e.reg.Cohort()
	if len(cohort) == 0 {
		return Pass{}
	}

	tasks := make([][]profile.Sample, len(cohort))
	for i, c := range cohort {
		tasks[i] = c.Samples
	}
	a := Solve(tasks, e.weights, e.threshold)

	pass := Pass{
		Decisions:  make([]Decision, 0, len(cohort)),
		Score:      a.Score,
		Exhaustive: a.Exhaustive,
	}

	for i, c := range cohort {
		chosen := c.Samples[a.Choice[i]]
		d := Decision{
			Task:    c.Name,
			Slot:    c.Slot.Index(),
			Choice:  a.Choice[i],
			Threads: chosen.ThreadCount,
			Core:    i,
		}

		if !c.Slot.commit(c.gen, d.Threads, d.Core) {
			e.log.Warn("task left before commit", "task", c.Name, "slot", d.Slot)
			pass.Decisions = append(pass.Decisions, d)
			continue
		}
		d.Committed = true

		d.Err = e.deliver(ctx, c.Queue, d.Threads, d.Core)
		ev := StatusEvent{
			Kind:    StatusSchedule,
			Task:    d.Task,
			Slot:    d.Slot,
			Threads: d.Threads,
			Core:    d.Core,
			Score:   a.Score,
		}
		if d.Err != nil {
			e.log.Error("failed to send scheduling decision",
				"task", d.Task, "error", d.Err.Error())
			ev.Kind = StatusDeliveryFailed
			ev.Err = d.Err
		} else {
			e.log.Info("scheduled task",
				"task", d.Task,
				"threads", d.Threads,
				"core", d.Core,
				"config_index", d.Choice,
				"global_score", a.Score,
				"exhaustive", a.Exhaustive)
		}
		e.events.Emit(ctx, ev)
		pass.Decisions = append(pass.Decisions, d)
	}

	e.events.Emit(ctx, StatusEvent{Kind: StatusPass, Slot: -1, Received: len(cohort), Score: a.Score})
	return pass
}

func (e *Engine) deliver(ctx context.Context, q mq.Queue, threads, core int) error {
	if q == nil {
		return errNoQueue
	}
	sendCtx, cancel := context.WithTimeout(ctx, e.sendTimeout)
	defer cancel()
	if err := q.Send(sendCtx, profile.FormatDecision(threads, core)); err != nil {
		return fmt.Errorf("send to %s: %w", q.Name(), err)
	}
	return nil
}

// Run executes a pass on every clock tick until ctx is done or the clock
// stops. onPass, when set, observes each non-empty pass.
func (e *Engine) Run(ctx context.Context, clock *TickClock, onPass func(Pass)) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-clock.Ch:
			if !ok {
				return nil
			}
			e.log.Debug("evaluating tasks", "tick", clock.Count())
			pass := e.RunOnce(ctx)
			if onPass != nil && len(pass.Decisions) > 0 {
				onPass(pass)
			}
		}
	}
}
