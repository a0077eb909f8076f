// Package daemon runs the scheduling daemon: it admits tasks from the
// registration queue, ingests their profiling reports and drives the
// scheduling engine.
package daemon

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"gsched/internal/logging"
	"gsched/internal/mq"
	"gsched/internal/profile"
	"gsched/internal/sched"
)

// Daemon owns the registry and every goroutine that touches it.
type Daemon struct {
	cfg       sched.Config
	log       *logging.Logger
	transport mq.Transport
	registry  *sched.Registry
	engine    *sched.Engine
	saver     profile.Saver
	clock     *sched.TickClock
	ownClock  bool
	eventLog  *sched.EventLog

	events chan sched.StatusEvent
	loops  sync.WaitGroup // ingestion loops
}

// Option configures a Daemon.
type Option func(*Daemon)

// WithSaver replaces the profile store.
func WithSaver(s profile.Saver) Option {
	return func(d *Daemon) { d.saver = s }
}

// WithClock drives the engine from c instead of an interval ticker. The
// caller owns c and sends ticks on c.Ch.
func WithClock(c *sched.TickClock) Option {
	return func(d *Daemon) { d.clock = c }
}

// New builds a daemon from cfg. The daemon does nothing until Run.
func New(cfg sched.Config, log *logging.Logger, transport mq.Transport, opts ...Option) *Daemon {
	if log == nil {
		log = logging.NopLogger()
	}
	d := &Daemon{
		cfg:       cfg,
		log:       log,
		transport: transport,
		registry:  sched.NewRegistry(cfg.MaxTasks, cfg.NumConfigs),
		saver:     profile.NewStore(cfg.ProfileDir),
		events:    make(chan sched.StatusEvent, 256),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.engine = sched.NewEngine(d.registry,
		sched.WithWeights(cfg.Weights()),
		sched.WithThreshold(cfg.BruteForceThreshold),
		sched.WithSendTimeout(cfg.SendTimeout()),
		sched.WithLogger(log.WithComponent("engine")),
		sched.WithEvents(d.events),
	)
	return d
}

// Registry exposes the slot pool.
func (d *Daemon) Registry() *sched.Registry { return d.registry }

func (d *Daemon) attr() mq.Attr {
	return mq.Attr{Capacity: d.cfg.QueueCapacity, MaxMessageSize: d.cfg.MaxMessageSize}
}

// Run serves until ctx is done. Failing to open the registration queue or
// the event log is fatal; everything after that is logged and survived.
func (d *Daemon) Run(ctx context.Context) error {
	d.log.Info("gsched daemon started",
		"max_tasks", d.cfg.MaxTasks,
		"num_configs", d.cfg.NumConfigs,
		"interval", d.cfg.Interval().String())
	d.log.Info("profiling history loading not implemented, starting empty")

	reg, err := d.transport.Open(d.cfg.RegistrationQueue, d.attr())
	if err != nil {
		return fmt.Errorf("open registration queue %s: %w", d.cfg.RegistrationQueue, err)
	}
	defer reg.Close()

	if d.cfg.EventLog != "" {
		el, err := sched.OpenEventLog(d.cfg.EventLog)
		if err != nil {
			return err
		}
		d.eventLog = el
		defer el.Close()
	}

	if d.clock == nil {
		d.clock = sched.NewTickClock(1)
		d.ownClock = true
	}
	if d.ownClock {
		d.clock.Start(d.cfg.Interval())
	}

	consumed := make(chan struct{})
	go func() {
		defer close(consumed)
		for ev := range d.events {
			d.handleEvent(ev)
		}
	}()

	d.writeStatus(nil)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return d.dispatch(gctx, reg)
	})
	g.Go(func() error {
		return d.engine.Run(gctx, d.clock, func(p sched.Pass) { d.writeStatus(&p) })
	})
	err = g.Wait()

	if d.ownClock {
		d.clock.Stop()
	}
	d.loops.Wait()
	close(d.events)
	<-consumed

	d.log.Info("gsched daemon stopped")
	return err
}

// emit queues an event. The consumer outlives every producer, so a blocking
// send always completes.
func (d *Daemon) emit(ev sched.StatusEvent) {
	sched.Emitter(d.events).Emit(context.Background(), ev)
}

func (d *Daemon) handleEvent(ev sched.StatusEvent) {
	d.log.Debug("scheduler event",
		"event", ev.Kind.String(),
		"task", ev.Task,
		"slot", ev.Slot,
		"received", ev.Received)

	if d.eventLog == nil {
		return
	}
	var tick int64
	if d.clock != nil {
		tick = d.clock.Count()
	}
	if err := d.eventLog.Append(tick, ev); err != nil {
		d.log.Error("failed to append event log", "error", err.Error())
	}
}

func (d *Daemon) writeStatus(p *sched.Pass) {
	if d.cfg.StatusFile == "" {
		return
	}
	st := NewStatus(d.registry, p)
	if err := WriteStatus(d.cfg.StatusFile, st); err != nil {
		d.log.Error("failed to write status snapshot", "path", d.cfg.StatusFile, "error", err.Error())
	}
}

// OpenTransport returns the transport named by kind.
func OpenTransport(kind string) (mq.Transport, error) {
	switch kind {
	case "", "posix":
		return mq.NewPosix(), nil
	case "memory":
		return mq.NewBroker(), nil
	default:
		return nil, fmt.Errorf("unknown transport %q", kind)
	}
}
