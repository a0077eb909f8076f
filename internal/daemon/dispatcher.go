package daemon

import (
	"bytes"
	"context"
	"errors"
	"time"

	"gsched/internal/mq"
	"gsched/internal/sched"
)

// receiveRetryDelay is the pause after a failed registration receive.
const receiveRetryDelay = time.Second

// dispatch admits every task named on the registration queue. It never
// waits on the ingestion loops it starts.
func (d *Daemon) dispatch(ctx context.Context, reg mq.Queue) error {
	log := d.log.WithComponent("dispatcher")
	log.Info("listening for tasks", "queue", reg.Name())

	for {
		msg, err := reg.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, mq.ErrClosed) {
				log.Warn("registration queue closed, no further tasks will be admitted")
				return nil
			}
			log.Error("registration receive failed", "error", err.Error())
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(receiveRetryDelay):
			}
			continue
		}

		name := taskName(msg)
		log.Info("received new task notification", "task", name)
		d.register(ctx, name)
	}
}

// taskName extracts a bounded task name from a registration payload.
func taskName(msg []byte) string {
	if i := bytes.IndexByte(msg, 0); i >= 0 {
		msg = msg[:i]
	}
	msg = bytes.TrimSpace(msg)
	if len(msg) > sched.MaxNameLen {
		msg = msg[:sched.MaxNameLen]
	}
	return string(msg)
}

// register claims a slot and opens the task's private queue, then starts
// its ingestion loop. Any failure leaves the slot free.
func (d *Daemon) register(ctx context.Context, name string) {
	log := d.log.WithTask(name)

	lease, err := d.registry.Admit(name)
	if err != nil {
		log.Warn("registration dropped", "error", err.Error())
		d.emit(sched.StatusEvent{Kind: sched.StatusReject, Task: name, Slot: -1, Err: err})
		return
	}
	slot := lease.Slot()

	qname := d.cfg.TaskQueueName(name)
	q, err := d.transport.Open(qname, d.attr())
	if err != nil {
		log.Error("failed to open task queue", "queue", qname, "error", err.Error())
		d.registry.Release(lease)
		d.emit(sched.StatusEvent{Kind: sched.StatusReject, Task: name, Slot: slot.Index(), Err: err})
		return
	}
	slot.Attach(q)

	log.Info("task admitted", "slot", slot.Index(), "queue", qname)
	d.emit(sched.StatusEvent{Kind: sched.StatusAdmit, Task: name, Slot: slot.Index()})

	d.loops.Add(1)
	go func() {
		defer d.loops.Done()
		d.ingest(ctx, lease, q, log.With("slot", slot.Index()))
	}()
}
