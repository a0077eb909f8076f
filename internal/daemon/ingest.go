package daemon

import (
	"context"

	"gsched/internal/logging"
	"gsched/internal/mq"
	"gsched/internal/profile"
	"gsched/internal/sched"
)

// ingest consumes one task's private queue until it fails, which is how a
// task disconnecting is observed, or ctx ends. The slot is freed on exit.
func (d *Daemon) ingest(ctx context.Context, lease sched.Lease, q mq.Queue, log *logging.Logger) {
	slot := lease.Slot()
	name := slot.Name()

	defer func() {
		q.Close()
		if d.registry.Release(lease) {
			log.Info("task slot released")
			d.emit(sched.StatusEvent{Kind: sched.StatusRelease, Task: name, Slot: slot.Index()})
		}
	}()

	n := slot.AppendHistory(&sched.HistoryRecord{})
	log.Debug("execution history initialized", "records", n)

	for {
		msg, err := q.Receive(ctx)
		if err != nil {
			if ctx.Err() == nil {
				log.Warn("task queue receive failed, treating as disconnect", "error", err.Error())
			}
			return
		}
		d.handleMessage(slot, name, msg, log)
	}
}

func (d *Daemon) handleMessage(slot *sched.Slot, name string, msg []byte, log *logging.Logger) {
	switch kind := profile.Classify(msg); kind {
	case profile.KindProfile:
	case profile.KindSchedule:
		log.Debug("ignoring scheduling decision echo", "message", string(msg))
		return
	default:
		log.Info("received message", "kind", kind.String(), "message", string(msg))
		return
	}

	sample, err := profile.ParseReport(msg)
	if err != nil {
		log.Warn("invalid profiling message format", "message", string(msg), "error", err.Error())
		return
	}

	res := slot.Record(sample)
	if !res.Accepted {
		log.Debug("profiling sample beyond required count discarded", "received", res.Received)
		return
	}
	log.Info("received profiling data",
		"received", res.Received,
		"required", d.cfg.NumConfigs,
		"thread_count", sample.ThreadCount,
		"throughput", sample.Throughput)
	d.emit(sched.StatusEvent{
		Kind:     sched.StatusSample,
		Task:     name,
		Slot:     slot.Index(),
		Received: res.Received,
		Threads:  sample.ThreadCount,
	})

	if !res.Completed {
		return
	}
	log.Info("profiling complete")
	d.emit(sched.StatusEvent{Kind: sched.StatusComplete, Task: name, Slot: slot.Index(), Received: res.Received})

	path, err := d.saver.Save(name, res.Samples)
	if err != nil {
		log.Error("failed to save profiling data", "error", err.Error())
		return
	}
	log.Info("saved profiling data", "path", path)
}
