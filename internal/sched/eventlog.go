package sched

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"
)

// EventLog appends scheduler events to a CSV file.
type EventLog struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

var eventLogHeader = []string{"timestamp", "tick", "event", "task", "slot", "received", "threads", "core", "score", "error"}

// OpenEventLog creates (truncating) the CSV file at path and writes the header.
func OpenEventLog(path string) (*EventLog, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create event log: %w", err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(eventLogHeader); err != nil {
		f.Close()
		return nil, fmt.Errorf("write event log header: %w", err)
	}
	w.Flush()
	return &EventLog{file: f, writer: w}, nil
}

// Append writes one row for ev observed at the given clock tick.
func (l *EventLog) Append(tick int64, ev StatusEvent) error {
	errText := ""
	if ev.Err != nil {
		errText = ev.Err.Error()
	}
	rec := []string{
		ev.Time.Format(time.RFC3339Nano),
		strconv.FormatInt(tick, 10),
		ev.Kind.String(),
		ev.Task,
		strconv.Itoa(ev.Slot),
		strconv.Itoa(ev.Received),
		strconv.Itoa(ev.Threads),
		strconv.Itoa(ev.Core),
		fmt.Sprintf("%.4f", ev.Score),
		errText,
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.writer == nil {
		return fmt.Errorf("event log closed")
	}
	if err := l.writer.Write(rec); err != nil {
		return err
	}
	l.writer.Flush()
	return l.writer.Error()
}

// Close flushes and closes the file.
func (l *EventLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.writer == nil {
		return nil
	}
	l.writer.Flush()
	l.writer = nil
	return l.file.Close()
}
