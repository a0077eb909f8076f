// Package job is the task side of the protocol: it registers a task with
// the daemon and reports profiling samples on the task's private queue.
package job

import (
	"context"
	"errors"
	"fmt"

	"gsched/internal/mq"
	"gsched/internal/profile"
	"gsched/internal/sched"
)

// ErrInvalidName rejects names the daemon could not address.
var ErrInvalidName = errors.New("invalid task name")

// Client is a registered task.
type Client struct {
	name  string
	queue mq.Queue
}

// Register opens the task's private queue, creating it if needed, and then
// announces name on the registration queue.
func Register(ctx context.Context, tr mq.Transport, cfg sched.Config, name string) (*Client, error) {
	if name == "" || len(name) > sched.MaxNameLen {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	attr := mq.Attr{Capacity: cfg.QueueCapacity, MaxMessageSize: cfg.MaxMessageSize}

	q, err := tr.Open(cfg.TaskQueueName(name), attr)
	if err != nil {
		return nil, fmt.Errorf("open task queue: %w", err)
	}

	reg, err := tr.Open(cfg.RegistrationQueue, attr)
	if err != nil {
		q.Close()
		return nil, fmt.Errorf("open registration queue: %w", err)
	}
	defer reg.Close()

	if err := reg.Send(ctx, []byte(name)); err != nil {
		q.Close()
		return nil, fmt.Errorf("register %s: %w", name, err)
	}
	return &Client{name: name, queue: q}, nil
}

// Name returns the registered task name.
func (c *Client) Name() string { return c.name }

// Report sends one profiling sample.
func (c *Client) Report(ctx context.Context, s profile.Sample) error {
	if err := c.queue.Send(ctx, profile.FormatReport(s)); err != nil {
		return fmt.Errorf("report %s: %w", c.name, err)
	}
	return nil
}

// Close releases the client's queue handle. The queue itself stays.
func (c *Client) Close() error {
	return c.queue.Close()
}
