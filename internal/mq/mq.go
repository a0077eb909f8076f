// Package mq provides named, bounded, FIFO message queues used between
// profiled tasks and the scheduling daemon.
package mq

import (
	"context"
	"errors"
)

// Defaults match the limits the task runtime is built with.
const (
	DefaultCapacity       = 10
	DefaultMaxMessageSize = 1024
)

var (
	// ErrClosed is returned by operations on a closed or unlinked queue.
	ErrClosed = errors.New("queue closed")
	// ErrMessageTooLarge is returned when a payload exceeds the queue's message size.
	ErrMessageTooLarge = errors.New("message too large")
	// ErrUnsupported is returned when a transport is unavailable on this platform.
	ErrUnsupported = errors.New("transport not supported on this platform")
)

// Attr describes the limits of a queue at creation time.
type Attr struct {
	Capacity       int
	MaxMessageSize int
}

// DefaultAttr returns the standard queue limits.
func DefaultAttr() Attr {
	return Attr{Capacity: DefaultCapacity, MaxMessageSize: DefaultMaxMessageSize}
}

func (a Attr) normalized() Attr {
	if a.Capacity <= 0 {
		a.Capacity = DefaultCapacity
	}
	if a.MaxMessageSize <= 0 {
		a.MaxMessageSize = DefaultMaxMessageSize
	}
	return a
}

// Queue is an open handle on a named queue.
// Send blocks while the queue is full; Receive blocks while it is empty.
// Both return early with ctx.Err() when ctx is done.
type Queue interface {
	Name() string
	Send(ctx context.Context, msg []byte) error
	Receive(ctx context.Context) ([]byte, error)
	Close() error
}

// Transport opens queues by name, creating them if absent.
type Transport interface {
	Open(name string, attr Attr) (Queue, error)
	Unlink(name string) error
}
