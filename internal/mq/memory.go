package mq

import (
	"context"
	"fmt"
	"sync"
)

// Broker is an in-process Transport. Every Open of the same name shares one
// bounded buffer, so a sender and a receiver in different goroutines behave
// like two processes on a POSIX queue.
type Broker struct {
	mu     sync.Mutex
	queues map[string]*memQueue
}

// NewBroker returns an empty in-memory transport.
func NewBroker() *Broker {
	return &Broker{queues: make(map[string]*memQueue)}
}

type memQueue struct {
	name    string
	maxSize int
	ch      chan []byte
	done    chan struct{}
	once    sync.Once
}

// Open returns a handle on name, creating the queue with attr if absent.
// Attributes of an existing queue are left unchanged.
func (b *Broker) Open(name string, attr Attr) (Queue, error) {
	if name == "" {
		return nil, fmt.Errorf("open queue: empty name")
	}
	attr = attr.normalized()

	b.mu.Lock()
	defer b.mu.Unlock()

	q, ok := b.queues[name]
	if !ok {
		q = &memQueue{
			name:    name,
			maxSize: attr.MaxMessageSize,
			ch:      make(chan []byte, attr.Capacity),
			done:    make(chan struct{}),
		}
		b.queues[name] = q
	}
	return &memHandle{q: q}, nil
}

// Unlink removes name and fails every pending and future operation on
// handles that were opened on it.
func (b *Broker) Unlink(name string) error {
	b.mu.Lock()
	q, ok := b.queues[name]
	delete(b.queues, name)
	b.mu.Unlock()

	if !ok {
		return fmt.Errorf("unlink %s: %w", name, ErrClosed)
	}
	q.once.Do(func() { close(q.done) })
	return nil
}

// Len returns the number of messages waiting on name.
func (b *Broker) Len(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if q, ok := b.queues[name]; ok {
		return len(q.ch)
	}
	return 0
}

// memHandle is one opener's view of a queue. Closing a handle does not
// affect other handles on the same queue.
type memHandle struct {
	q      *memQueue
	mu     sync.Mutex
	closed bool
}

func (h *memHandle) Name() string { return h.q.name }

func (h *memHandle) isClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

func (h *memHandle) Send(ctx context.Context, msg []byte) error {
	if h.isClosed() {
		return ErrClosed
	}
	if len(msg) > h.q.maxSize {
		return fmt.Errorf("send %d bytes on %s: %w", len(msg), h.q.name, ErrMessageTooLarge)
	}

	buf := make([]byte, len(msg))
	copy(buf, msg)

	select {
	case <-h.q.done:
		return ErrClosed
	default:
	}

	select {
	case h.q.ch <- buf:
		return nil
	case <-h.q.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *memHandle) Receive(ctx context.Context) ([]byte, error) {
	if h.isClosed() {
		return nil, ErrClosed
	}

	select {
	case <-h.q.done:
		return nil, ErrClosed
	default:
	}

	select {
	case msg := <-h.q.ch:
		return msg, nil
	case <-h.q.done:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (h *memHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}
