//go:build linux

package mq

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"
)

func TestKernelName(t *testing.T) {
	if got, err := kernelName("/global_mq"); err != nil || got != "global_mq" {
		t.Errorf("kernelName() = %q, %v", got, err)
	}
	for _, bad := range []string{"", "/", "global_mq", "/a/b"} {
		if _, err := kernelName(bad); err == nil {
			t.Errorf("kernelName(%q) expected error", bad)
		}
	}
}

func TestPosixRoundTrip(t *testing.T) {
	p := NewPosix()
	p.PollInterval = 20 * time.Millisecond
	name := fmt.Sprintf("/gsched_test_%d", os.Getpid())

	q, err := p.Open(name, Attr{Capacity: 4, MaxMessageSize: 128})
	if err != nil {
		t.Skipf("POSIX message queues unavailable: %v", err)
	}
	defer p.Unlink(name)
	defer q.Close()

	ctx := context.Background()
	if err := q.Send(ctx, []byte("PROFILE:1,2,3,4,5")); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	msg, err := q.Receive(ctx)
	if err != nil {
		t.Fatalf("Receive() error = %v", err)
	}
	if string(msg) != "PROFILE:1,2,3,4,5" {
		t.Errorf("Receive() = %q", msg)
	}

	if err := q.Send(ctx, make([]byte, 129)); !errors.Is(err, ErrMessageTooLarge) {
		t.Errorf("Send() oversize error = %v, want ErrMessageTooLarge", err)
	}

	tctx, cancel := context.WithTimeout(ctx, 60*time.Millisecond)
	defer cancel()
	if _, err := q.Receive(tctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Receive() on empty queue error = %v, want DeadlineExceeded", err)
	}

	if err := q.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if _, err := q.Receive(ctx); !errors.Is(err, ErrClosed) {
		t.Errorf("Receive() after Close error = %v, want ErrClosed", err)
	}
}
