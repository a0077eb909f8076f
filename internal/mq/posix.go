package mq

import (
	"fmt"
	"strings"
	"time"
)

const defaultPollInterval = 250 * time.Millisecond

// Posix is a Transport over POSIX message queues. Names must have the form
// "/name" with no further slashes.
type Posix struct {
	// PollInterval bounds how long a blocked Send or Receive waits before
	// rechecking its context.
	PollInterval time.Duration
}

// NewPosix returns a POSIX mqueue transport.
func NewPosix() *Posix {
	return &Posix{PollInterval: defaultPollInterval}
}

func (p *Posix) poll() time.Duration {
	if p.PollInterval <= 0 {
		return defaultPollInterval
	}
	return p.PollInterval
}

// kernelName strips the leading slash the way the C library does before
// handing the name to mq_open(2).
func kernelName(name string) (string, error) {
	if len(name) < 2 || name[0] != '/' || strings.ContainsRune(name[1:], '/') {
		return "", fmt.Errorf("invalid queue name %q", name)
	}
	return name[1:], nil
}
