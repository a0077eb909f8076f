//go:build linux

package mq

import (
	"context"
	"fmt"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// mqAttr mirrors struct mq_attr; C long is Go int on every linux port.
type mqAttr struct {
	Flags   int
	MaxMsg  int
	MsgSize int
	CurMsgs int
	_       [4]int
}

type posixQueue struct {
	name    string
	poll    time.Duration
	msgSize int

	mu     sync.RWMutex // read-held across syscalls on fd, write-held by Close
	fd     int
	closed bool
}

// Open creates the queue if absent and opens it read-write.
func (p *Posix) Open(name string, attr Attr) (Queue, error) {
	kname, err := kernelName(name)
	if err != nil {
		return nil, err
	}
	attr = attr.normalized()

	path, err := unix.BytePtrFromString(kname)
	if err != nil {
		return nil, fmt.Errorf("mq_open %s: %w", name, err)
	}
	want := mqAttr{MaxMsg: attr.Capacity, MsgSize: attr.MaxMessageSize}

	fd, _, errno := unix.Syscall6(unix.SYS_MQ_OPEN,
		uintptr(unsafe.Pointer(path)),
		uintptr(unix.O_CREAT|unix.O_RDWR|unix.O_CLOEXEC),
		0644,
		uintptr(unsafe.Pointer(&want)),
		0, 0)
	if errno != 0 {
		return nil, fmt.Errorf("mq_open %s: %w", name, errno)
	}

	// An existing queue keeps the attributes it was created with.
	var got mqAttr
	if _, _, errno := unix.Syscall(unix.SYS_MQ_GETSETATTR, fd, 0, uintptr(unsafe.Pointer(&got))); errno != 0 {
		unix.Close(int(fd))
		return nil, fmt.Errorf("mq_getattr %s: %w", name, errno)
	}

	return &posixQueue{
		name:    name,
		poll:    p.poll(),
		msgSize: got.MsgSize,
		fd:      int(fd),
	}, nil
}

// Unlink removes the queue name; open handles stay usable until closed.
func (p *Posix) Unlink(name string) error {
	kname, err := kernelName(name)
	if err != nil {
		return err
	}
	path, err := unix.BytePtrFromString(kname)
	if err != nil {
		return fmt.Errorf("mq_unlink %s: %w", name, err)
	}
	if _, _, errno := unix.Syscall(unix.SYS_MQ_UNLINK, uintptr(unsafe.Pointer(path)), 0, 0); errno != 0 {
		return fmt.Errorf("mq_unlink %s: %w", name, errno)
	}
	return nil
}

func (q *posixQueue) Name() string { return q.name }

func (q *posixQueue) deadline() unix.Timespec {
	return unix.NsecToTimespec(time.Now().Add(q.poll).UnixNano())
}

func (q *posixQueue) Send(ctx context.Context, msg []byte) error {
	if len(msg) > q.msgSize {
		return fmt.Errorf("send %d bytes on %s: %w", len(msg), q.name, ErrMessageTooLarge)
	}
	// mq_timedsend needs a valid pointer even for empty payloads.
	buf := msg
	if len(buf) == 0 {
		buf = []byte{0}
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		errno, err := q.timedSend(buf, len(msg))
		if err != nil {
			return err
		}
		switch errno {
		case 0:
			return nil
		case unix.ETIMEDOUT, unix.EINTR:
			continue
		case unix.EBADF:
			return ErrClosed
		default:
			return fmt.Errorf("mq_send %s: %w", q.name, errno)
		}
	}
}

func (q *posixQueue) timedSend(buf []byte, n int) (unix.Errno, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return 0, ErrClosed
	}
	ts := q.deadline()
	_, _, errno := unix.Syscall6(unix.SYS_MQ_TIMEDSEND,
		uintptr(q.fd),
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(n),
		0,
		uintptr(unsafe.Pointer(&ts)),
		0)
	return errno, nil
}

func (q *posixQueue) Receive(ctx context.Context) ([]byte, error) {
	buf := make([]byte, q.msgSize)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, errno, err := q.timedReceive(buf)
		if err != nil {
			return nil, err
		}
		switch errno {
		case 0:
			return buf[:n], nil
		case unix.ETIMEDOUT, unix.EINTR:
			continue
		case unix.EBADF:
			return nil, ErrClosed
		default:
			return nil, fmt.Errorf("mq_receive %s: %w", q.name, errno)
		}
	}
}

func (q *posixQueue) timedReceive(buf []byte) (int, unix.Errno, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return 0, 0, ErrClosed
	}
	ts := q.deadline()
	n, _, errno := unix.Syscall6(unix.SYS_MQ_TIMEDRECEIVE,
		uintptr(q.fd),
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(len(buf)),
		0,
		uintptr(unsafe.Pointer(&ts)),
		0)
	return int(n), errno, nil
}

func (q *posixQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	q.closed = true
	return unix.Close(q.fd)
}
