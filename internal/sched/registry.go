package sched

import (
	"errors"
	"fmt"
	"sync"

	"github.com/emirpasic/gods/maps/treemap"

	"gsched/internal/mq"
	"gsched/internal/profile"
)

// Sentinel errors returned by registry operations.
var (
	ErrNoFreeSlot    = errors.New("no free task slot")
	ErrDuplicateTask = errors.New("task already registered")
	ErrInvalidName   = errors.New("invalid task name")
)

// Lease is the right to own a slot for one admission. A lease outlives its
// admission harmlessly: releasing it after the slot was reused is a no-op.
type Lease struct {
	slot *Slot
	gen  uint64
}

// Slot returns the leased slot.
func (l Lease) Slot() *Slot { return l.slot }

// Registry is the fixed pool of task slots.
//
// Lock order is registry then slot. The registry lock covers only the
// round-robin cursor and the name index and is never held across I/O.
type Registry struct {
	mu     sync.Mutex
	slots  []*Slot
	next   int          // round-robin scan start
	byName *treemap.Map // active task name -> slot index
}

// NewRegistry creates capacity free slots, each completing after limit samples.
func NewRegistry(capacity, limit int) *Registry {
	if capacity <= 0 {
		capacity = 1
	}
	if limit <= 0 {
		limit = 1
	}
	slots := make([]*Slot, capacity)
	for i := range slots {
		slots[i] = newSlot(i, limit)
	}
	return &Registry{
		slots:  slots,
		byName: treemap.NewWithStringComparator(),
	}
}

// Capacity returns the number of slots.
func (r *Registry) Capacity() int { return len(r.slots) }

// Admit claims a free slot for name, scanning round-robin from where the
// previous admission stopped.
func (r *Registry) Admit(name string) (Lease, error) {
	if name == "" {
		return Lease{}, ErrInvalidName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if idx, found := r.byName.Get(name); found {
		return Lease{}, fmt.Errorf("%w: %s in slot %d", ErrDuplicateTask, name, idx.(int))
	}

	n := len(r.slots)
	for i := 0; i < n; i++ {
		idx := (r.next + i) % n
		s := r.slots[idx]

		s.mu.Lock()
		if s.active {
			s.mu.Unlock()
			continue
		}
		s.reset()
		s.active = true
		s.gen++
		s.name = name
		s.history = newHistory()
		lease := Lease{slot: s, gen: s.gen}
		s.mu.Unlock()

		r.byName.Put(name, idx)
		r.next = (idx + 1) % n
		return lease, nil
	}
	return Lease{}, ErrNoFreeSlot
}

// Release frees the leased slot. It reports whether this call freed it.
func (r *Registry) Release(l Lease) bool {
	if l.slot == nil {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	s := l.slot
	s.mu.Lock()
	if !s.active || s.gen != l.gen {
		s.mu.Unlock()
		return false
	}
	name := s.name
	s.active = false
	s.reset()
	s.mu.Unlock()

	if idx, found := r.byName.Get(name); found && idx.(int) == s.index {
		r.byName.Remove(name)
	}
	return true
}

// Active returns the number of occupied slots.
func (r *Registry) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byName.Size()
}

// Lookup returns the slot currently owned by name.
func (r *Registry) Lookup(name string) (*Slot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx, found := r.byName.Get(name)
	if !found {
		return nil, false
	}
	return r.slots[idx.(int)], true
}

// Candidate is one cohort member captured at selection time.
type Candidate struct {
	Slot    *Slot
	Name    string
	Queue   mq.Queue
	Samples []profile.Sample

	gen uint64
}

// Cohort selects every slot that is active, profiled and not yet scheduled,
// in slot order. Each slot is locked on its own.
func (r *Registry) Cohort() []Candidate {
	var out []Candidate
	for _, s := range r.slots {
		s.mu.Lock()
		if s.active && s.complete && !s.scheduled {
			out = append(out, Candidate{
				Slot:    s,
				Name:    s.name,
				Queue:   s.queue,
				Samples: append([]profile.Sample(nil), s.samples...),
				gen:     s.gen,
			})
		}
		s.mu.Unlock()
	}
	return out
}

// Snapshot returns a view of every slot.
func (r *Registry) Snapshot() []SlotView {
	out := make([]SlotView, len(r.slots))
	for i, s := range r.slots {
		out[i] = s.View()
	}
	return out
}
