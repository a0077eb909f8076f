package sched

import (
	"sync"

	"github.com/emirpasic/gods/lists/arraylist"

	"gsched/internal/mq"
	"gsched/internal/profile"
)

// HistoryRecord holds per-iteration hardware counters of a task.
type HistoryRecord struct {
	IPC            [256]uint64
	CacheMiss      [256]uint64
	CacheReference [256]uint64
	Throughput     [256]uint64
	FLOPS          [256]uint64
}

// History is the append-only execution history owned by one slot.
// It is only touched under the owning slot's lock.
type History struct {
	records *arraylist.List
}

func newHistory() *History {
	return &History{records: arraylist.New()}
}

// Len returns the number of records.
func (h *History) Len() int {
	if h == nil {
		return 0
	}
	return h.records.Size()
}

// At returns the i-th record.
func (h *History) At(i int) (*HistoryRecord, bool) {
	if h == nil {
		return nil, false
	}
	v, ok := h.records.Get(i)
	if !ok {
		return nil, false
	}
	return v.(*HistoryRecord), true
}

// Slot is the bookkeeping record for one admitted task.
type Slot struct {
	mu sync.Mutex

	index    int
	gen      uint64 // bumped on every admission
	name     string
	queue    mq.Queue
	history  *History
	active   bool
	samples  []profile.Sample
	limit    int // samples required for completion
	complete bool

	scheduled   bool
	threadCount int
	core        int
}

func newSlot(index, limit int) *Slot {
	return &Slot{index: index, limit: limit, core: -1}
}

// Index returns the slot's position in the registry.
func (s *Slot) Index() int { return s.index }

// Name returns the owning task name.
func (s *Slot) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

// reset clears per-task state. Caller holds s.mu.
func (s *Slot) reset() {
	s.name = ""
	s.queue = nil
	s.history = nil
	s.samples = nil
	s.complete = false
	s.scheduled = false
	s.threadCount = 0
	s.core = -1
}

// Attach binds the task's private queue to the slot.
func (s *Slot) Attach(q mq.Queue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = q
}

// Queue returns the task's private queue, nil before Attach.
func (s *Slot) Queue() mq.Queue {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue
}

// AppendHistory adds a record to the slot's execution history.
func (s *Slot) AppendHistory(rec *HistoryRecord) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.history == nil {
		s.history = newHistory()
	}
	s.history.records.Add(rec)
	return s.history.Len()
}

// HistoryLen returns the number of history records.
func (s *Slot) HistoryLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Len()
}

// RecordResult describes the effect of Record.
type RecordResult struct {
	Accepted  bool // false when the sample exceeded the required count
	Received  int
	Completed bool             // true only for the sample that completed profiling
	Samples   []profile.Sample // copy of all samples, set when Completed
}

// Record appends a sample while fewer than the required count have been received.
func (s *Slot) Record(sample profile.Sample) RecordResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active || len(s.samples) >= s.limit {
		return RecordResult{Received: len(s.samples)}
	}

	s.samples = append(s.samples, sample)
	res := RecordResult{Accepted: true, Received: len(s.samples)}
	if len(s.samples) == s.limit && !s.complete {
		s.complete = true
		res.Completed = true
		res.Samples = append([]profile.Sample(nil), s.samples...)
	}
	return res
}

// Received returns the number of recorded samples.
func (s *Slot) Received() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.samples)
}

// Samples returns a copy of the recorded samples.
func (s *Slot) Samples() []profile.Sample {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]profile.Sample(nil), s.samples...)
}

// commit stores a scheduling decision. It reports false when the slot was
// released or re-admitted since gen was observed.
func (s *Slot) commit(gen uint64, threads, core int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active || s.gen != gen || !s.complete {
		return false
	}
	s.threadCount = threads
	s.core = core
	s.scheduled = true
	return true
}

// SlotView is a point-in-time copy of a slot's public state.
type SlotView struct {
	Index       int    `json:"index"`
	Name        string `json:"name"`
	Active      bool   `json:"active"`
	Received    int    `json:"profiles_received"`
	Complete    bool   `json:"profiling_complete"`
	Scheduled   bool   `json:"scheduled"`
	ThreadCount int    `json:"optimal_thread_count"`
	Core        int    `json:"scheduled_core"`
	History     int    `json:"history_records"`
}

// View returns a snapshot of the slot.
func (s *Slot) View() SlotView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Slot) viewLocked() SlotView {
	return SlotView{
		Index:       s.index,
		Name:        s.name,
		Active:      s.active,
		Received:    len(s.samples),
		Complete:    s.complete,
		Scheduled:   s.scheduled,
		ThreadCount: s.threadCount,
		Core:        s.core,
		History:     s.history.Len(),
	}
}
