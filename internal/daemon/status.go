package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sugawarayuuta/sonnet"

	"gsched/internal/sched"
)

// Status is the JSON snapshot written after every scheduling pass.
type Status struct {
	UpdatedAt time.Time        `json:"updated_at"`
	Capacity  int              `json:"capacity"`
	Active    int              `json:"active"`
	Slots     []sched.SlotView `json:"slots"`
	LastPass  *PassSummary     `json:"last_pass,omitempty"`
}

// PassSummary describes the most recent non-empty pass.
type PassSummary struct {
	Tasks      int     `json:"tasks"`
	Score      float64 `json:"global_score"`
	Exhaustive bool    `json:"exhaustive"`
}

// NewStatus captures reg and, when p is not nil, the pass that just ran.
func NewStatus(reg *sched.Registry, p *sched.Pass) Status {
	st := Status{
		UpdatedAt: time.Now().UTC(),
		Capacity:  reg.Capacity(),
		Slots:     reg.Snapshot(),
	}
	for _, v := range st.Slots {
		if v.Active {
			st.Active++
		}
	}
	if p != nil {
		st.LastPass = &PassSummary{Tasks: len(p.Decisions), Score: p.Score, Exhaustive: p.Exhaustive}
	}
	return st
}

// WriteStatus replaces the file at path atomically.
func WriteStatus(path string, st Status) error {
	data, err := sonnet.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode status: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".gsched-status-*")
	if err != nil {
		return fmt.Errorf("create status file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write status file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close status file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace status file: %w", err)
	}
	return nil
}

// ReadStatus loads a snapshot written by WriteStatus.
func ReadStatus(path string) (Status, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Status{}, fmt.Errorf("read status file: %w", err)
	}
	var st Status
	if err := sonnet.Unmarshal(data, &st); err != nil {
		return Status{}, fmt.Errorf("decode status file: %w", err)
	}
	return st, nil
}
