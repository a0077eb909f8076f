package profile

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Saver persists a task's completed profile.
type Saver interface {
	Save(task string, samples []Sample) (string, error)
}

// Store writes profiles as task_<name>_profile.dat files under Dir.
type Store struct {
	Dir string
}

// NewStore returns a Store rooted at dir. An empty dir means the working directory.
func NewStore(dir string) *Store {
	if dir == "" {
		dir = "."
	}
	return &Store{Dir: dir}
}

// Path returns the file a task's profile is written to.
func (s *Store) Path(task string) string {
	safe := strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == os.PathSeparator {
			return '_'
		}
		return r
	}, task)
	return filepath.Join(s.Dir, "task_"+safe+"_profile.dat")
}

// Save truncates the task's profile file and writes one line per sample,
// fields in report order, no header.
func (s *Store) Save(task string, samples []Sample) (string, error) {
	path := s.Path(task)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create profile file: %w", err)
	}

	w := csv.NewWriter(f)
	for _, sample := range samples {
		if err := w.Write(record(sample)); err != nil {
			f.Close()
			return "", fmt.Errorf("write profile record: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return "", fmt.Errorf("flush profile file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close profile file: %w", err)
	}
	return path, nil
}
