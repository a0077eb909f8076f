package sched

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"gsched/internal/profile"
)

func TestAdmitRoundRobin(t *testing.T) {
	reg := NewRegistry(4, 7)

	a, err := reg.Admit("a")
	if err != nil {
		t.Fatalf("Admit(a) error = %v", err)
	}
	b, _ := reg.Admit("b")
	if a.Slot().Index() != 0 || b.Slot().Index() != 1 {
		t.Fatalf("slots = %d,%d want 0,1", a.Slot().Index(), b.Slot().Index())
	}

	if !reg.Release(a) {
		t.Fatal("Release(a) = false, want true")
	}

	// The scan resumes after the last claimed slot instead of reusing slot 0.
	c, _ := reg.Admit("c")
	if c.Slot().Index() != 2 {
		t.Errorf("Admit(c) slot = %d, want 2", c.Slot().Index())
	}
	d, _ := reg.Admit("d")
	if d.Slot().Index() != 3 {
		t.Errorf("Admit(d) slot = %d, want 3", d.Slot().Index())
	}
	e, _ := reg.Admit("e")
	if e.Slot().Index() != 0 {
		t.Errorf("Admit(e) slot = %d, want wrap to 0", e.Slot().Index())
	}
}

func TestAdmitFullRegistry(t *testing.T) {
	reg := NewRegistry(2, 7)
	first, _ := reg.Admit("a")
	if _, err := reg.Admit("b"); err != nil {
		t.Fatal(err)
	}

	before := reg.Snapshot()
	if _, err := reg.Admit("c"); !errors.Is(err, ErrNoFreeSlot) {
		t.Fatalf("Admit() on full registry error = %v, want ErrNoFreeSlot", err)
	}
	after := reg.Snapshot()
	for i := range before {
		if before[i] != after[i] {
			t.Errorf("slot %d changed on rejected admission: %+v -> %+v", i, before[i], after[i])
		}
	}

	reg.Release(first)
	lease, err := reg.Admit("c")
	if err != nil {
		t.Fatalf("Admit() after release error = %v", err)
	}
	if lease.Slot().Index() != 0 {
		t.Errorf("Admit() slot = %d, want freed slot 0", lease.Slot().Index())
	}
}

func TestAdmitRejectsDuplicateAndEmptyNames(t *testing.T) {
	reg := NewRegistry(3, 7)
	lease, _ := reg.Admit("omp")

	if _, err := reg.Admit("omp"); !errors.Is(err, ErrDuplicateTask) {
		t.Errorf("duplicate Admit() error = %v, want ErrDuplicateTask", err)
	}
	if _, err := reg.Admit(""); !errors.Is(err, ErrInvalidName) {
		t.Errorf("empty Admit() error = %v, want ErrInvalidName", err)
	}

	reg.Release(lease)
	if _, err := reg.Admit("omp"); err != nil {
		t.Errorf("Admit() after release error = %v", err)
	}
}

func TestReleaseIsIdempotentAndLeaseScoped(t *testing.T) {
	reg := NewRegistry(1, 7)
	old, _ := reg.Admit("a")

	if !reg.Release(old) {
		t.Fatal("first Release() = false")
	}
	if reg.Release(old) {
		t.Error("second Release() = true, want false")
	}

	current, _ := reg.Admit("b")
	if current.Slot() != old.Slot() {
		t.Fatal("expected the single slot to be reused")
	}
	if reg.Release(old) {
		t.Error("stale lease released a re-admitted slot")
	}
	if v := current.Slot().View(); !v.Active || v.Name != "b" {
		t.Errorf("slot after stale release = %+v", v)
	}
	if reg.Release(Lease{}) {
		t.Error("Release() of zero lease = true")
	}
}

func TestConcurrentAdmitsNeverShareSlots(t *testing.T) {
	const capacity = 10
	reg := NewRegistry(capacity, 7)

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		owners = make(map[int]string)
		dupes  []string
		ok     int
	)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("task-%d", i)
			lease, err := reg.Admit(name)
			if err != nil {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			ok++
			if prev, taken := owners[lease.Slot().Index()]; taken {
				dupes = append(dupes, prev+"/"+name)
			}
			owners[lease.Slot().Index()] = name
		}(i)
	}
	wg.Wait()

	if ok != capacity {
		t.Errorf("admitted %d tasks, want %d", ok, capacity)
	}
	if len(dupes) > 0 {
		t.Errorf("slots double-claimed: %v", dupes)
	}
	if reg.Active() != capacity {
		t.Errorf("Active() = %d, want %d", reg.Active(), capacity)
	}
}

func TestConcurrentAdmitReleaseChurn(t *testing.T) {
	reg := NewRegistry(3, 7)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				lease, err := reg.Admit(fmt.Sprintf("w%d-%d", w, i))
				if err != nil {
					continue
				}
				if v := lease.Slot().View(); !v.Active {
					t.Errorf("admitted slot not active: %+v", v)
				}
				reg.Release(lease)
			}
		}(w)
	}
	wg.Wait()

	if reg.Active() != 0 {
		t.Errorf("Active() = %d after churn, want 0", reg.Active())
	}
	for _, v := range reg.Snapshot() {
		if v.Active || v.Received != 0 || v.Name != "" {
			t.Errorf("slot not free after churn: %+v", v)
		}
	}
}

func TestCohortSelection(t *testing.T) {
	reg := NewRegistry(4, 2)

	profiled, _ := reg.Admit("profiled")
	fill(t, profiled.Slot(), 2)
	partial, _ := reg.Admit("partial")
	fill(t, partial.Slot(), 1)
	done, _ := reg.Admit("done")
	fill(t, done.Slot(), 2)
	done.Slot().commit(done.gen, 4, 0)

	cohort := reg.Cohort()
	if len(cohort) != 1 || cohort[0].Name != "profiled" {
		t.Fatalf("Cohort() = %+v, want only profiled", cohort)
	}
	if len(cohort[0].Samples) != 2 {
		t.Errorf("cohort samples = %d, want 2", len(cohort[0].Samples))
	}

	reg.Release(profiled)
	if got := reg.Cohort(); len(got) != 0 {
		t.Errorf("Cohort() after release = %+v, want empty", got)
	}
}

func TestLookup(t *testing.T) {
	reg := NewRegistry(2, 7)
	lease, _ := reg.Admit("x")

	s, ok := reg.Lookup("x")
	if !ok || s != lease.Slot() {
		t.Errorf("Lookup(x) = %v,%v", s, ok)
	}
	reg.Release(lease)
	if _, ok := reg.Lookup("x"); ok {
		t.Error("Lookup() found released task")
	}
}

// fill records n distinct samples into s.
func fill(t *testing.T, s *Slot, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if res := s.Record(profile.Sample{ThreadCount: i + 1, Throughput: float64(i), FLOPS: float64(10 * i)}); !res.Accepted {
			t.Fatalf("Record(%d) not accepted", i)
		}
	}
}
