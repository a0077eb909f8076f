package sched

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gsched.yml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	for _, path := range []string{"", filepath.Join(t.TempDir(), "missing.yml")} {
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load(%q) error = %v", path, err)
		}
		if cfg != DefaultConfig() {
			t.Errorf("Load(%q) = %+v, want defaults", path, cfg)
		}
	}

	def := DefaultConfig()
	if def.MaxTasks != 10 || def.NumConfigs != 7 || def.BruteForceThreshold != 4 {
		t.Errorf("unexpected defaults %+v", def)
	}
	if def.Interval() != 10*time.Second {
		t.Errorf("Interval() = %v, want 10s", def.Interval())
	}
	if def.Weights() != DefaultWeights() {
		t.Errorf("Weights() = %+v", def.Weights())
	}
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
max_tasks: 4
num_configs: 5
interval_ms: 250
brute_force_threshold: 2
weight_cache: 2.5
transport: memory
profile_dir: /tmp/profiles
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MaxTasks != 4 || cfg.NumConfigs != 5 || cfg.BruteForceThreshold != 2 {
		t.Errorf("Load() = %+v", cfg)
	}
	if cfg.Interval() != 250*time.Millisecond {
		t.Errorf("Interval() = %v", cfg.Interval())
	}
	if w := cfg.Weights(); w.Cache != 2.5 || w.Throughput != 1 || w.MemBW != 1 {
		t.Errorf("Weights() = %+v", w)
	}
	if cfg.Transport != "memory" || cfg.ProfileDir != "/tmp/profiles" {
		t.Errorf("Load() = %+v", cfg)
	}
	if cfg.RegistrationQueue != "/global_mq" {
		t.Errorf("RegistrationQueue = %q, want default", cfg.RegistrationQueue)
	}
}

func TestLoadClamps(t *testing.T) {
	path := writeConfig(t, `
max_tasks: 0
num_configs: -3
interval_ms: -1
queue_capacity: 0
send_timeout_ms: 0
task_queue_prefix: ""
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	def := DefaultConfig()
	if cfg.MaxTasks != def.MaxTasks || cfg.NumConfigs != def.NumConfigs ||
		cfg.IntervalMS != def.IntervalMS || cfg.QueueCapacity != def.QueueCapacity ||
		cfg.SendTimeoutMS != def.SendTimeoutMS || cfg.TaskQueuePrefix != def.TaskQueuePrefix {
		t.Errorf("Load() did not clamp: %+v", cfg)
	}
}

func TestLoadMalformed(t *testing.T) {
	path := writeConfig(t, "max_tasks: [1, 2\n")
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestTaskQueueName(t *testing.T) {
	if got := DefaultConfig().TaskQueueName("omp1"); got != "/mq_omp1" {
		t.Errorf("TaskQueueName() = %q", got)
	}
}
