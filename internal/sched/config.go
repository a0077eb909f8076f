package sched

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	yaml "github.com/goccy/go-yaml"
)

// Config mirrors gsched.yml
type Config struct {
	RegistrationQueue string `yaml:"registration_queue"` // "/global_mq"
	TaskQueuePrefix   string `yaml:"task_queue_prefix"`  // "/mq_"
	QueueCapacity     int    `yaml:"queue_capacity"`     // 10
	MaxMessageSize    int    `yaml:"max_message_size"`   // 1024
	Transport         string `yaml:"transport"`          // "posix" or "memory"

	MaxTasks            int     `yaml:"max_tasks"`             // 10
	NumConfigs          int     `yaml:"num_configs"`           // 7
	IntervalMS          int     `yaml:"interval_ms"`           // 10000
	BruteForceThreshold int     `yaml:"brute_force_threshold"` // 4
	WeightThroughput    float64 `yaml:"weight_throughput"`     // 1.0
	WeightCache         float64 `yaml:"weight_cache"`          // 1.0
	WeightMemBW         float64 `yaml:"weight_membw"`          // 1.0
	SendTimeoutMS       int     `yaml:"send_timeout_ms"`       // 1000

	ProfileDir string `yaml:"profile_dir"` // "."
	EventLog   string `yaml:"event_log"`   // CSV audit log, off when empty
	StatusFile string `yaml:"status_file"` // JSON snapshot, off when empty
	LogLevel   string `yaml:"log_level"`   // "info"
	LogDir     string `yaml:"log_dir"`     // stderr when empty
}

// MaxNameLen bounds task names, matching the 128-byte buffers of the task runtime.
const MaxNameLen = 127

// DefaultConfig returns the values the task runtime expects when no file is given.
func DefaultConfig() Config {
	return Config{
		RegistrationQueue:   "/global_mq",
		TaskQueuePrefix:     "/mq_",
		QueueCapacity:       10,
		MaxMessageSize:      1024,
		Transport:           "posix",
		MaxTasks:            10,
		NumConfigs:          7,
		IntervalMS:          10000,
		BruteForceThreshold: 4,
		WeightThroughput:    1.0,
		WeightCache:         1.0,
		WeightMemBW:         1.0,
		SendTimeoutMS:       1000,
		ProfileDir:          ".",
		LogLevel:            "info",
	}
}

// Load reads YAML and overrides defaults; empty path or a missing file means defaults only.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.clamp()
	return cfg, nil
}

// clamp replaces unusable values with defaults.
func (c *Config) clamp() {
	def := DefaultConfig()
	if c.RegistrationQueue == "" {
		c.RegistrationQueue = def.RegistrationQueue
	}
	if c.TaskQueuePrefix == "" {
		c.TaskQueuePrefix = def.TaskQueuePrefix
	}
	if c.QueueCapacity <= 0 {
		c.QueueCapacity = def.QueueCapacity
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = def.MaxMessageSize
	}
	if c.Transport == "" {
		c.Transport = def.Transport
	}
	if c.MaxTasks <= 0 {
		c.MaxTasks = def.MaxTasks
	}
	if c.NumConfigs <= 0 {
		c.NumConfigs = def.NumConfigs
	}
	if c.IntervalMS <= 0 {
		c.IntervalMS = def.IntervalMS
	}
	if c.BruteForceThreshold < 0 {
		c.BruteForceThreshold = def.BruteForceThreshold
	}
	if c.SendTimeoutMS <= 0 {
		c.SendTimeoutMS = def.SendTimeoutMS
	}
	if c.ProfileDir == "" {
		c.ProfileDir = def.ProfileDir
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
}

// Interval is the scheduling period.
func (c Config) Interval() time.Duration {
	return time.Duration(c.IntervalMS) * time.Millisecond
}

// SendTimeout bounds a single decision send.
func (c Config) SendTimeout() time.Duration {
	return time.Duration(c.SendTimeoutMS) * time.Millisecond
}

// Weights returns the scoring weights.
func (c Config) Weights() Weights {
	return Weights{Throughput: c.WeightThroughput, Cache: c.WeightCache, MemBW: c.WeightMemBW}
}

// TaskQueueName returns the private queue name for a task.
func (c Config) TaskQueueName(task string) string {
	return c.TaskQueuePrefix + task
}
