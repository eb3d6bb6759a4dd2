// Package config defines service configuration structures and loading hooks.
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Store drivers.
const (
	StoreMemory   = "memory"
	StoreDynamoDB = "dynamodb"
)

// Notification drivers.
const (
	NotifyLog   = "log"
	NotifyKafka = "kafka"
	NotifyNATS  = "nats"
	NotifyNone  = "none"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// WeeklyCapacityHours is the open workload that counts as 100%.
	WeeklyCapacityHours float64 `koanf:"weekly_capacity_hours"`

	// TopCandidates is the number of candidates a recommendation lists.
	TopCandidates int `koanf:"top_candidates"`

	// MaxCandidatesLimit caps GET /tasks/{id}/candidates?limit.
	MaxCandidatesLimit int `koanf:"max_candidates_limit"`

	UrgentDays     int `koanf:"urgent_days"`
	LargeTaskHours int `koanf:"large_task_hours"`

	// Scoring weights and bonuses.
	SkillWeight            float64 `koanf:"skill_weight"`
	AvailabilityWeight     float64 `koanf:"availability_weight"`
	RelevanceBonus         float64 `koanf:"relevance_bonus"`
	PriorityBonus          float64 `koanf:"priority_bonus"`
	PrioritySkillThreshold float64 `koanf:"priority_skill_threshold"`

	// RelevanceKeywords extends the built-in department keyword table.
	RelevanceKeywords map[string][]string `koanf:"relevance_keywords"`

	// LockStripes sets the number of per-task mutation locks.
	LockStripes int `koanf:"lock_stripes"`

	// DedupeSize bounds the idempotency key cache.
	DedupeSize int `koanf:"dedupe_size"`

	Store StoreConfig `koanf:"store"`

	// SeedURL is loaded into an empty store at start; SnapshotURL is written on shutdown.
	SeedURL     string `koanf:"seed_url"`
	SnapshotURL string `koanf:"snapshot_url"`

	Notify  NotifyConfig  `koanf:"notify"`
	Tracing TracingConfig `koanf:"tracing"`
	Metrics MetricsConfig `koanf:"metrics"`
}

// StoreConfig selects the record store.
type StoreConfig struct {
	Driver       string `koanf:"driver"`
	TasksTable   string `koanf:"tasks_table"`
	WorkersTable string `koanf:"workers_table"`
	Region       string `koanf:"region"`
	Endpoint     string `koanf:"endpoint"`
}

// NotifyConfig configures event delivery.
type NotifyConfig struct {
	Driver       string   `koanf:"driver"`
	QueueSize    int      `koanf:"queue_size"`
	WorkerCount  int      `koanf:"worker_count"`
	KafkaBrokers []string `koanf:"kafka_brokers"`
	KafkaTopic   string   `koanf:"kafka_topic"`
	NATSURL      string   `koanf:"nats_url"`
	NATSSubject  string   `koanf:"nats_subject"`
}

// TracingConfig toggles the stdout span exporter.
type TracingConfig struct {
	Enabled bool   `koanf:"enabled"`
	Output  string `koanf:"output"`
}

// MetricsConfig shapes the Prometheus exposition.
type MetricsConfig struct {
	Enabled   bool   `koanf:"enabled"`
	Namespace string `koanf:"namespace"`
	Subsystem string `koanf:"subsystem"`
	Prefix    string `koanf:"prefix"`
	// Buckets are latency histogram bounds in milliseconds.
	Buckets         []float64         `koanf:"buckets"`
	Labels          map[string]string `koanf:"labels"`
	RefreshInterval time.Duration     `koanf:"refresh_interval"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:               "info",
		LogFormat:              "text",
		Addr:                   ":9080",
		WeeklyCapacityHours:    40,
		TopCandidates:          3,
		MaxCandidatesLimit:     100,
		UrgentDays:             3,
		LargeTaskHours:         40,
		SkillWeight:            0.4,
		AvailabilityWeight:     0.3,
		RelevanceBonus:         20,
		PriorityBonus:          10,
		PrioritySkillThreshold: 70,
		LockStripes:            256,
		DedupeSize:             50_000,
		Store: StoreConfig{
			Driver:       StoreMemory,
			TasksTable:   "taskmatch-tasks",
			WorkersTable: "taskmatch-workers",
		},
		Notify: NotifyConfig{
			Driver:      NotifyLog,
			QueueSize:   10_000,
			WorkerCount: runtime.NumCPU(),
			KafkaTopic:  "taskmatch.events",
			NATSSubject: "taskmatch.events",
		},
		Metrics: MetricsConfig{
			Enabled:         true,
			Namespace:       "taskmatch",
			Subsystem:       "allocation",
			RefreshInterval: 5 * time.Second,
		},
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return invalid("addr must not be empty")
	case c.WeeklyCapacityHours <= 0:
		return invalid("weekly_capacity_hours must be positive")
	case c.TopCandidates < 0:
		return invalid("top_candidates must not be negative")
	case c.MaxCandidatesLimit < 1:
		return invalid("max_candidates_limit must be positive")
	case c.SkillWeight < 0 || c.AvailabilityWeight < 0:
		return invalid("scoring weights must not be negative")
	case c.Notify.QueueSize < 1:
		return invalid("notify.queue_size must be positive")
	case c.Metrics.RefreshInterval <= 0:
		return invalid("metrics.refresh_interval must be positive")
	}
	for i := 1; i < len(c.Metrics.Buckets); i++ {
		if c.Metrics.Buckets[i] <= c.Metrics.Buckets[i-1] {
			return invalid("metrics.buckets must be increasing")
		}
	}

	switch strings.ToLower(c.Store.Driver) {
	case StoreMemory:
	case StoreDynamoDB:
		if c.Store.TasksTable == "" || c.Store.WorkersTable == "" {
			return invalid("store tables must be set for dynamodb")
		}
	default:
		return invalid(fmt.Sprintf("unknown store.driver %q", c.Store.Driver))
	}

	switch strings.ToLower(c.Notify.Driver) {
	case NotifyLog, NotifyNone:
	case NotifyKafka:
		if len(c.Notify.KafkaBrokers) == 0 || c.Notify.KafkaTopic == "" {
			return invalid("notify.kafka_brokers and notify.kafka_topic are required for kafka")
		}
	case NotifyNATS:
		if c.Notify.NATSSubject == "" {
			return invalid("notify.nats_subject is required for nats")
		}
	default:
		return invalid(fmt.Sprintf("unknown notify.driver %q", c.Notify.Driver))
	}
	return nil
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, msg)
}
