// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults, Load(ctx) to layer
//   file and environment overrides on top.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"runtime"
	"time"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the operational HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// KafkaBrokers lists the seed brokers for the GSI event stream.
	KafkaBrokers []string `koanf:"kafka_brokers"`

	// KafkaTopic is the topic carrying raw GSI payloads.
	KafkaTopic string `koanf:"kafka_topic"`

	// KafkaGroupID is the consumer group id.
	KafkaGroupID string `koanf:"kafka_group_id"`

	// KafkaClientID identifies this process to the brokers.
	KafkaClientID string `koanf:"kafka_client_id"`

	// MongoURI is the document store connection string.
	MongoURI string `koanf:"mongo_uri"`

	// MongoDatabase names the database holding both collections.
	MongoDatabase string `koanf:"mongo_database"`

	// EventsCollection holds one snapshot document per viewer token.
	EventsCollection string `koanf:"events_collection"`

	// MatchesCollection holds the live match directory singleton.
	MatchesCollection string `koanf:"matches_collection"`

	// WindowSeconds sets the processing-time window length.
	WindowSeconds int `koanf:"window_seconds"`

	// EventTTLSeconds sets the sliding lifetime of a token's snapshot.
	EventTTLSeconds int `koanf:"event_ttl_seconds"`

	// QueueSize bounds the in-memory raw message queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of parse workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the payload deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// CommitConcurrency bounds parallel store writes per window.
	CommitConcurrency int `koanf:"commit_concurrency"`

	// SteamAPIKeys are rotated round-robin across directory crawls.
	SteamAPIKeys []string `koanf:"steam_api_keys"`

	// SteamPollIntervalSeconds sets the directory crawl cadence.
	SteamPollIntervalSeconds int `koanf:"steam_poll_interval_seconds"`

	// SteamRequestTimeoutSeconds bounds a single Steam Web API request.
	SteamRequestTimeoutSeconds int `koanf:"steam_request_timeout_seconds"`

	// PollerEnabled toggles the live match crawler. Disable it when another
	// instance owns the directory.
	PollerEnabled bool `koanf:"poller_enabled"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:                   "info",
		Addr:                       ":9080",
		KafkaBrokers:               []string{"localhost:9092"},
		KafkaTopic:                 "gsi-events",
		KafkaGroupID:               "castassist",
		KafkaClientID:              "castassist",
		MongoURI:                   "mongodb://localhost:27017",
		MongoDatabase:              "castassist",
		EventsCollection:           "gsi-events",
		MatchesCollection:          "live-matches",
		WindowSeconds:              3,
		EventTTLSeconds:            3600,
		QueueSize:                  100_000,
		WorkerCount:                runtime.NumCPU() * 4,
		DedupeSize:                 500_000,
		CommitConcurrency:          8,
		SteamPollIntervalSeconds:   5,
		SteamRequestTimeoutSeconds: 1,
		PollerEnabled:              true,
	}
}

// WindowDuration returns the window length as a duration.
func (c *Config) WindowDuration() time.Duration {
	return time.Duration(c.WindowSeconds) * time.Second
}

// EventTTL returns the snapshot lifetime as a duration.
func (c *Config) EventTTL() time.Duration {
	return time.Duration(c.EventTTLSeconds) * time.Second
}

// SteamPollInterval returns the crawl cadence as a duration.
func (c *Config) SteamPollInterval() time.Duration {
	return time.Duration(c.SteamPollIntervalSeconds) * time.Second
}

// SteamRequestTimeout returns the Steam request timeout as a duration.
func (c *Config) SteamRequestTimeout() time.Duration {
	return time.Duration(c.SteamRequestTimeoutSeconds) * time.Second
}
