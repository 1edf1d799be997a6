package testevents

import "time"

// Config holds configuration for the event generator.
type Config struct {
	Brokers        []string      // Kafka seed brokers
	Topic          string        // Topic to publish raw payloads to
	NumEvents      int           // Number of payloads to generate
	Viewers        int           // Number of distinct viewer tokens
	Matches        int           // Number of distinct match ids
	Workers        int           // Number of concurrent publishers
	DuplicateRatio float64       // Fraction of payloads repeated byte-identically
	MalformedRatio float64       // Fraction of payloads corrupted before publishing
	Timeout        time.Duration // Per-publish timeout
	LogFile        string        // Log file for test output
	Verbose        bool          // Enable verbose logging
}

// Stats holds generator statistics.
type Stats struct {
	EventsGenerated int
	EventsPublished int
	EventsFailed    int
	DuplicatesAdded int
	MalformedAdded  int
	StartTime       time.Time
	EndTime         time.Time
	Duration        time.Duration
}
