package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/okian/castassist/internal/testevents"
)

// Default configuration constants.
const (
	defaultNumEvents      = 10000
	defaultViewers        = 100
	defaultMatches        = 10
	defaultWorkers        = 2 // multiplier for runtime.NumCPU()
	defaultDuplicateRatio = 0.1
	defaultMalformedRatio = 0.05
	defaultTimeout        = 30 * time.Second
	defaultTestTimeout    = 10 * time.Minute
)

func main() {
	var (
		brokers    = flag.String("brokers", "localhost:9092", "Comma-separated Kafka brokers")
		topic      = flag.String("topic", "gsi-events", "Topic to publish to")
		numEvents  = flag.Int("events", defaultNumEvents, "Number of payloads to generate and publish")
		viewers    = flag.Int("viewers", defaultViewers, "Number of distinct viewer tokens")
		matches    = flag.Int("matches", defaultMatches, "Number of distinct match ids")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent publishers")
		duplicates = flag.Float64("duplicates", defaultDuplicateRatio, "Fraction of payloads repeated byte-identically")
		malformed  = flag.Float64("malformed", defaultMalformedRatio, "Fraction of payloads corrupted before publishing")
		timeout    = flag.Duration("timeout", defaultTimeout, "Publish and health check timeout")
		logFile    = flag.String("log", "", "Log file for test output (default: test_log_TIMESTAMP.log)")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		testevents.ShowHelp()
		return
	}

	// Setup logging
	if err := testevents.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	// Create test configuration
	config := &testevents.Config{
		Brokers:        strings.Split(*brokers, ","),
		Topic:          *topic,
		NumEvents:      *numEvents,
		Viewers:        *viewers,
		Matches:        *matches,
		Workers:        *workers,
		DuplicateRatio: *duplicates,
		MalformedRatio: *malformed,
		Timeout:        *timeout,
		LogFile:        *logFile,
		Verbose:        *verbose,
	}

	// Run the test
	if err := testevents.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Test failed: " + err.Error() + "\n")
		return
	}
}
