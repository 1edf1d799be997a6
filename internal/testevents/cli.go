package testevents

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/okian/castassist/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	// Initialize the logger first
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "test_log_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the test events tool.
func ShowHelp() {
	os.Stdout.WriteString(`Castassist Event Test Tool
==========================

A concurrent tool for publishing synthetic spectator payloads to the
castassist ingest topic, including duplicates and malformed bodies.

Usage:
  go run cmd/test-events/main.go [options]

Options:
  -brokers string
        Comma-separated Kafka brokers (default "localhost:9092")
  -topic string
        Topic to publish to (default "gsi-events")
  -events int
        Number of payloads to generate and publish (default 10000)
  -viewers int
        Number of distinct viewer tokens (default 100)
  -matches int
        Number of distinct match ids (default 10)
  -workers int
        Number of concurrent publishers (default CPU cores * 2)
  -duplicates float
        Fraction of payloads repeated byte-identically (default 0.1)
  -malformed float
        Fraction of payloads corrupted before publishing (default 0.05)
  -timeout duration
        Publish and health check timeout (default 30s)
  -log string
        Log file for test output (default: test_log_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Test with default settings
  go run cmd/test-events/main.go

  # Test with custom parameters
  go run cmd/test-events/main.go -events 50000 -workers 16 -brokers kafka-1:9092,kafka-2:9092

  # Test with heavy duplication
  go run cmd/test-events/main.go -events 10000 -duplicates 0.5

  # Test with custom log file
  go run cmd/test-events/main.go -events 50000 -log my_test.log
`)
}
