package drill

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/tolgaeren/swish/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "drill_log_" + timestamp + ".log"
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

// ShowHelp prints usage information for the accuracy drill.
func ShowHelp() {
	os.Stdout.WriteString(`Swish Accuracy Drill
====================

A headless sweep over release timings and shot distances: every shot is
simulated frame by frame through the full session loop, tallied into an
accuracy table, and optionally submitted to a running service to exercise
its results pipeline and leaderboard.

Usage:
  go run cmd/drill/main.go [options]

Options:
  -url string
        Base URL of a running service; empty runs the sweep offline
  -shots int
        Cap on total shots across the sweep grid (default 200)
  -step float
        Meter progress step between release targets (default 0.05)
  -distances string
        Comma-separated shot distances from the rim in meters
        (default "2.0,4.6,7.0,14.3")
  -presets string
        YAML file of named difficulty presets
  -preset string
        Preset name to apply from the presets file
  -top int
        Number of top entries to fetch from leaderboard (default 20)
  -workers int
        Number of concurrent sweep workers (default CPU cores)
  -timeout duration
        HTTP request timeout (default 30s)
  -output string
        Output file for shot outcomes (default: drill_outcomes_TIMESTAMP.json)
  -log string
        Log file for drill output (default: drill_log_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Offline sweep with default settings
  go run cmd/drill/main.go

  # Fine-grained sweep against a local service
  go run cmd/drill/main.go -url http://localhost:9080 -step 0.01

  # Free throws only, on the rookie difficulty preset
  go run cmd/drill/main.go -distances 4.6 -presets presets.yaml -preset rookie

  # Verbose sweep with a custom outcome file
  go run cmd/drill/main.go -verbose -output sweep.json
`)
}
