package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/tolgaeren/swish/internal/drill"
)

// Default configuration constants.
const (
	defaultShots     = 200
	defaultStep      = 0.05
	defaultDistances = "2.0,4.6,7.0,14.3"
	defaultTopN      = 20
	defaultTimeout   = 30 * time.Second
	defaultRunLimit  = 10 * time.Minute
)

func main() {
	var (
		baseURL     = flag.String("url", "", "Base URL of a running service; empty runs the sweep offline")
		shots       = flag.Int("shots", defaultShots, "Cap on total shots across the sweep grid")
		step        = flag.Float64("step", defaultStep, "Meter progress step between release targets")
		distances   = flag.String("distances", defaultDistances, "Comma-separated shot distances from the rim in meters")
		presetsFile = flag.String("presets", "", "YAML file of named difficulty presets")
		preset      = flag.String("preset", "", "Preset name to apply from the presets file")
		topN        = flag.Int("top", defaultTopN, "Number of top entries to fetch from leaderboard")
		workers     = flag.Int("workers", runtime.NumCPU(), "Number of concurrent sweep workers")
		timeout     = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		outputFile  = flag.String("output", "", "Output file for shot outcomes (default: drill_outcomes_TIMESTAMP.json)")
		logFile     = flag.String("log", "", "Log file for drill output (default: drill_log_TIMESTAMP.log)")
		verbose     = flag.Bool("verbose", false, "Enable verbose logging")
		help        = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		drill.ShowHelp()
		return
	}

	if err := drill.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	parsed, err := drill.ParseDistances(*distances)
	if err != nil {
		os.Stderr.WriteString("Invalid distances: " + err.Error() + "\n")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunLimit)
	defer cancel()

	config := &drill.Config{
		BaseURL:     *baseURL,
		Shots:       *shots,
		Step:        *step,
		Distances:   parsed,
		PresetsFile: *presetsFile,
		Preset:      *preset,
		TopN:        *topN,
		Workers:     *workers,
		Timeout:     *timeout,
		OutputFile:  *outputFile,
		LogFile:     *logFile,
		Verbose:     *verbose,
	}

	if err := drill.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Drill failed: " + err.Error() + "\n")
		return
	}
}
