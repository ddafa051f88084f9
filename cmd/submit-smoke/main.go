package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/inforum/diagnostico/internal/smoketest"
)

// Default configuration constants.
const (
	defaultCount       = 20
	defaultWorkers     = 4
	defaultTimeout     = 90 * time.Second
	defaultTestTimeout = 15 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:9080", "Base URL of the service")
		count      = flag.Int("count", defaultCount, "Number of submissions to generate and post")
		workers    = flag.Int("workers", defaultWorkers, "Number of concurrent submitters")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		seed       = flag.Uint64("seed", 0, "Generator seed, 0 for a random one")
		outputFile = flag.String("output", "", "Output file for generated submissions")
		logFile    = flag.String("log", "", "Log file for test output (default: smoke_log_TIMESTAMP.log)")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		smoketest.ShowHelp()
		return
	}

	closeLog, err := smoketest.SetupLogging(*logFile, *verbose)
	if err != nil {
		_, _ = os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)

	config := &smoketest.Config{
		BaseURL:    *baseURL,
		Count:      *count,
		Workers:    *workers,
		Timeout:    *timeout,
		Seed:       *seed,
		OutputFile: *outputFile,
		LogFile:    *logFile,
		Verbose:    *verbose,
	}

	_, runErr := smoketest.Run(ctx, config)
	cancel()
	_ = closeLog()
	if runErr != nil {
		_, _ = os.Stderr.WriteString("Smoke run failed: " + runErr.Error() + "\n")
		os.Exit(1)
	}
}
