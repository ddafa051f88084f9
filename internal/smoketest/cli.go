package smoketest

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/inforum/diagnostico/pkg/logger"
)

// SetupLogging configures logging to both console and file and returns a
// function that closes the file. If logFile is empty, a timestamped
// filename is generated.
func SetupLogging(logFile string, verbose bool) (func() error, error) {
	if logFile == "" {
		logFile = "smoke_log_" + time.Now().Format("20060102_150405") + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, filePermission)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	if err := logger.InitWithWriter(io.MultiWriter(os.Stdout, file), logger.FormatText); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return file.Close, nil
}

// ShowHelp prints usage information for the smoke tool.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`Diagnóstico Submission Smoke Tool
=================================

Generates valid questionnaire submissions, posts them to a running service
and checks every verdict against the scoring rules.

Note: every submission reaches the configured CRM and SMTP server. Point
the service at a sandbox before running this.

Usage:
  go run ./cmd/submit-smoke [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -count int
        Number of submissions to generate and post (default 20)
  -workers int
        Number of concurrent submitters (default 4)
  -timeout duration
        HTTP request timeout (default 90s)
  -seed uint
        Generator seed, 0 for a random one (default 0)
  -output string
        Output file for generated submissions (default: none)
  -log string
        Log file for test output (default: smoke_log_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Five submissions against a local service
  go run ./cmd/submit-smoke -count 5

  # Reproducible run saved to disk
  go run ./cmd/submit-smoke -seed 42 -output smoke/cases.json
`)
}
