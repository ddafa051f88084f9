// Package smoketest drives a running intake service with generated
// questionnaire submissions and checks every verdict it returns.
package smoketest

import (
	"time"

	service "github.com/inforum/diagnostico/internal/app"
	"github.com/inforum/diagnostico/internal/domain/questionnaire"
	"github.com/inforum/diagnostico/internal/domain/scoring"
)

// Config holds configuration for the smoke run
type Config struct {
	BaseURL    string        // Base URL of the service
	Count      int           // Number of submissions to generate
	Workers    int           // Number of concurrent submitters
	Timeout    time.Duration // HTTP request timeout
	Seed       uint64        // Generator seed; 0 picks one from the clock
	OutputFile string        // Output file for generated submissions
	LogFile    string        // Log file for test output
	Verbose    bool          // Enable verbose logging
}

// Payload mirrors the POST /submit body sent by the wizard.
type Payload struct {
	Name        string  `json:"name"`
	Company     string  `json:"company,omitempty"`
	Role        string  `json:"role,omitempty"`
	Email       string  `json:"email"`
	Country     string  `json:"country,omitempty"`
	Phone       string  `json:"phone,omitempty"`
	Answers     Answers `json:"answers"`
	Score1Count int     `json:"score1Count"`
	Qualifies   bool    `json:"qualifies"`
	ResultText  string  `json:"resultText"`
}

// Answers is the answers object of a Payload.
type Answers struct {
	UTMs  map[string]string      `json:"utms,omitempty"`
	Items []questionnaire.Answer `json:"items"`
}

// Case is one generated submission with the verdict the service must return.
type Case struct {
	Payload  Payload        `json:"payload"`
	Expected scoring.Result `json:"expected"`
}

// Response is the POST /submit answer in both its success and error shapes.
type Response struct {
	OK           bool              `json:"ok"`
	Message      string            `json:"message"`
	Qualifies    bool              `json:"qualifies"`
	UI           service.UI        `json:"ui"`
	SubmissionID string            `json:"submissionId"`
	Warnings     []service.Warning `json:"warnings"`
	Error        string            `json:"error"`
}

// Result is the observed outcome of one Case.
type Result struct {
	Case     Case
	Status   int
	Response Response
	Err      error
	Latency  time.Duration
}

// Stats holds test statistics
type Stats struct {
	Generated  int
	Submitted  int
	Succeeded  int
	Rejected   int
	Failed     int
	Mismatched int
	Warnings   int
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
}
