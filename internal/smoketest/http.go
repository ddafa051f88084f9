package smoketest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/inforum/diagnostico/internal/domain/questionnaire"
	"github.com/inforum/diagnostico/pkg/logger"
)

const maxResponseBytes = 1 << 20

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client *http.Client
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{client: &http.Client{Timeout: timeout}}
}

// Get performs a GET request
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with JSON body
func (c *HTTPClient) Post(ctx context.Context, url string, body any) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// readResponseBody reads and closes the response body
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer func() { _ = resp.Body.Close() }()
	return io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
}

// fetchQuestions loads the catalog the service is currently serving.
func fetchQuestions(ctx context.Context, config *Config) ([]questionnaire.Question, error) {
	client := newHTTPClient(config.Timeout)
	resp, err := client.Get(ctx, config.BaseURL+"/questions")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch questions: %w", err)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read questions: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("questions returned status: %d", resp.StatusCode)
	}
	var out struct {
		Questions []questionnaire.Question `json:"questions"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode questions: %w", err)
	}
	if len(out.Questions) == 0 {
		return nil, fmt.Errorf("service returned an empty catalog")
	}
	return out.Questions, nil
}

// submitCases posts cases with at most config.Workers in flight and
// returns one Result per case, in case order.
func submitCases(ctx context.Context, config *Config, cases []Case, stats *Stats) []Result {
	logger.Get().Info(ctx, "submitting cases",
		logger.Int("count", len(cases)),
		logger.Int("workers", config.Workers))

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/submit"
	results := make([]Result, len(cases))

	var submitted atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(config.Workers, 1))
	for i := range cases {
		g.Go(func() error {
			results[i] = submitSingleCase(gctx, client, url, cases[i])
			n := submitted.Add(1)
			if config.Verbose {
				logger.Get().Debug(gctx, "submission done",
					logger.Int64("n", n),
					logger.Int("status", results[i].Status),
					logger.String("latency", results[i].Latency.String()))
			}
			return nil
		})
	}
	_ = g.Wait()

	stats.Submitted = int(submitted.Load())
	return results
}

// submitSingleCase posts one case and records what came back.
func submitSingleCase(ctx context.Context, client *HTTPClient, url string, c Case) Result {
	res := Result{Case: c}
	start := time.Now()

	resp, err := client.Post(ctx, url, c.Payload)
	if err != nil {
		res.Err = err
		res.Latency = time.Since(start)
		return res
	}
	res.Status = resp.StatusCode
	body, err := readResponseBody(resp)
	if err != nil {
		res.Err = err
	} else if err := json.Unmarshal(body, &res.Response); err != nil {
		res.Err = fmt.Errorf("decode response: %w", err)
	}
	res.Latency = time.Since(start)
	return res
}
