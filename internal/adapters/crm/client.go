// Package crm is a thin Pipedrive REST client covering the person,
// organization, deal and note records written for each submission.
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/inforum/diagnostico/pkg/logger"
	"github.com/inforum/diagnostico/pkg/metrics"
)

const (
	defaultTimeout  = 10 * time.Second
	defaultCurrency = "GTQ"
	// maxBodyBytes bounds how much of a CRM response is read.
	maxBodyBytes = 1 << 20
)

// Response is a raw CRM answer.
type Response struct {
	Status int
	Body   []byte
}

// Decode parses the body as JSON into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode crm response: %w", err)
	}
	return nil
}

// Text returns the body as text.
func (r *Response) Text() string { return string(r.Body) }

// Client talks to one Pipedrive company account. It is safe for concurrent
// use; all fields are read-only after New.
type Client struct {
	baseURL   string
	token     string
	http      *http.Client
	timeout   time.Duration
	roleField string
	currency  string
	logger    logger.Logger
}

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds every call, on top of the caller's deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithPersonRoleField sets the custom person field that stores the role.
func WithPersonRoleField(key string) Option {
	return func(c *Client) {
		c.roleField = strings.TrimSpace(key)
	}
}

// WithCurrency sets the currency of created deals.
func WithCurrency(code string) Option {
	return func(c *Client) {
		if code != "" {
			c.currency = code
		}
	}
}

// WithLogger sets a custom logger for the client.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a client for the API root baseURL, e.g.
// https://acme.pipedrive.com/api/v1.
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		token:    token,
		http:     &http.Client{},
		timeout:  defaultTimeout,
		currency: defaultCurrency,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logger.Get().Named("crm")
	}
	return c
}

// Call performs one API request. path is relative to the API root and may
// carry a query string; the API token is appended as a query parameter.
// body, when non-nil, is sent as JSON.
func (c *Client) Call(ctx context.Context, method, path string, body any) (*Response, error) {
	if c.baseURL == "" {
		return nil, &TransportError{Method: method, Path: path, Err: ErrNotConfigured}
	}
	start := time.Now()
	op := operation(method, path)

	resp, err := c.do(ctx, method, path, body)

	outcome := "ok"
	switch {
	case err == nil:
	case resp != nil:
		outcome = "upstream_error"
	default:
		outcome = "transport_error"
	}
	metrics.RecordCRMRequest(op, outcome, float64(time.Since(start).Nanoseconds())/1e6)

	if err != nil {
		c.logger.Debug(ctx, "crm call failed",
			logger.String("method", method),
			logger.String("operation", op),
			logger.Error(err))
		return nil, err
	}
	return resp, nil
}

// do returns a non-nil Response alongside an UpstreamError.
func (c *Client) do(ctx context.Context, method, path string, body any) (*Response, error) {
	target, err := c.url(path)
	if err != nil {
		return nil, &TransportError{Method: method, Path: path, Err: err}
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, &TransportError{Method: method, Path: path, Err: fmt.Errorf("encode body: %w", err)}
		}
		reader = bytes.NewReader(buf)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, &TransportError{Method: method, Path: path, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Method: method, Path: path, Err: stripURL(err)}
	}
	defer func() { _ = res.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return nil, &TransportError{Method: method, Path: path, Err: fmt.Errorf("read body: %w", err)}
	}

	out := &Response{Status: res.StatusCode, Body: raw}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return out, &UpstreamError{Method: method, Path: path, Status: res.StatusCode, Body: string(raw)}
	}
	return out, nil
}

// stripURL drops the *url.Error wrapper, whose text carries the full
// request URL and with it the api_token query parameter.
func stripURL(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return ue.Err
	}
	return err
}

func (c *Client) url(path string) (string, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	q := u.Query()
	q.Set("api_token", c.token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// operation names a call for metrics, e.g. "post_deals" or "get_persons_search".
func operation(method, path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	parts := []string{strings.ToLower(method)}
	for _, seg := range strings.Split(strings.Trim(path, "/"), "/") {
		if seg == "" || isNumeric(seg) {
			continue
		}
		parts = append(parts, seg)
	}
	return strings.Join(parts, "_")
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// envelope is the common Pipedrive response shape.
type envelope[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
}

type record struct {
	ID int64 `json:"id"`
}

type searchResult struct {
	Items []struct {
		Item record `json:"item"`
	} `json:"items"`
}

// search runs an exact-match search and returns the first id, or 0.
func (c *Client) search(ctx context.Context, entity string, params url.Values) (int64, error) {
	params.Set("exact_match", "true")
	resp, err := c.Call(ctx, http.MethodGet, "/"+entity+"/search?"+params.Encode(), nil)
	if err != nil {
		return 0, err
	}
	var out envelope[searchResult]
	if err := resp.Decode(&out); err != nil {
		return 0, err
	}
	if len(out.Data.Items) == 0 {
		return 0, nil
	}
	return out.Data.Items[0].Item.ID, nil
}

// create posts body and returns the new record id.
func (c *Client) create(ctx context.Context, entity string, body any) (int64, error) {
	resp, err := c.Call(ctx, http.MethodPost, "/"+entity, body)
	if err != nil {
		return 0, err
	}
	var out envelope[record]
	if err := resp.Decode(&out); err != nil {
		return 0, err
	}
	if out.Data.ID == 0 {
		return 0, fmt.Errorf("%w: POST /%s", ErrNoID, entity)
	}
	return out.Data.ID, nil
}
