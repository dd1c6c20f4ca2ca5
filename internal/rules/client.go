// Package rules is the HTTP client for the remote constraint service and
// template catalog.
package rules

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/mark3labs/remindr/internal/logger"
	"github.com/mark3labs/remindr/internal/reminder"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultRateLimit = 10.0
	defaultBurst     = 5

	// maxBodySize bounds the response body read from the service.
	maxBodySize = 4 << 20

	// RequestIDHeader carries the correlation id of a fetch.
	RequestIDHeader = "X-Request-ID"
)

// NetworkError reports a failed fetch: transport failure, non-2xx status, or a
// body with success=false.
type NetworkError struct {
	Op     string // "constraints" or "templates"
	URL    string
	Status int // HTTP status, 0 on transport failure
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetching %s: %s returned %d: %v", e.Op, e.URL, e.Status, e.Err)
	}
	return fmt.Sprintf("fetching %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ErrUnsuccessful is wrapped by NetworkError when the service answers
// success=false.
var ErrUnsuccessful = errors.New("service reported failure")

// ConstraintsQuery selects the constraints for a channel.
type ConstraintsQuery struct {
	Channel     reminder.Channel
	DaysOverdue int
	Recipients  int
}

// TemplatesQuery selects catalog templates for a (channel, level) pair.
type TemplatesQuery struct {
	Channel   reminder.Channel
	Level     reminder.Level
	SubjectID string
	// ValidateConstraints asks the catalog to attach conformance data and
	// filter by level.
	ValidateConstraints bool
}

// Options configures a Client.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	RateLimit  float64 // requests per second, 0 means default
	HTTPClient *http.Client
}

// Client fetches constraints and templates from the rule service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a client for the service at opts.BaseURL.
func NewClient(opts Options) (*Client, error) {
	u, err := url.Parse(opts.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid service URL %q", opts.BaseURL)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := defaultTimeout
		if opts.Timeout > 0 {
			timeout = opts.Timeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	limit := defaultRateLimit
	if opts.RateLimit > 0 {
		limit = opts.RateLimit
	}

	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Limit(limit), defaultBurst),
	}, nil
}

type constraintsResponse struct {
	Success     bool                  `json:"success"`
	Error       string                `json:"error,omitempty"`
	Constraints *reminder.Constraints `json:"constraints"`
}

type templatesResponse struct {
	Success   bool                `json:"success"`
	Error     string              `json:"error,omitempty"`
	Templates []reminder.Template `json:"templates"`
}

// Constraints fetches the structural constraints for q.Channel.
func (c *Client) Constraints(ctx context.Context, q ConstraintsQuery) (*reminder.Constraints, error) {
	params := url.Values{}
	params.Set("channel", string(q.Channel))
	if q.DaysOverdue > 0 {
		params.Set("days_overdue", strconv.Itoa(q.DaysOverdue))
	}
	if q.Recipients > 0 {
		params.Set("recipients", strconv.Itoa(q.Recipients))
	}

	var resp constraintsResponse
	if err := c.get(ctx, "constraints", "/api/constraints", params, &resp); err != nil {
		return nil, err
	}
	if !resp.Success || resp.Constraints == nil {
		return nil, c.unsuccessful("constraints", "/api/constraints", resp.Error)
	}

	cons := resp.Constraints
	if cons.Channel == reminder.ChannelNone {
		cons.Channel = q.Channel
	}
	if cons.Subject == "" {
		cons.Subject = reminder.SubjectNotApplicable
	}
	if err := cons.Validate(); err != nil {
		return nil, &NetworkError{Op: "constraints", URL: c.baseURL + "/api/constraints", Err: err}
	}
	return cons, nil
}

// Templates fetches the catalog templates for q, in catalog order.
func (c *Client) Templates(ctx context.Context, q TemplatesQuery) ([]reminder.Template, error) {
	params := url.Values{}
	params.Set("channel", string(q.Channel))
	params.Set("level", strconv.Itoa(int(q.Level)))
	if q.SubjectID != "" {
		params.Set("subject_id", q.SubjectID)
	}
	if q.ValidateConstraints {
		params.Set("validate_constraints", "true")
	}

	var resp templatesResponse
	if err := c.get(ctx, "templates", "/api/templates", params, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, c.unsuccessful("templates", "/api/templates", resp.Error)
	}

	for i := range resp.Templates {
		resp.Templates[i].Normalize()
	}
	return resp.Templates, nil
}

func (c *Client) unsuccessful(op, path, msg string) error {
	err := ErrUnsuccessful
	if msg != "" {
		err = fmt.Errorf("%w: %s", ErrUnsuccessful, msg)
	}
	return &NetworkError{Op: op, URL: c.baseURL + path, Err: err}
}

// get performs a rate-limited GET and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, op, path string, params url.Values, out any) error {
	endpoint := c.baseURL + path
	if err := c.limiter.Wait(ctx); err != nil {
		return &NetworkError{Op: op, URL: endpoint, Err: err}
	}

	reqURL := endpoint + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return &NetworkError{Op: op, URL: endpoint, Err: err}
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)

	logger.Debug("GET %s [%s]", reqURL, requestID)
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Op: op, URL: endpoint, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return &NetworkError{Op: op, URL: endpoint, Status: resp.StatusCode, Err: fmt.Errorf("reading body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &NetworkError{Op: op, URL: endpoint, Status: resp.StatusCode, Err: errors.New(strings.TrimSpace(string(body)))}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &NetworkError{Op: op, URL: endpoint, Status: resp.StatusCode, Err: fmt.Errorf("decoding body: %w", err)}
	}

	logger.Debug("GET %s [%s] done in %s", path, requestID, time.Since(start))
	return nil
}
