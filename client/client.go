// Package client provides the HTTP client for the meeting summarizer backend.
// It handles request construction, retry logic for idempotent reads, error
// extraction from failed responses, and per-request tracing and metrics.
package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/codes"

	"github.com/YashavikaSingh/meeting-summariser/config"
	"github.com/YashavikaSingh/meeting-summariser/pkg/buildinfo"
	mserrors "github.com/YashavikaSingh/meeting-summariser/pkg/errors"
	"github.com/YashavikaSingh/meeting-summariser/pkg/logging"
)

// Default request settings.
const (
	DefaultTimeout           = 2 * time.Minute
	DefaultMaxRetries        = 2
	DefaultInitialBackoff    = 200 * time.Millisecond
	DefaultMaxBackoff        = 3 * time.Second
	DefaultBackoffMultiplier = 2.0

	// maxErrorBody caps how much of a failed response is read for its message.
	maxErrorBody = 64 << 10
)

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// Options configures the Client behavior.
type Options struct {
	// Timeout bounds a single HTTP exchange.
	Timeout time.Duration

	// MaxRetries is the number of extra attempts for retryable GET failures.
	MaxRetries int

	// InitialBackoff is the initial backoff duration for retries.
	InitialBackoff time.Duration

	// MaxBackoff is the maximum backoff duration for retries.
	MaxBackoff time.Duration

	// BackoffMultiplier is the multiplier for exponential backoff.
	BackoffMultiplier float64

	// Token, if set, is sent as a bearer token.
	Token string

	// TLSConfig is used for https backends.
	TLSConfig *tls.Config

	// HTTPClient replaces the instrumented default client.
	HTTPClient *http.Client

	Logger  logging.Logger
	Metrics *Metrics
}

// DefaultOptions returns Options with default values.
func DefaultOptions() *Options {
	return &Options{
		Timeout:           DefaultTimeout,
		MaxRetries:        DefaultMaxRetries,
		InitialBackoff:    DefaultInitialBackoff,
		MaxBackoff:        DefaultMaxBackoff,
		BackoffMultiplier: DefaultBackoffMultiplier,
	}
}

// Client talks to the summarizer backend over HTTP.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	options *Options
	logger  logging.Logger
	metrics *Metrics
	tracer  *Tracer
}

// New creates a Client for the backend at baseURL.
func New(baseURL string, opts *Options) (*Client, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid backend URL %q", baseURL)
	}

	hc := opts.HTTPClient
	if hc == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if opts.TLSConfig != nil {
			transport.TLSClientConfig = opts.TLSConfig
		}
		hc = &http.Client{
			Transport: otelhttp.NewTransport(transport),
			Timeout:   opts.Timeout,
		}
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	return &Client{
		baseURL: u,
		http:    hc,
		options: opts,
		logger:  logger.With(logging.F("backend", u.Host)),
		metrics: opts.Metrics,
		tracer:  NewTracer(),
	}, nil
}

// NewFromConfig creates a Client using CLIConfig.
// This is the canonical way to create a client from CLI commands.
func NewFromConfig(cfg *config.CLIConfig, token string, logger logging.Logger, metrics *Metrics) (*Client, error) {
	opts := DefaultOptions()
	opts.Timeout = cfg.Timeout
	opts.Token = token
	opts.Logger = logger
	opts.Metrics = metrics

	switch {
	case cfg.Insecure:
		opts.TLSConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // --insecure is explicit
	case cfg.TLS.Enabled():
		tlsConfig, err := LoadClientTLSConfig(&cfg.TLS)
		if err != nil {
			return nil, fmt.Errorf("loading TLS config: %w", err)
		}
		opts.TLSConfig = tlsConfig
	}

	return New(cfg.BackendURL, opts)
}

// BaseURL returns the configured backend URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// request describes one backend call. body is rebuilt for every attempt.
type request struct {
	op     string
	method string
	path   string
	query  url.Values
	body   func() (io.Reader, string, error)
}

func jsonBody(v any) func() (io.Reader, string, error) {
	return func() (io.Reader, string, error) {
		data, err := json.Marshal(v)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(data), "application/json", nil
	}
}

// endpoint joins the base URL with path, which is already escaped.
func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	raw := strings.TrimRight(u.EscapedPath(), "/") + path
	if unescaped, err := url.PathUnescape(raw); err == nil {
		u.Path = unescaped
		u.RawPath = raw
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// do executes r, decoding a 2xx JSON body into out when out is non-nil.
// Only GET requests are retried, and only for retryable error codes.
func (c *Client) do(ctx context.Context, r request, out any) error {
	ctx, span := c.tracer.StartRequestSpan(ctx, r.op, r.method, r.path)
	defer span.End()

	requestID := uuid.NewString()
	ctx = logging.ContextWithRequestID(ctx, requestID)
	log := c.logger.WithContext(ctx).With(logging.F("op", r.op))

	attempts := 1
	if r.method == http.MethodGet {
		attempts += c.options.MaxRetries
	}

	backoff := c.options.InitialBackoff
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		start := time.Now()
		var status int
		status, err = c.once(ctx, r, requestID, out)
		c.metrics.Observe(r.op, status, time.Since(start), err)

		if err == nil {
			log.Debug("backend request complete", logging.F("status", status), logging.F("attempt", attempt))
			span.SetStatus(codes.Ok, "")
			return nil
		}

		code := mserrors.Classify(err)
		log.Debug("backend request failed",
			logging.F("attempt", attempt),
			logging.F("code", string(code)),
			logging.Err(err),
		)

		if attempt == attempts || !mserrors.IsRetryable(code) || ctx.Err() != nil {
			break
		}

		select {
		case <-ctx.Done():
			err = &mserrors.NetworkError{Op: r.op, Err: ctx.Err()}
			c.tracer.RecordFailure(span, err)
			return err
		case <-time.After(backoff):
		}

		backoff = time.Duration(float64(backoff) * c.options.BackoffMultiplier)
		if backoff > c.options.MaxBackoff {
			backoff = c.options.MaxBackoff
		}
	}

	c.tracer.RecordFailure(span, err)
	return err
}

func (c *Client) once(ctx context.Context, r request, requestID string, out any) (int, error) {
	var (
		body        io.Reader
		contentType string
	)
	if r.body != nil {
		var err error
		body, contentType, err = r.body()
		if err != nil {
			return 0, fmt.Errorf("%s: encoding request: %w", r.op, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, r.method, c.endpoint(r.path, r.query), body)
	if err != nil {
		return 0, fmt.Errorf("%s: building request: %w", r.op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", buildinfo.UserAgent())
	req.Header.Set(RequestIDHeader, requestID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.options.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.options.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, &mserrors.NetworkError{Op: r.op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return resp.StatusCode, &mserrors.NetworkError{
			Op:         r.op,
			StatusCode: resp.StatusCode,
			Message:    extractMessage(data),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, &mserrors.DataShapeError{Op: r.op, Field: "body"}
	}
	return resp.StatusCode, nil
}

// extractMessage pulls a human-readable message out of an error body.
// FastAPI backends answer {"detail": ...}; the Flask ones {"status": "error", "message": ...}.
func extractMessage(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return ""
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, key := range []string{"detail", "message", "error"} {
			switch v := payload[key].(type) {
			case string:
				if s := strings.TrimSpace(v); s != "" {
					return s
				}
			case []any:
				// FastAPI validation errors: [{"loc": [...], "msg": "..."}]
				for _, item := range v {
					if m, ok := item.(map[string]any); ok {
						if msg, ok := m["msg"].(string); ok && msg != "" {
							return msg
						}
					}
				}
			}
		}
		return ""
	}

	text := string(body)
	if strings.HasPrefix(text, "<") || len(text) > 200 {
		return ""
	}
	return text
}
