package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/sentiview/internal/credentials"
	"github.com/wolfeidau/sentiview/internal/logger"
	"github.com/wolfeidau/sentiview/internal/telemetry"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/oauth2"
)

// Config holds common client configuration
type Config struct {
	ServerURL string
	Timeout   time.Duration

	// CacheDir holds cached report responses, one directory per token.
	// Empty keeps the cache in memory.
	CacheDir string
	NoCache  bool

	// ReadAttempts bounds attempts for idempotent analysis reads.
	ReadAttempts  uint
	RetryInterval time.Duration

	Logger  *zerolog.Logger
	Metrics *telemetry.Metrics
}

// DefaultConfig returns a default client configuration
func DefaultConfig() Config {
	return Config{
		ServerURL:     "http://localhost:8000",
		Timeout:       30 * time.Second,
		ReadAttempts:  2,
		RetryInterval: 500 * time.Millisecond,
	}
}

// Client talks to the sentiment analysis backend. It holds no credential:
// every authenticated call takes the bearer token as an argument.
type Client struct {
	baseURL *url.URL
	cfg     Config
	logger  zerolog.Logger
	metrics *telemetry.Metrics
	jar     *sessionJar
	http    *http.Client

	mu      sync.Mutex
	readers map[string]*http.Client
}

// New creates a backend client.
func New(cfg Config) (*Client, error) {
	base, err := url.Parse(cfg.ServerURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid server URL %q: scheme and host are required", cfg.ServerURL)
	}

	if cfg.ReadAttempts == 0 {
		cfg.ReadAttempts = 1
	}

	lg := log.Logger
	if cfg.Logger != nil {
		lg = *cfg.Logger
	}

	m := cfg.Metrics
	if m == nil {
		m = telemetry.GetMetrics()
	}

	// the login endpoint may set a session cookie alongside the token
	jar, err := newSessionJar()
	if err != nil {
		return nil, err
	}

	c := &Client{
		baseURL: base,
		cfg:     cfg,
		logger:  lg,
		metrics: m,
		jar:     jar,
		readers: make(map[string]*http.Client),
	}
	c.http = c.newHTTPClient(http.DefaultTransport)

	return c, nil
}

// ResetCookies forgets any cookies the backend set during this process.
func (c *Client) ResetCookies() error {
	return c.jar.Reset()
}

func (c *Client) newHTTPClient(next http.RoundTripper) *http.Client {
	return &http.Client{
		Timeout:   c.cfg.Timeout,
		Jar:       c.jar,
		Transport: otelhttp.NewTransport(logger.NewRoundTripper(c.logger, next)),
	}
}

// reader returns the HTTP client used for cacheable report reads.
// Each token gets its own cache so one user never sees another's reports.
func (c *Client) reader(token string) *http.Client {
	if c.cfg.NoCache || token == "" {
		return c.http
	}

	fp := credentials.Fingerprint(token)

	c.mu.Lock()
	defer c.mu.Unlock()

	if hc, ok := c.readers[fp]; ok {
		return hc
	}

	dir := ""
	if c.cfg.CacheDir != "" {
		dir = filepath.Join(c.cfg.CacheDir, fp)
	}

	transport, err := NewCachingTransport(dir, http.DefaultTransport)
	if err != nil {
		c.logger.Warn().Err(err).Msg("response cache unavailable, reading without cache")
		return c.http
	}

	hc := c.newHTTPClient(transport)
	c.readers[fp] = hc

	return hc
}

// APIError is returned for any non-2xx backend response.
type APIError struct {
	Op         string
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: backend returned %d %s", e.Op, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("%s: backend returned %d: %s", e.Op, e.StatusCode, e.Detail)
}

// Temporary reports whether the request may succeed if repeated.
func (e *APIError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

type call struct {
	op          string
	method      string
	path        string
	token       string
	body        io.Reader
	contentType string
	accept      string
	httpClient  *http.Client
}

func (c *Client) do(ctx context.Context, cl call) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL.JoinPath(cl.path).String(), cl.body)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create request: %w", cl.op, err)
	}

	accept := cl.accept
	if accept == "" {
		accept = "application/json"
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("X-Request-ID", uuid.NewString())
	if cl.contentType != "" {
		req.Header.Set("Content-Type", cl.contentType)
	}
	if cl.token != "" {
		(&oauth2.Token{AccessToken: cl.token, TokenType: "Bearer"}).SetAuthHeader(req)
	}

	hc := cl.httpClient
	if hc == nil {
		hc = c.http
	}

	started := time.Now()
	resp, err := hc.Do(req)
	c.metrics.RequestDuration.Record(ctx, float64(time.Since(started).Milliseconds()),
		metric.WithAttributes(attribute.String("operation", cl.op)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cl.op, err)
	}

	if err := checkResponse(cl.op, resp); err != nil {
		return nil, err
	}

	return resp, nil
}

// doJSON performs a single attempt and decodes the body into out, if out is non-nil.
func (c *Client) doJSON(ctx context.Context, cl call, out any) error {
	resp, err := c.do(ctx, cl)
	if err != nil {
		return err
	}
	return decodeJSON(cl.op, resp, out)
}

// doRead performs an idempotent read, retrying transport errors and
// temporary backend failures up to ReadAttempts in total.
func (c *Client) doRead(ctx context.Context, cl call) (*http.Response, error) {
	attempt := 0
	return backoff.Retry(ctx, func() (*http.Response, error) {
		attempt++
		if attempt > 1 {
			c.metrics.RequestRetries.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", cl.op)))
			c.logger.Debug().Str("op", cl.op).Int("attempt", attempt).Msg("retrying backend read")
		}

		resp, err := c.do(ctx, cl)
		if err == nil {
			return resp, nil
		}

		var apiErr *APIError
		if errors.As(err, &apiErr) && !apiErr.Temporary() {
			return nil, backoff.Permanent(err)
		}
		if ctx.Err() != nil {
			return nil, backoff.Permanent(err)
		}

		return nil, err
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(c.cfg.RetryInterval)),
		backoff.WithMaxTries(c.cfg.ReadAttempts),
	)
}

func checkResponse(op string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	return &APIError{
		Op:         op,
		StatusCode: resp.StatusCode,
		Detail:     errorDetail(data),
	}
}

// errorDetail extracts a displayable message from an error body.
// The backend reports errors as {"detail": "..."} or, for validation
// failures, {"detail": [{"msg": "..."}]}.
func errorDetail(data []byte) string {
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(data, &body); err != nil || len(body.Detail) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(body.Detail, &s); err == nil {
		return s
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(body.Detail, &items); err == nil && len(items) > 0 {
		return items[0].Msg
	}

	return string(body.Detail)
}

func decodeJSON(op string, resp *http.Response, out any) error {
	defer resp.Body.Close()

	if out != nil {
		// an empty body leaves out at its zero value
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("%s: failed to decode response: %w", op, err)
		}
	}

	// drain so cacheable responses are stored and the connection reused
	_, _ = io.Copy(io.Discard, resp.Body)

	return nil
}
