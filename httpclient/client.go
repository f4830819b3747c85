package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/gmonitor/gmonitorlib/retry"
)

// Doer executes a single HTTP request. The standard *http.Client satisfies
// this interface; tests supply their own implementation.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client issues logical HTTP requests with bounded retries.
type Client struct {
	baseURL string
	doer    Doer
	log     logr.Logger
	backoff retry.Backoff
	success func(*Response) bool
	metrics *Metrics
}

// Option is a functional option for client configuration.
type Option func(*Client)

// WithBaseURL sets the base URL that request paths are resolved against.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient sets the underlying transport. Defaults to http.DefaultClient.
func WithHTTPClient(d Doer) Option {
	return func(c *Client) {
		c.doer = d
	}
}

// WithLogger sets the logger. Defaults to logr.Discard().
func WithLogger(l logr.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

// WithBackoff sets the delay policy between attempts.
func WithBackoff(b retry.Backoff) Option {
	return func(c *Client) {
		c.backoff = b
	}
}

// WithSuccessPredicate overrides what counts as a terminal response.
// The default accepts any response with a status below 500.
func WithSuccessPredicate(f func(*Response) bool) Option {
	return func(c *Client) {
		c.success = f
	}
}

// WithMetrics attaches request metrics to the client.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// New creates a client. The zero configuration uses http.DefaultClient, no
// base URL, the default backoff policy, and a discarding logger.
func New(opts ...Option) *Client {
	c := &Client{
		doer:    http.DefaultClient,
		log:     logr.Discard(),
		backoff: retry.DefaultBackoff(),
		success: defaultSuccess,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// defaultSuccess treats any response the server produced without a 5xx
// status as terminal. 4xx responses are returned to the caller unmodified.
func defaultSuccess(r *Response) bool {
	return r.StatusCode < 500
}

// Do issues the request described by req. It makes up to req.MaxAttempts
// physical attempts, each bounded by req.Timeout, sleeping with exponential
// backoff between failures. The first successful response is returned
// immediately; once attempts are exhausted the last failure is surfaced as a
// *TransportError.
//
// An invalid descriptor returns a *ConfigError before any network call.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	target, err := c.buildURL(req)
	if err != nil {
		return nil, err
	}

	var body []byte
	if req.Body != nil {
		body, err = json.Marshal(req.Body)
		if err != nil {
			return nil, &ConfigError{Field: "Body", Reason: fmt.Sprintf("not JSON-encodable: %v", err)}
		}
	}

	log := c.log.WithValues(
		"request_id", uuid.NewString()[:8],
		"method", string(req.method()),
		"url", target,
	)

	var (
		lastErr    error
		lastStatus int
		attempts   int
	)

	for attempt := 1; attempt <= req.MaxAttempts; attempt++ {
		attempts = attempt

		start := time.Now()
		resp, err := c.attempt(ctx, req, target, body)
		elapsed := time.Since(start)

		if err == nil && c.success(resp) {
			c.metrics.observe(req.method(), true, elapsed)
			log.V(1).Info("request succeeded", "attempt", attempt, "status", resp.StatusCode)
			return resp, nil
		}
		c.metrics.observe(req.method(), false, elapsed)

		if err != nil {
			lastErr = err
			lastStatus = 0
		} else {
			lastErr = fmt.Errorf("server returned status %d", resp.StatusCode)
			lastStatus = resp.StatusCode
		}

		if retry.IsFatal(lastErr) || attempt == req.MaxAttempts {
			break
		}

		delay := c.backoff.Delay(attempt)
		log.V(1).Info("attempt failed, retrying",
			"attempt", attempt, "delay", delay.String(), "error", lastErr.Error())

		select {
		case <-ctx.Done():
			return nil, &TransportError{Attempts: attempts, LastStatus: lastStatus, Err: ctx.Err()}
		case <-time.After(delay):
		}
	}

	log.Info("request failed", "attempts", attempts, "error", lastErr.Error())
	return nil, &TransportError{Attempts: attempts, LastStatus: lastStatus, Err: lastErr}
}

// attempt performs one physical network call bounded by the per-attempt
// timeout and drains the response body so the connection can be reused.
func (c *Client) attempt(ctx context.Context, req Request, target string, body []byte) (*Response, error) {
	actx, cancel := context.WithTimeout(ctx, req.Timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	hreq, err := http.NewRequestWithContext(actx, string(req.method()), target, reader)
	if err != nil {
		// Malformed requests cannot succeed on retry.
		return nil, retry.Fatal(err)
	}
	if body != nil {
		hreq.Header.Set("Content-Type", "application/json")
	}
	for k, v := range req.Header {
		hreq.Header.Set(k, v)
	}

	hresp, err := c.doer.Do(hreq)
	if err != nil {
		return nil, err
	}
	defer hresp.Body.Close()

	b, err := io.ReadAll(hresp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{
		StatusCode: hresp.StatusCode,
		Header:     hresp.Header,
		Body:       b,
	}, nil
}

func (c *Client) buildURL(req Request) (string, error) {
	raw := req.Path
	if c.baseURL != "" {
		raw = c.baseURL + "/" + strings.TrimLeft(req.Path, "/")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", &ConfigError{Field: "Path", Reason: err.Error()}
	}
	if u.Scheme == "" || u.Host == "" {
		return "", &ConfigError{Field: "Path", Reason: "not an absolute URL and no base URL configured"}
	}

	if len(req.Query) > 0 {
		q := u.Query()
		for k, v := range req.Query {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}

	return u.String(), nil
}
