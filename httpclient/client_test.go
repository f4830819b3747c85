package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gmonitor/gmonitorlib/retry"
)

// fastBackoff keeps retry tests quick.
func fastBackoff() Option {
	return WithBackoff(retry.Backoff{
		Initial:    time.Millisecond,
		Max:        5 * time.Millisecond,
		Multiplier: 2.0,
	})
}

// countingDoer fails every call with a transport error and records attempts.
type countingDoer struct {
	calls atomic.Int32
}

func (d *countingDoer) Do(_ *http.Request) (*http.Response, error) {
	d.calls.Add(1)
	return nil, errors.New("connection refused")
}

func TestDo_Success(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	client := New(WithBaseURL(server.URL), fastBackoff())
	resp, err := client.Do(context.Background(), Request{
		Path:        "/ok",
		Method:      MethodGet,
		Timeout:     time.Second,
		MaxAttempts: 3,
	})

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(1), calls.Load())

	var body struct {
		Status string `json:"status"`
	}
	require.NoError(t, resp.JSON(&body))
	assert.Equal(t, "ok", body.Status)
}

func TestDo_RetriesThenSucceeds(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := New(WithBaseURL(server.URL), fastBackoff())
	resp, err := client.Do(context.Background(), Request{
		Path:        "/ok",
		Method:      MethodGet,
		Timeout:     time.Second,
		MaxAttempts: 3,
	})

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), calls.Load())
}

func TestDo_AttemptsExhausted(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := New(WithBaseURL(server.URL), fastBackoff())
	_, err := client.Do(context.Background(), Request{
		Path:        "/down",
		Method:      MethodGet,
		Timeout:     time.Second,
		MaxAttempts: 2,
	})

	require.Error(t, err)
	var terr *TransportError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, 2, terr.Attempts)
	assert.Equal(t, http.StatusServiceUnavailable, terr.LastStatus)
	assert.Equal(t, int32(2), calls.Load())
}

func TestDo_TransportFailureExhaustsAttempts(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		maxAttempts int
	}{
		{"single attempt", 1},
		{"three attempts", 3},
		{"five attempts", 5},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			doer := &countingDoer{}
			client := New(WithHTTPClient(doer), fastBackoff())

			_, err := client.Do(context.Background(), Request{
				Path:        "http://storage.invalid/resource",
				Method:      MethodGet,
				Timeout:     time.Second,
				MaxAttempts: tt.maxAttempts,
			})

			var terr *TransportError
			require.True(t, errors.As(err, &terr))
			assert.Equal(t, tt.maxAttempts, terr.Attempts)
			assert.Zero(t, terr.LastStatus)
			assert.Equal(t, int32(tt.maxAttempts), doer.calls.Load())
		})
	}
}

func TestDo_SucceedsOnKthAttempt(t *testing.T) {
	t.Parallel()
	const succeedOn = 4

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < succeedOn {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := New(WithBaseURL(server.URL), fastBackoff())
	resp, err := client.Do(context.Background(), Request{
		Path:        "/flaky",
		Method:      MethodGet,
		Timeout:     time.Second,
		MaxAttempts: 6,
	})

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(succeedOn), calls.Load())
}

func TestDo_InvalidDescriptor(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		req  Request
	}{
		{"zero attempts", Request{Path: "/x", Timeout: time.Second, MaxAttempts: 0}},
		{"negative attempts", Request{Path: "/x", Timeout: time.Second, MaxAttempts: -1}},
		{"zero timeout", Request{Path: "/x", MaxAttempts: 1}},
		{"negative timeout", Request{Path: "/x", Timeout: -time.Second, MaxAttempts: 1}},
		{"unsupported method", Request{Path: "/x", Method: "TRACE", Timeout: time.Second, MaxAttempts: 1}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			doer := &countingDoer{}
			client := New(WithHTTPClient(doer), WithBaseURL("http://storage.invalid"))

			_, err := client.Do(context.Background(), tt.req)

			var cerr *ConfigError
			require.True(t, errors.As(err, &cerr), "expected ConfigError, got %v", err)
			assert.Zero(t, doer.calls.Load(), "no network call should be made")
		})
	}
}

func TestDo_ClientErrorIsNotRetried(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"missing"}`))
	}))
	defer server.Close()

	client := New(WithBaseURL(server.URL), fastBackoff())
	resp, err := client.Do(context.Background(), Request{
		Path:        "/missing",
		Method:      MethodGet,
		Timeout:     time.Second,
		MaxAttempts: 3,
	})

	// 4xx is a terminal response, passed through unmodified.
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.True(t, resp.IsError())
	assert.Equal(t, int32(1), calls.Load())
}

func TestDo_SuccessPredicateOverride(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := New(
		WithBaseURL(server.URL),
		fastBackoff(),
		WithSuccessPredicate(func(r *Response) bool { return r.StatusCode < 400 }),
	)
	_, err := client.Do(context.Background(), Request{
		Path:        "/throttled",
		Method:      MethodGet,
		Timeout:     time.Second,
		MaxAttempts: 2,
	})

	var terr *TransportError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, http.StatusTooManyRequests, terr.LastStatus)
	assert.Equal(t, int32(2), calls.Load())
}

func TestDo_SendsJSONBodyAndQuery(t *testing.T) {
	t.Parallel()
	type payload struct {
		Name string `json:"name"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "token-123", r.Header.Get("Authorization"))
		assert.Equal(t, "42", r.URL.Query().Get("limit"))

		var p payload
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		assert.Equal(t, "gmonitor", p.Name)

		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := New(WithBaseURL(server.URL))
	resp, err := client.Do(context.Background(), Request{
		Path:        "/items",
		Method:      MethodPost,
		Query:       map[string]string{"limit": "42"},
		Header:      map[string]string{"Authorization": "token-123"},
		Body:        payload{Name: "gmonitor"},
		Timeout:     time.Second,
		MaxAttempts: 1,
	})

	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestDo_PerAttemptTimeout(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := New(WithBaseURL(server.URL), fastBackoff())
	_, err := client.Do(context.Background(), Request{
		Path:        "/slow",
		Method:      MethodGet,
		Timeout:     20 * time.Millisecond,
		MaxAttempts: 2,
	})

	var terr *TransportError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, 2, terr.Attempts)
	assert.Equal(t, int32(2), calls.Load())
}

func TestDo_ContextCancellationStopsRetries(t *testing.T) {
	t.Parallel()
	doer := &countingDoer{}
	client := New(WithHTTPClient(doer), WithBackoff(retry.Backoff{
		Initial:    time.Second,
		Max:        time.Second,
		Multiplier: 2.0,
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Do(ctx, Request{
		Path:        "http://storage.invalid/resource",
		Method:      MethodGet,
		Timeout:     time.Second,
		MaxAttempts: 5,
	})

	var terr *TransportError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, 1, terr.Attempts)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, int32(1), doer.calls.Load())
}

func TestDo_RelativePathWithoutBaseURL(t *testing.T) {
	t.Parallel()
	doer := &countingDoer{}
	client := New(WithHTTPClient(doer))

	_, err := client.Do(context.Background(), Request{
		Path:        "/relative",
		Method:      MethodGet,
		Timeout:     time.Second,
		MaxAttempts: 1,
	})

	var cerr *ConfigError
	require.True(t, errors.As(err, &cerr))
	assert.Zero(t, doer.calls.Load())
}

func TestDo_RecordsMetrics(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	reg := prometheus.NewRegistry()
	metrics, err := NewMetrics(reg)
	require.NoError(t, err)

	client := New(WithBaseURL(server.URL), WithMetrics(metrics))
	_, err = client.Do(context.Background(), Request{
		Path:        "/ok",
		Method:      MethodGet,
		Timeout:     time.Second,
		MaxAttempts: 1,
	})
	require.NoError(t, err)

	count := testutil.ToFloat64(metrics.attempts.WithLabelValues("GET", outcomeSuccess))
	assert.Equal(t, float64(1), count)
}

func TestBuildURL(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		baseURL string
		req     Request
		want    string
		wantErr bool
	}{
		{
			name:    "path joined to base",
			baseURL: "http://api.example.com/",
			req:     Request{Path: "/v1/status"},
			want:    "http://api.example.com/v1/status",
		},
		{
			name: "absolute URL without base",
			req:  Request{Path: "http://api.example.com/v1/status"},
			want: "http://api.example.com/v1/status",
		},
		{
			name:    "query parameters encoded",
			baseURL: "http://api.example.com",
			req:     Request{Path: "/search", Query: map[string]string{"q": "a b"}},
			want:    "http://api.example.com/search?q=a+b",
		},
		{
			name:    "relative path without base",
			req:     Request{Path: "/v1/status"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var opts []Option
			if tt.baseURL != "" {
				opts = append(opts, WithBaseURL(tt.baseURL))
			}
			got, err := New(opts...).buildURL(tt.req)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
