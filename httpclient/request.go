package httpclient

import (
	"net/http"
	"time"
)

// Method is an HTTP request method.
type Method string

// Methods supported by the client.
const (
	MethodGet    Method = http.MethodGet
	MethodPost   Method = http.MethodPost
	MethodPut    Method = http.MethodPut
	MethodPatch  Method = http.MethodPatch
	MethodDelete Method = http.MethodDelete
)

// Request describes one logical HTTP request. It is treated as immutable
// once passed to Do.
type Request struct {
	// Path is resolved against the client's base URL. It may also be an
	// absolute URL when no base URL is configured.
	Path string

	// Method is the HTTP method. Defaults to GET when empty.
	Method Method

	// Query parameters appended to the URL.
	Query map[string]string

	// Header entries set on every attempt.
	Header map[string]string

	// Body, when non-nil, is JSON-encoded and sent with a
	// Content-Type: application/json header.
	Body any

	// Timeout bounds each individual attempt. Required, must be positive.
	Timeout time.Duration

	// MaxAttempts is the total number of attempts, including the first.
	// Must be at least 1; 1 means no retry.
	MaxAttempts int
}

func (r Request) validate() error {
	if r.MaxAttempts < 1 {
		return &ConfigError{Field: "MaxAttempts", Reason: "must be at least 1"}
	}
	if r.Timeout <= 0 {
		return &ConfigError{Field: "Timeout", Reason: "must be positive"}
	}
	switch r.Method {
	case "", MethodGet, MethodPost, MethodPut, MethodPatch, MethodDelete:
	default:
		return &ConfigError{Field: "Method", Reason: "unsupported method " + string(r.Method)}
	}
	return nil
}

func (r Request) method() Method {
	if r.Method == "" {
		return MethodGet
	}
	return r.Method
}
