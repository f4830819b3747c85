// Package httpclient provides a small resilient HTTP request helper.
//
// A [Request] describes one logical request: path, method, query parameters,
// optional JSON body, a per-attempt timeout, and a bounded number of
// attempts. [Client.Do] issues the request, retrying transient failures with
// exponential backoff and jitter, and returns the first successful response
// or a [TransportError] wrapping the last failure.
//
// A Client is immutable after construction and safe for concurrent use;
// each Do call has exactly one request in flight at a time.
package httpclient
