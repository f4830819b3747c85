// Package retry provides exponential backoff retry logic for transient failures.
//
// The [Do] function retries an operation with configurable max attempts,
// initial delay, and maximum delay. [Backoff] is the underlying delay policy
// and is reused by the httpclient package for its per-request retry loop.
package retry
