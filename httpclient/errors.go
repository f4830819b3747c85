package httpclient

import "fmt"

// TransportError is returned when all attempts for a request are exhausted.
// It records how many attempts were made and wraps the last underlying
// failure. LastStatus is non-zero when the final attempt reached the server
// but returned a retryable status.
type TransportError struct {
	Attempts   int
	LastStatus int
	Err        error
}

func (e *TransportError) Error() string {
	if e.LastStatus != 0 {
		return fmt.Sprintf("request failed after %d attempts (last status %d): %v", e.Attempts, e.LastStatus, e.Err)
	}
	return fmt.Sprintf("request failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ConfigError indicates an invalid request descriptor or client
// configuration. No network call is made when it is returned.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid request configuration: %s: %s", e.Field, e.Reason)
}
