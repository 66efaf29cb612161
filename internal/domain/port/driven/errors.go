// Package driven defines the ports the publishing core consumes: the wire
// protocol client, the settings persister, content filters, and the manifest
// source, plus the error taxonomy shared across them.
package driven

import (
	"errors"
	"fmt"
)

// Cancellation and authentication signals. Call sites that merely want
// best-effort data catch ErrOperationCancelled and degrade to "no data";
// foreground publish paths propagate it and must not auto-retry.
var (
	// ErrOperationCancelled means the user declined an authentication prompt.
	ErrOperationCancelled = errors.New("operation cancelled by user")

	// ErrAuthenticationFailed means the protocol client rejected the
	// credentials during verification.
	ErrAuthenticationFailed = errors.New("authentication failed")
)

// ProgrammingError marks an invariant violation in calling code: a missing
// UI context scope, updates applied to a deleted account, a malformed
// account id. These fail loudly and are never recovered from.
type ProgrammingError struct {
	Reason string
}

func (e *ProgrammingError) Error() string {
	return "programming error: " + e.Reason
}

// Programmingf builds a ProgrammingError with a formatted reason.
func Programmingf(format string, args ...any) *ProgrammingError {
	return &ProgrammingError{Reason: fmt.Sprintf(format, args...)}
}

// ProviderError is a fault reported by the remote blog service. FaultCode
// and FaultString are matched against provider-configured patterns to decide
// whether an edit failed because the post id is no longer valid.
type ProviderError struct {
	FaultCode   string
	FaultString string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider fault %s: %s", e.FaultCode, e.FaultString)
}

// TransportError is a network or HTTP failure. Message holds the best-effort
// human-readable explanation extracted from the response body; when no
// response was available the constructor substitutes a generic connectivity
// message.
type TransportError struct {
	URL        string
	StatusCode int
	Message    string
	Cause      error
}

func (e *TransportError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("transport error for %s: %s", e.URL, e.Message)
	}
	return "transport error: " + e.Message
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

// NewTransportError wraps a network failure. Pass message == "" when no
// response body was available.
func NewTransportError(url string, statusCode int, message string, cause error) *TransportError {
	if message == "" {
		message = "could not connect to the blog service"
	}
	return &TransportError{URL: url, StatusCode: statusCode, Message: message, Cause: cause}
}
