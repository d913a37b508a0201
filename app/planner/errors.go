package planner

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Reason classifies a generation failure.
type Reason string

const (
	// ReasonNotConfigured means the backend credential is missing.
	ReasonNotConfigured Reason = "not_configured"
	// ReasonTimeout means the backend did not answer within the deadline.
	ReasonTimeout Reason = "timeout"
	// ReasonConnectionFailed means the backend could not be reached.
	ReasonConnectionFailed Reason = "connection_failed"
	// ReasonBackendError means the backend answered with a non-2xx status.
	ReasonBackendError Reason = "backend_error"
	// ReasonEmptyResponse means the backend answered without any text.
	ReasonEmptyResponse Reason = "empty_response"
)

// ErrFeedbackRequired rejects edit requests whose feedback text is empty or
// the bare "+" sentinel. No backend call is made in that case.
var ErrFeedbackRequired = errors.New("planner: concrete feedback text required")

// GenerationError describes why a plan could not be generated. It is
// recoverable: callers surface it to the chat and never retry automatically.
type GenerationError struct {
	Reason Reason
	Status int
	Detail string
	Err    error
}

func (e *GenerationError) Error() string {
	var b strings.Builder
	b.WriteString("plan generation failed: ")
	b.WriteString(string(e.Reason))
	if e.Status != 0 {
		fmt.Fprintf(&b, " (status %d)", e.Status)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	return b.String()
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Code identifies the error class for handler summary logging.
func (e *GenerationError) Code() string {
	return "GENERATION_" + strings.ToUpper(string(e.Reason))
}

const detailLimit = 200

func excerpt(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > detailLimit {
		return s[:detailLimit]
	}
	return s
}

// classify maps a transport error onto the generation taxonomy.
func classify(err error) *GenerationError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &GenerationError{Reason: ReasonTimeout, Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &GenerationError{Reason: ReasonTimeout, Err: err}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return &GenerationError{Reason: ReasonConnectionFailed, Err: err}
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return &GenerationError{Reason: ReasonTimeout, Err: err}
		}
		return &GenerationError{Reason: ReasonConnectionFailed, Err: err}
	}

	return &GenerationError{Reason: ReasonConnectionFailed, Detail: excerpt(err.Error()), Err: err}
}
