package planner

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerationErrorMessage(t *testing.T) {
	e := &GenerationError{Reason: ReasonBackendError, Status: 502, Detail: "bad gateway"}
	assert.Equal(t, "plan generation failed: backend_error (status 502): bad gateway", e.Error())
	assert.Equal(t, "GENERATION_BACKEND_ERROR", e.Code())

	e = &GenerationError{Reason: ReasonTimeout}
	assert.Equal(t, "plan generation failed: timeout", e.Error())
	assert.Equal(t, "GENERATION_TIMEOUT", e.Code())
}

func TestGenerationErrorUnwrap(t *testing.T) {
	cause := errors.New("socket closed")
	e := &GenerationError{Reason: ReasonConnectionFailed, Err: cause}
	assert.ErrorIs(t, e, cause)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Reason
	}{
		{name: "deadline", err: fmt.Errorf("wrapped: %w", context.DeadlineExceeded), want: ReasonTimeout},
		{name: "op error", err: &net.OpError{Op: "dial", Err: errors.New("refused")}, want: ReasonConnectionFailed},
		{name: "url error", err: &url.Error{Op: "Post", URL: "http://x", Err: errors.New("refused")}, want: ReasonConnectionFailed},
		{name: "unknown", err: errors.New("something else"), want: ReasonConnectionFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.err).Reason)
		})
	}
}

func TestExcerpt(t *testing.T) {
	long := strings.Repeat("x", detailLimit+50)
	assert.Len(t, excerpt(long), detailLimit)
	assert.Equal(t, "short", excerpt("  short  "))
}
