package whisper

import (
	"context"
	"errors"
	"net"
	"net/url"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyTransport(t *testing.T) {
	dialRefused := &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}
	dialTimeout := &net.OpError{Op: "dial", Net: "tcp", Err: os.ErrDeadlineExceeded}
	readTimeout := &net.OpError{Op: "read", Net: "tcp", Err: os.ErrDeadlineExceeded}
	reset := &net.OpError{Op: "read", Net: "tcp", Err: syscall.ECONNRESET}

	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"connection refused", dialRefused, ErrorConnection},
		{"wrapped connection refused", &url.Error{Op: "Post", URL: "http://x", Err: dialRefused}, ErrorConnection},
		{"dial timeout", dialTimeout, ErrorConnectionTimeout},
		{"wrapped dial timeout", &url.Error{Op: "Post", URL: "http://x", Err: dialTimeout}, ErrorConnectionTimeout},
		{"read timeout", readTimeout, ErrorReceiveTimeout},
		{"context deadline", context.DeadlineExceeded, ErrorReceiveTimeout},
		{"connection reset", reset, ErrorConnection},
		{"unrelated error", errors.New("something else"), ErrorUnknown},
		{"nil", nil, ErrorUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyTransport(tt.err))
		})
	}
}

func TestErrorKindMessages(t *testing.T) {
	// Every transport kind carries a fixed, non-empty user-facing message.
	kinds := []ErrorKind{
		ErrorConnectionTimeout,
		ErrorReceiveTimeout,
		ErrorConnection,
		ErrorParse,
		ErrorUnknown,
	}
	for _, k := range kinds {
		assert.NotEmpty(t, k.Message(), string(k))
	}

	// Kinds without a canned message fall back to the unknown text.
	assert.Equal(t, ErrorUnknown.Message(), ErrorBadResponse.Message())
}
