package whisper

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"
	"syscall"
)

// ErrorKind classifies what went wrong with a transcription attempt.
type ErrorKind string

const (
	ErrorValidation        ErrorKind = "validation"
	ErrorConnectionTimeout ErrorKind = "connection-timeout"
	ErrorReceiveTimeout    ErrorKind = "receive-timeout"
	ErrorConnection        ErrorKind = "connection-error"
	ErrorBadResponse       ErrorKind = "bad-response"
	ErrorParse             ErrorKind = "parse-error"
	ErrorUnknown           ErrorKind = "unknown"
)

// Fixed user-facing messages per failure class. The raw class tag travels
// separately in Response.Error.
var kindMessages = map[ErrorKind]string{
	ErrorConnectionTimeout: "Connection timed out. Check that the server is running.",
	ErrorReceiveTimeout:    "Server took too long to respond. Try a smaller model size.",
	ErrorConnection:        "Cannot connect to server. Check the server address and your network.",
	ErrorParse:             "Server returned an unreadable response.",
	ErrorUnknown:           "Transcription failed. Please try again.",
}

// Message returns the canned user-facing message for the kind.
func (k ErrorKind) Message() string {
	if msg, ok := kindMessages[k]; ok {
		return msg
	}
	return kindMessages[ErrorUnknown]
}

// classifyTransport buckets an error returned by the HTTP client into one
// of the transport failure kinds.
func classifyTransport(err error) ErrorKind {
	if err == nil {
		return ErrorUnknown
	}

	if isDialError(err) {
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return ErrorConnectionTimeout
		}
		return ErrorConnection
	}

	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return ErrorReceiveTimeout
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorReceiveTimeout
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH) {
		return ErrorConnection
	}

	var oe *net.OpError
	if errors.As(err, &oe) {
		return ErrorConnection
	}

	return ErrorUnknown
}

func isDialError(err error) bool {
	var oe *net.OpError
	if errors.As(err, &oe) && oe.Op == "dial" {
		return true
	}
	// url.Error wraps the transport error with the failing operation; a
	// dial timeout that never produced an OpError still mentions it.
	var ue *url.Error
	if errors.As(err, &ue) && ue.Err != nil {
		return strings.Contains(ue.Err.Error(), "dial tcp")
	}
	return false
}
