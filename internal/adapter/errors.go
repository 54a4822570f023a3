// Package adapter wraps each external AI dependency behind a uniform
// request/result contract. Adapters perform exactly one remote flow per
// call, never retry, and never touch product state. Every failure is an
// *Error classified into one of four kinds.
package adapter

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Kind categorizes an adapter failure.
type Kind int

const (
	// Unreachable indicates the remote could not be contacted.
	Unreachable Kind = iota
	// RejectedByRemote indicates the remote answered with a non-success status.
	RejectedByRemote
	// Timeout indicates the bounded wait for the remote elapsed.
	Timeout
	// MalformedResponse indicates the remote answered with an unusable payload.
	MalformedResponse
)

func (k Kind) String() string {
	switch k {
	case Unreachable:
		return "Unreachable"
	case RejectedByRemote:
		return "RejectedByRemote"
	case Timeout:
		return "Timeout"
	case MalformedResponse:
		return "MalformedResponse"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is the only error type returned by adapters.
type Error struct {
	Kind    Kind
	Service string // e.g. "text-generation", "background-removal"
	Status  int    // HTTP status for RejectedByRemote, 0 otherwise
	Body    string // remote error body for RejectedByRemote
	Err     error
}

func (e *Error) Error() string {
	msg := e.Service + ": "
	switch e.Kind {
	case RejectedByRemote:
		msg += fmt.Sprintf("rejected by remote (%d)", e.Status)
		if e.Body != "" {
			msg += ": " + e.Body
		}
		return msg
	case Timeout:
		msg += "timed out"
	case Unreachable:
		msg += "unreachable"
	case MalformedResponse:
		msg += "malformed response"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Rejected builds a RejectedByRemote error carrying the remote status and body.
func Rejected(service string, status int, body string) *Error {
	return &Error{Kind: RejectedByRemote, Service: service, Status: status, Body: body}
}

// Malformed builds a MalformedResponse error.
func Malformed(service string, format string, args ...any) *Error {
	return &Error{Kind: MalformedResponse, Service: service, Err: fmt.Errorf(format, args...)}
}

// Classify converts a transport-level error into an *Error. Errors that are
// already *Error pass through unchanged. Deadline and network timeouts map to
// Timeout; everything else is Unreachable.
func Classify(service string, err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: Timeout, Service: service, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: Timeout, Service: service, Err: err}
	}
	return &Error{Kind: Unreachable, Service: service, Err: err}
}

// KindOf reports the adapter error kind of err, if it is one.
func KindOf(err error) (Kind, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind, true
	}
	return 0, false
}
