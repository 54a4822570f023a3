package shopify

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrProductNotFound is returned when a product query resolves to null.
var ErrProductNotFound = errors.New("product not found")

// SyncErrorKind categorizes a gateway failure.
type SyncErrorKind int

const (
	// Unreachable indicates a transport failure or timeout.
	Unreachable SyncErrorKind = iota
	// Unauthorized indicates a missing, invalid, or under-scoped access token.
	Unauthorized
	// RemoteRejected indicates the platform refused the request.
	RemoteRejected
)

func (k SyncErrorKind) String() string {
	switch k {
	case Unreachable:
		return "Unreachable"
	case Unauthorized:
		return "Unauthorized"
	case RemoteRejected:
		return "RemoteRejected"
	}
	return fmt.Sprintf("SyncErrorKind(%d)", int(k))
}

// SyncError is returned by every gateway call that fails.
type SyncError struct {
	Kind   SyncErrorKind
	Status int      // HTTP status, 0 for transport failures
	Errors []string // platform error messages, verbatim
	Err    error
}

func (e *SyncError) Error() string {
	var b strings.Builder
	b.WriteString("shopify: ")
	switch e.Kind {
	case Unauthorized:
		b.WriteString("unauthorized")
	case RemoteRejected:
		b.WriteString("rejected")
	default:
		b.WriteString("unreachable")
	}
	if e.Status != 0 {
		fmt.Fprintf(&b, " (%d)", e.Status)
	}
	if len(e.Errors) > 0 {
		b.WriteString(": ")
		b.WriteString(strings.Join(e.Errors, "; "))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// parseErrors extracts error messages from a Shopify error body. The
// "errors" member may be a string, an array of strings or GraphQL error
// objects, or an object mapping field names to message lists.
func parseErrors(raw []byte) []string {
	var envelope struct {
		Errors json.RawMessage `json:"errors"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil || len(envelope.Errors) == 0 {
		if s := strings.TrimSpace(string(raw)); s != "" {
			return []string{s}
		}
		return nil
	}

	var asString string
	if json.Unmarshal(envelope.Errors, &asString) == nil {
		return []string{asString}
	}

	var asList []json.RawMessage
	if json.Unmarshal(envelope.Errors, &asList) == nil {
		out := make([]string, 0, len(asList))
		for _, item := range asList {
			var s string
			if json.Unmarshal(item, &s) == nil {
				out = append(out, s)
				continue
			}
			var obj struct {
				Message string `json:"message"`
			}
			if json.Unmarshal(item, &obj) == nil && obj.Message != "" {
				out = append(out, obj.Message)
			}
		}
		return out
	}

	var asMap map[string]json.RawMessage
	if json.Unmarshal(envelope.Errors, &asMap) == nil {
		fields := make([]string, 0, len(asMap))
		for f := range asMap {
			fields = append(fields, f)
		}
		sort.Strings(fields)

		var out []string
		for _, f := range fields {
			var msgs []string
			if json.Unmarshal(asMap[f], &msgs) == nil {
				for _, m := range msgs {
					out = append(out, f+": "+m)
				}
				continue
			}
			var msg string
			if json.Unmarshal(asMap[f], &msg) == nil {
				out = append(out, f+": "+msg)
			}
		}
		return out
	}

	return []string{string(envelope.Errors)}
}
