package enhance

import (
	"errors"

	"github.com/fpang/product-listai/internal/adapter"
	"github.com/fpang/product-listai/internal/gid"
	"github.com/fpang/product-listai/internal/product"
	"github.com/fpang/product-listai/internal/shopify"
)

var (
	// ErrMissingInput is returned when an operation's required input is
	// empty, e.g. removing the background of a product with no image.
	ErrMissingInput = errors.New("missing input")

	// ErrNotConfigured is returned when the dependency an operation needs
	// was not supplied.
	ErrNotConfigured = errors.New("dependency not configured")
)

// Names of the idle-only local edits. Remote operations use the
// product.Operation value that marks them pending.
const (
	ActionEditDescription   = "EDIT_DESCRIPTION"
	ActionAcceptTranscript  = "ACCEPT_TRANSCRIPT"
	ActionDiscardTranscript = "DISCARD_TRANSCRIPT"
)

// Error kinds reported in outcomes and error records, in addition to the
// adapter and gateway kinds.
const (
	KindBusy                   = "Busy"
	KindInvalidStateTransition = "InvalidStateTransition"
	KindMissingInput           = "MissingInput"
	KindMalformedIdentifier    = "MalformedIdentifier"
	KindNotConfigured          = "NotConfigured"
	KindInternal               = "Internal"
)

// Outcome is the typed result of one orchestrator call.
type Outcome struct {
	Operation string          `json:"operation"`
	Value     string          `json:"value,omitempty"`
	Product   product.Product `json:"product"`
	Session   product.Session `json:"session"`
	Err       error           `json:"-"`
}

// OK reports whether the operation succeeded.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// ErrorRecord returns the failure as a kind/message pair, or nil on success.
func (o Outcome) ErrorRecord() *product.ErrorRecord {
	return record(o.Err)
}

// ErrorKind names the failure category of err.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, product.ErrBusy):
		return KindBusy
	case errors.Is(err, product.ErrInvalidStateTransition):
		return KindInvalidStateTransition
	case errors.Is(err, ErrMissingInput), errors.Is(err, adapter.ErrMissingImage):
		return KindMissingInput
	case errors.Is(err, gid.ErrMalformedIdentifier):
		return KindMalformedIdentifier
	case errors.Is(err, ErrNotConfigured):
		return KindNotConfigured
	}
	if k, ok := adapter.KindOf(err); ok {
		return k.String()
	}
	var se *shopify.SyncError
	if errors.As(err, &se) {
		return se.Kind.String()
	}
	return KindInternal
}

func record(err error) *product.ErrorRecord {
	if err == nil {
		return nil
	}
	return &product.ErrorRecord{Kind: ErrorKind(err), Message: err.Error()}
}
