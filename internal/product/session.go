package product

import "time"

// Operation identifies the enhancement operation currently in flight.
type Operation string

const (
	OpNone                 Operation = "NONE"
	OpEnhancingText        Operation = "ENHANCING_TEXT"
	OpRemovingBackground   Operation = "REMOVING_BACKGROUND"
	OpGeneratingTranscript Operation = "GENERATING_TRANSCRIPT"
	OpSaving               Operation = "SAVING"
)

// ErrorRecord is the last failure surfaced to the operator.
type ErrorRecord struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Session is the per-interaction state kept alongside a Product. It is never
// persisted.
type Session struct {
	Pending         Operation    `json:"pendingOperation"`
	TranscriptDraft string       `json:"transcriptDraft"`
	LastError       *ErrorRecord `json:"lastError,omitempty"`

	// RemoteChangedAt is set when the platform reports an update to the
	// product after it was loaded. Saving would overwrite that update.
	RemoteChangedAt *time.Time `json:"remoteChangedAt,omitempty"`
}

// Idle reports whether no operation is pending.
func (s Session) Idle() bool {
	return s.Pending == OpNone
}
