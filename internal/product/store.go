package product

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	// ErrBusy is returned when an operation is requested while another one
	// is still in flight for the same product.
	ErrBusy = errors.New("another operation is in progress")

	// ErrInvalidStateTransition is returned when a mutation is attempted
	// outside the operation that owns it.
	ErrInvalidStateTransition = errors.New("invalid state transition")
)

// Store owns one Product and its Session. All access goes through the mutex;
// readers always receive copies.
type Store struct {
	mu      sync.Mutex
	product Product
	session Session
}

// NewStore creates a Store for a freshly loaded product with an idle session.
func NewStore(p Product) *Store {
	return &Store{
		product: p,
		session: Session{Pending: OpNone},
	}
}

// Read returns a snapshot of the product.
func (s *Store) Read() Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.product
}

// Session returns a snapshot of the session state.
func (s *Store) Session() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionCopy()
}

// Snapshot returns product and session read under one lock.
func (s *Store) Snapshot() (Product, Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.product, s.sessionCopy()
}

func (s *Store) sessionCopy() Session {
	out := s.session
	if s.session.LastError != nil {
		rec := *s.session.LastError
		out.LastError = &rec
	}
	if s.session.RemoteChangedAt != nil {
		at := *s.session.RemoteChangedAt
		out.RemoteChangedAt = &at
	}
	return out
}

// Begin marks op as pending and clears the last error. It fails with ErrBusy
// if any operation is already pending.
func (s *Store) Begin(op Operation) error {
	if op == OpNone {
		return fmt.Errorf("%w: cannot begin %s", ErrInvalidStateTransition, op)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session.Pending != OpNone {
		return fmt.Errorf("%w: %s pending", ErrBusy, s.session.Pending)
	}
	s.session.Pending = op
	s.session.LastError = nil
	return nil
}

// Finish returns the session to idle. A non-nil rec becomes the last error.
func (s *Store) Finish(op Operation, rec *ErrorRecord) error {
	if op == OpNone {
		return fmt.Errorf("%w: cannot finish %s", ErrInvalidStateTransition, op)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requirePending(op, "finish"); err != nil {
		return err
	}
	s.session.Pending = OpNone
	s.session.LastError = rec
	return nil
}

// ApplyTextEnhancement replaces the description. Only valid while
// OpEnhancingText is pending.
func (s *Store) ApplyTextEnhancement(html string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requirePending(OpEnhancingText, "apply text enhancement"); err != nil {
		return err
	}
	s.product.DescriptionHTML = html
	return nil
}

// ApplyImageUpdate replaces the featured image reference. Only valid while
// OpRemovingBackground is pending.
func (s *Store) ApplyImageUpdate(url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requirePending(OpRemovingBackground, "apply image update"); err != nil {
		return err
	}
	s.product.ImageURL = url
	return nil
}

// SetTranscriptDraft stores generated transcript text. Only valid while
// OpGeneratingTranscript is pending.
func (s *Store) SetTranscriptDraft(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requirePending(OpGeneratingTranscript, "set transcript draft"); err != nil {
		return err
	}
	s.session.TranscriptDraft = text
	return nil
}

// ApplyCommitted re-synchronises local fields from the platform's response
// after a save. Only valid while OpSaving is pending. A zero updatedAt keeps
// the last known platform timestamp. A remote change recorded after
// updatedAt survives the commit.
func (s *Store) ApplyCommitted(html, url string, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requirePending(OpSaving, "apply committed state"); err != nil {
		return err
	}
	s.product.DescriptionHTML = html
	s.product.ImageURL = url
	if !updatedAt.IsZero() {
		s.product.UpdatedAt = updatedAt
	}
	if at := s.session.RemoteChangedAt; at == nil || updatedAt.IsZero() || !at.After(updatedAt) {
		s.session.RemoteChangedAt = nil
	}
	return nil
}

// EditDescription applies an operator edit from the editor. Idle only.
func (s *Store) EditDescription(html string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireIdle("edit description"); err != nil {
		return err
	}
	s.product.DescriptionHTML = html
	return nil
}

// AcceptTranscript moves the transcript draft into the description and
// clears the draft. Idle only; fails if there is no draft.
func (s *Store) AcceptTranscript() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireIdle("accept transcript"); err != nil {
		return err
	}
	if s.session.TranscriptDraft == "" {
		return fmt.Errorf("%w: no transcript draft to accept", ErrInvalidStateTransition)
	}
	s.product.DescriptionHTML = s.session.TranscriptDraft
	s.session.TranscriptDraft = ""
	return nil
}

// DiscardTranscript clears the transcript draft. Idle only.
func (s *Store) DiscardTranscript() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireIdle("discard transcript"); err != nil {
		return err
	}
	s.session.TranscriptDraft = ""
	return nil
}

// Reload replaces the product with a fresh copy from the platform, dropping
// unsaved edits. Idle only.
func (s *Store) Reload(p Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireIdle("reload"); err != nil {
		return err
	}
	s.product = p
	s.session.RemoteChangedAt = nil
	return nil
}

// MarkRemoteChanged records that the platform copy changed at the given
// time. Allowed in any state; product fields are untouched. Changes at or
// before the last known platform timestamp are already reflected locally
// and are ignored. It reports whether the change was recorded.
func (s *Store) MarkRemoteChanged(at time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.product.UpdatedAt.IsZero() && !at.After(s.product.UpdatedAt) {
		return false
	}
	s.session.RemoteChangedAt = &at
	return true
}

func (s *Store) requirePending(op Operation, action string) error {
	if s.session.Pending != op {
		return fmt.Errorf("%w: %s requires %s pending, have %s",
			ErrInvalidStateTransition, action, op, s.session.Pending)
	}
	return nil
}

func (s *Store) requireIdle(action string) error {
	if s.session.Pending != OpNone {
		return fmt.Errorf("%w: cannot %s while %s pending", ErrBusy, action, s.session.Pending)
	}
	return nil
}
