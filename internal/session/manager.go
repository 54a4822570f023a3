// Package session keeps one enhancement session per product. A session is
// opened by loading the product fresh from the platform and lives in memory
// until closed; nothing is persisted except through Save.
package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/fpang/product-listai/internal/enhance"
	"github.com/fpang/product-listai/internal/gid"
	"github.com/fpang/product-listai/internal/product"
	"github.com/rs/zerolog/log"
)

// ErrNoSession is returned when no session is open for a product.
var ErrNoSession = errors.New("no open session for product")

// Loader fetches a product from the platform. Implemented by *shopify.Client.
type Loader interface {
	FetchProduct(ctx context.Context, platformID string) (product.Product, error)
}

// Manager maps numeric product IDs to their orchestrators. Its mutex guards
// only the map and is never held across a remote call.
type Manager struct {
	loader Loader
	deps   enhance.Deps

	mu       sync.Mutex
	sessions map[int64]*enhance.Orchestrator
}

// NewManager creates a Manager. loader may be nil, in which case Open fails
// with enhance.ErrNotConfigured.
func NewManager(loader Loader, deps enhance.Deps) *Manager {
	return &Manager{
		loader:   loader,
		deps:     deps,
		sessions: make(map[int64]*enhance.Orchestrator),
	}
}

// Open loads the product fresh and returns its orchestrator. An existing
// idle session is reloaded in place, keeping any transcript draft; a busy
// one fails with product.ErrBusy.
func (m *Manager) Open(ctx context.Context, numericID int64) (*enhance.Orchestrator, error) {
	if m.loader == nil {
		return nil, fmt.Errorf("product loader: %w", enhance.ErrNotConfigured)
	}
	platformID := gid.ToPlatformID(numericID, gid.ResourceProduct)

	p, err := m.loader.FetchProduct(ctx, platformID)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", platformID, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if o, ok := m.sessions[numericID]; ok {
		if err := o.Store().Reload(p); err != nil {
			return nil, err
		}
		log.Info().Int64("productId", numericID).Msg("Session reloaded")
		return o, nil
	}

	o := enhance.New(product.NewStore(p), m.deps)
	m.sessions[numericID] = o
	log.Info().Int64("productId", numericID).Int("openSessions", len(m.sessions)).Msg("Session opened")
	return o, nil
}

// Get returns the orchestrator of an open session.
func (m *Manager) Get(numericID int64) (*enhance.Orchestrator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.sessions[numericID]
	if !ok {
		return nil, fmt.Errorf("product %d: %w", numericID, ErrNoSession)
	}
	return o, nil
}

// Close discards a session. A session with an operation in flight cannot be
// closed.
func (m *Manager) Close(numericID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.sessions[numericID]
	if !ok {
		return fmt.Errorf("product %d: %w", numericID, ErrNoSession)
	}
	if s := o.Store().Session(); !s.Idle() {
		return fmt.Errorf("%w: cannot close while %s pending", product.ErrBusy, s.Pending)
	}
	delete(m.sessions, numericID)
	log.Info().Int64("productId", numericID).Msg("Session closed")
	return nil
}

// Invalidate flags an open session's product as changed on the platform.
// It reports whether a session was open.
func (m *Manager) Invalidate(numericID int64, at time.Time) bool {
	m.mu.Lock()
	o, ok := m.sessions[numericID]
	m.mu.Unlock()
	if !ok {
		return false
	}
	if !o.Store().MarkRemoteChanged(at) {
		log.Debug().Int64("productId", numericID).Time("updatedAt", at).Msg("Ignoring change already reflected in session")
		return true
	}
	log.Info().Int64("productId", numericID).Time("remoteChangedAt", at).Msg("Session marked as remotely changed")
	return true
}

// IDs returns the numeric IDs of all open sessions in ascending order.
func (m *Manager) IDs() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int64, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
