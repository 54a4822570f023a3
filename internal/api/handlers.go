package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/fpang/product-listai/internal/enhance"
	"github.com/fpang/product-listai/internal/gid"
	"github.com/fpang/product-listai/internal/product"
	"github.com/rs/zerolog/log"
)

// Operation names for the session endpoints that do not map to an
// orchestrator call.
const (
	opOpenSession = "OPEN_SESSION"
	opSnapshot    = "SNAPSHOT"
)

const (
	defaultListSize = 100
	maxBodySize     = 1 << 20
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "product-listai",
	})
}

type listResponse struct {
	Products []product.Product   `json:"products"`
	Counts   product.StatusCounts `json:"counts"`
}

// GET /api/products?status=active&first=100
// Counts always cover the unfiltered listing.
func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	if s.products == nil {
		respondError(w, fmt.Errorf("product listing: %w", enhance.ErrNotConfigured))
		return
	}

	first := defaultListSize
	if v := r.URL.Query().Get("first"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			httpError(w, http.StatusBadRequest, "first must be a positive integer")
			return
		}
		first = n
	}

	var (
		status    product.Status
		filtering bool
	)
	if v := r.URL.Query().Get("status"); v != "" && v != "all" {
		st, ok := product.ParseStatus(v)
		if !ok {
			httpError(w, http.StatusBadRequest, fmt.Sprintf("unknown status %q", v))
			return
		}
		status, filtering = st, true
	}

	all, err := s.products.ListProducts(r.Context(), first)
	if err != nil {
		respondError(w, err)
		return
	}

	resp := listResponse{Products: all, Counts: product.CountByStatus(all)}
	if filtering {
		resp.Products = product.FilterByStatus(all, status)
	}
	respondJSON(w, http.StatusOK, resp)
}

// productID parses the {id} path value as a positive numeric product ID.
func productID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := gid.ParseNumeric(r.PathValue("id"))
	if err != nil {
		respondError(w, err)
		return 0, false
	}
	return id, true
}

// orchestrator resolves the open session named by the request path.
func (s *Server) orchestrator(w http.ResponseWriter, r *http.Request) (*enhance.Orchestrator, bool) {
	id, ok := productID(w, r)
	if !ok {
		return nil, false
	}
	o, err := s.sessions.Get(id)
	if err != nil {
		respondError(w, err)
		return nil, false
	}
	return o, true
}

func snapshot(operation string, o *enhance.Orchestrator) enhance.Outcome {
	p, sess := o.Store().Snapshot()
	return enhance.Outcome{Operation: operation, Product: p, Session: sess}
}

// POST /api/products/{id}/session
func (s *Server) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}
	o, err := s.sessions.Open(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOutcome(w, snapshot(opOpenSession, o))
}

// GET /api/products/{id}/session
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	o, ok := s.orchestrator(w, r)
	if !ok {
		return
	}
	respondOutcome(w, snapshot(opSnapshot, o))
}

// DELETE /api/products/{id}/session
func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}
	if err := s.sessions.Close(id); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Remote operations are detached from the request context so they run to
// completion when the client disconnects. Adapter timeouts still bound them.
func (s *Server) handleEnhance(w http.ResponseWriter, r *http.Request) {
	if o, ok := s.orchestrator(w, r); ok {
		respondOutcome(w, o.EnhanceDescription(context.WithoutCancel(r.Context())))
	}
}

func (s *Server) handleRemoveBackground(w http.ResponseWriter, r *http.Request) {
	if o, ok := s.orchestrator(w, r); ok {
		respondOutcome(w, o.RemoveBackground(context.WithoutCancel(r.Context())))
	}
}

func (s *Server) handleGenerateTranscript(w http.ResponseWriter, r *http.Request) {
	if o, ok := s.orchestrator(w, r); ok {
		respondOutcome(w, o.GenerateTranscript(context.WithoutCancel(r.Context())))
	}
}

func (s *Server) handleAcceptTranscript(w http.ResponseWriter, r *http.Request) {
	if o, ok := s.orchestrator(w, r); ok {
		respondOutcome(w, o.AcceptTranscript())
	}
}

func (s *Server) handleDiscardTranscript(w http.ResponseWriter, r *http.Request) {
	if o, ok := s.orchestrator(w, r); ok {
		respondOutcome(w, o.DiscardTranscript())
	}
}

// PUT /api/products/{id}/description
// Body: {"descriptionHtml": "<p>...</p>"}
func (s *Server) handleEditDescription(w http.ResponseWriter, r *http.Request) {
	o, ok := s.orchestrator(w, r)
	if !ok {
		return
	}
	var req struct {
		DescriptionHTML *string `json:"descriptionHtml"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		log.Debug().Err(err).Msg("Invalid edit body")
		httpError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.DescriptionHTML == nil {
		httpError(w, http.StatusBadRequest, "descriptionHtml is required")
		return
	}
	respondOutcome(w, o.EditDescription(*req.DescriptionHTML))
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if o, ok := s.orchestrator(w, r); ok {
		respondOutcome(w, o.Save(context.WithoutCancel(r.Context())))
	}
}
