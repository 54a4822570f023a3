// Package api exposes the enhancement sessions over a JSON HTTP API. The
// same handler is served locally by `listai serve` and behind API Gateway
// by the Lambda entry point.
//
// Endpoints:
//
//	GET    /api/health                           health check
//	GET    /api/products?status=&first=          list products with status counts
//	POST   /api/products/{id}/session            open a session (loads the product fresh)
//	GET    /api/products/{id}/session            current product and session state
//	DELETE /api/products/{id}/session            close a session
//	POST   /api/products/{id}/enhance            enhance the description
//	POST   /api/products/{id}/remove-background  remove the image background
//	POST   /api/products/{id}/transcript         generate a transcript draft
//	POST   /api/products/{id}/transcript/accept  accept the transcript draft
//	DELETE /api/products/{id}/transcript         discard the transcript draft
//	PUT    /api/products/{id}/description        operator edit of the description
//	POST   /api/products/{id}/save               commit to the platform
//	POST   /webhooks/shopify                     Shopify webhook receiver
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/fpang/product-listai/internal/enhance"
	"github.com/fpang/product-listai/internal/product"
	"github.com/fpang/product-listai/internal/session"
)

// ProductLister lists products for the dashboard. Implemented by
// *shopify.Client.
type ProductLister interface {
	ListProducts(ctx context.Context, n int) ([]product.Product, error)
}

// Options configures a Server. Products and Webhook may be nil.
type Options struct {
	Products   ProductLister
	Sessions   *session.Manager
	Webhook    http.Handler
	CORSOrigin string
}

// Server routes API requests to the session manager.
type Server struct {
	products   ProductLister
	sessions   *session.Manager
	webhook    http.Handler
	corsOrigin string
}

// New creates a Server.
func New(opts Options) *Server {
	return &Server{
		products:   opts.Products,
		sessions:   opts.Sessions,
		webhook:    opts.Webhook,
		corsOrigin: opts.CORSOrigin,
	}
}

// Handler returns the routed handler wrapped in logging, CORS, and metrics
// middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/products", s.handleListProducts)

	mux.HandleFunc("POST /api/products/{id}/session", s.handleOpenSession)
	mux.HandleFunc("GET /api/products/{id}/session", s.handleSnapshot)
	mux.HandleFunc("DELETE /api/products/{id}/session", s.handleCloseSession)

	mux.HandleFunc("POST /api/products/{id}/enhance", s.handleEnhance)
	mux.HandleFunc("POST /api/products/{id}/remove-background", s.handleRemoveBackground)
	mux.HandleFunc("POST /api/products/{id}/transcript", s.handleGenerateTranscript)
	mux.HandleFunc("POST /api/products/{id}/transcript/accept", s.handleAcceptTranscript)
	mux.HandleFunc("DELETE /api/products/{id}/transcript", s.handleDiscardTranscript)
	mux.HandleFunc("PUT /api/products/{id}/description", s.handleEditDescription)
	mux.HandleFunc("POST /api/products/{id}/save", s.handleSave)

	if s.webhook != nil {
		mux.Handle("/webhooks/shopify", s.webhook)
	} else {
		mux.HandleFunc("/webhooks/shopify", func(w http.ResponseWriter, r *http.Request) {
			respondError(w, fmt.Errorf("webhooks: %w", enhance.ErrNotConfigured))
		})
	}

	return withLogging(withCORS(s.corsOrigin, withMetrics(mux)))
}
