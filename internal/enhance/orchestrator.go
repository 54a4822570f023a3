// Package enhance coordinates the enhancement operations on one product:
// it guards against concurrent operations, calls the external adapters,
// applies results to the product store, and commits changes to the platform.
//
// Every operation returns an Outcome. Failures never mutate product fields;
// they are recorded as the session's last error.
package enhance

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/fpang/product-listai/internal/adapter"
	"github.com/fpang/product-listai/internal/gid"
	"github.com/fpang/product-listai/internal/metrics"
	"github.com/fpang/product-listai/internal/product"
	"github.com/fpang/product-listai/internal/shopify"
	"github.com/rs/zerolog/log"
)

// TextEnhancer rewrites a description. Implemented by adapter.TextEnhancer.
type TextEnhancer interface {
	Enhance(ctx context.Context, descriptionHTML string) (string, error)
}

// TranscriptGenerator describes a product from its image. Implemented by
// adapter.TranscriptGenerator.
type TranscriptGenerator interface {
	Generate(ctx context.Context, imageURL string) (string, error)
}

// BackgroundRemover produces a background-free copy of an image. Implemented
// by adapter.BackgroundRemover.
type BackgroundRemover interface {
	Remove(ctx context.Context, imageURL string) (string, error)
}

// Gateway commits product content to the platform. Implemented by
// *shopify.Client.
type Gateway interface {
	Commit(ctx context.Context, numericID int64, descriptionHTML, imageURL string) (*shopify.CommittedProduct, error)
}

// Deps are the external collaborators. A nil field makes the operations
// that need it fail with ErrNotConfigured.
type Deps struct {
	Text       TextEnhancer
	Transcript TranscriptGenerator
	Background BackgroundRemover
	Gateway    Gateway
}

// Orchestrator runs enhancement operations against one product store.
type Orchestrator struct {
	store *product.Store
	deps  Deps
}

// New creates an Orchestrator for store.
func New(store *product.Store, deps Deps) *Orchestrator {
	return &Orchestrator{store: store, deps: deps}
}

// Store returns the product store this orchestrator operates on.
func (o *Orchestrator) Store() *product.Store {
	return o.store
}

// EnhanceDescription replaces the description with an AI-enhanced version.
// An empty description is replaced with the fallback copy.
func (o *Orchestrator) EnhanceDescription(ctx context.Context) Outcome {
	return o.run(ctx, product.OpEnhancingText, func(ctx context.Context, p product.Product) (string, func() error, error) {
		if o.deps.Text == nil {
			return "", nil, fmt.Errorf("text enhancement: %w", ErrNotConfigured)
		}
		html, err := o.deps.Text.Enhance(ctx, p.DescriptionHTML)
		if err != nil {
			return "", nil, err
		}
		return html, func() error { return o.store.ApplyTextEnhancement(html) }, nil
	})
}

// RemoveBackground replaces the featured image with a background-free copy.
func (o *Orchestrator) RemoveBackground(ctx context.Context) Outcome {
	return o.run(ctx, product.OpRemovingBackground, func(ctx context.Context, p product.Product) (string, func() error, error) {
		if strings.TrimSpace(p.ImageURL) == "" {
			return "", nil, fmt.Errorf("product has no image: %w", ErrMissingInput)
		}
		if o.deps.Background == nil {
			return "", nil, fmt.Errorf("background removal: %w", ErrNotConfigured)
		}
		url, err := o.deps.Background.Remove(ctx, p.ImageURL)
		if err != nil {
			return "", nil, err
		}
		if url == "" {
			return "", nil, adapter.Malformed(adapter.ServiceBackgroundRemoval, "no image reference returned")
		}
		return url, func() error { return o.store.ApplyImageUpdate(url) }, nil
	})
}

// GenerateTranscript writes a description draft from the product image. The
// draft is held in the session until accepted or discarded.
func (o *Orchestrator) GenerateTranscript(ctx context.Context) Outcome {
	return o.run(ctx, product.OpGeneratingTranscript, func(ctx context.Context, p product.Product) (string, func() error, error) {
		if strings.TrimSpace(p.ImageURL) == "" {
			return "", nil, fmt.Errorf("product has no image: %w", ErrMissingInput)
		}
		if o.deps.Transcript == nil {
			return "", nil, fmt.Errorf("transcript generation: %w", ErrNotConfigured)
		}
		text, err := o.deps.Transcript.Generate(ctx, p.ImageURL)
		if err != nil {
			return "", nil, err
		}
		return text, func() error { return o.store.SetTranscriptDraft(text) }, nil
	})
}

// Save commits the current description and image to the platform and
// adopts the platform's normalized values. An image reference missing from
// the response keeps the submitted one.
func (o *Orchestrator) Save(ctx context.Context) Outcome {
	return o.run(ctx, product.OpSaving, func(ctx context.Context, p product.Product) (string, func() error, error) {
		if o.deps.Gateway == nil {
			return "", nil, fmt.Errorf("platform gateway: %w", ErrNotConfigured)
		}
		id, err := gid.ToNumeric(p.PlatformID)
		if err != nil {
			return "", nil, err
		}
		if sess := o.store.Session(); sess.RemoteChangedAt != nil {
			log.Warn().
				Int64("productId", id).
				Time("remoteChangedAt", *sess.RemoteChangedAt).
				Msg("Saving over a remote change made after the product was loaded")
		}

		committed, err := o.deps.Gateway.Commit(ctx, id, p.DescriptionHTML, p.ImageURL)
		if err != nil {
			return "", nil, err
		}
		if committed == nil {
			return "", nil, adapter.Malformed(adapter.ServicePlatformSync, "empty commit response")
		}
		html := committed.DescriptionHTML
		url := committed.ImageURL
		if url == "" {
			url = p.ImageURL
		}
		return html, func() error { return o.store.ApplyCommitted(html, url, committed.UpdatedAt) }, nil
	})
}

// EditDescription applies an operator edit. Idle only; no remote call.
func (o *Orchestrator) EditDescription(html string) Outcome {
	return o.local(ActionEditDescription, html, func() error { return o.store.EditDescription(html) })
}

// AcceptTranscript moves the transcript draft into the description.
func (o *Orchestrator) AcceptTranscript() Outcome {
	draft := o.store.Session().TranscriptDraft
	return o.local(ActionAcceptTranscript, draft, o.store.AcceptTranscript)
}

// DiscardTranscript drops the transcript draft.
func (o *Orchestrator) DiscardTranscript() Outcome {
	return o.local(ActionDiscardTranscript, "", o.store.DiscardTranscript)
}

// step performs the remote part of an operation against a product snapshot.
// On success it returns the outcome value and the mutation to apply.
type step func(ctx context.Context, p product.Product) (value string, apply func() error, err error)

func (o *Orchestrator) run(ctx context.Context, op product.Operation, fn step) Outcome {
	start := time.Now()

	if err := o.store.Begin(op); err != nil {
		out := o.outcome(string(op), "", err)
		o.observe(op, out, time.Since(start))
		return out
	}

	value, err := o.callStep(ctx, op, fn)

	if ferr := o.store.Finish(op, record(err)); ferr != nil {
		log.Error().Err(ferr).Str("operation", string(op)).Msg("Failed to return session to idle")
		if err == nil {
			err = ferr
		}
	}

	if err != nil {
		value = ""
	}
	out := o.outcome(string(op), value, err)
	o.observe(op, out, time.Since(start))
	return out
}

// callStep runs fn and its mutation, turning a panic into an error so the
// pending operation is always finished.
func (o *Orchestrator) callStep(ctx context.Context, op product.Operation, fn step) (value string, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("operation", string(op)).
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("Operation panicked")
			value, err = "", fmt.Errorf("%s: panic: %v", op, r)
		}
	}()

	value, apply, err := fn(ctx, o.store.Read())
	if err != nil {
		return "", err
	}
	return value, apply()
}

func (o *Orchestrator) local(action, value string, fn func() error) Outcome {
	err := fn()
	if err != nil {
		value = ""
		log.Warn().Err(err).Str("operation", action).Msg("Local edit rejected")
	} else {
		log.Debug().Str("operation", action).Msg("Local edit applied")
	}
	return o.outcome(action, value, err)
}

func (o *Orchestrator) outcome(operation, value string, err error) Outcome {
	p, s := o.store.Snapshot()
	return Outcome{Operation: operation, Value: value, Product: p, Session: s, Err: err}
}

// observe emits one log event and one EMF document per remote operation.
func (o *Orchestrator) observe(op product.Operation, out Outcome, elapsed time.Duration) {
	result := "success"
	if out.Err != nil {
		result = ErrorKind(out.Err)
	}

	metrics.New(metrics.Namespace).
		Dimension("Operation", string(op)).
		Dimension("Result", result).
		Duration("LatencyMs", elapsed).
		Count("OperationCount").
		Property("platformId", out.Product.PlatformID).
		Flush()

	if out.Err != nil {
		ev := log.Warn()
		if result == KindBusy {
			ev = log.Info()
		}
		ev.Err(out.Err).
			Str("operation", string(op)).
			Str("kind", result).
			Str("platformId", out.Product.PlatformID).
			Dur("duration", elapsed).
			Msg("Enhancement operation failed")
		return
	}
	log.Info().
		Str("operation", string(op)).
		Str("platformId", out.Product.PlatformID).
		Int("valueLength", len(out.Value)).
		Dur("duration", elapsed).
		Msg("Enhancement operation completed")
}
