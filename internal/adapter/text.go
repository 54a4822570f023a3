package adapter

import (
	"context"
	"strings"
	"time"

	"github.com/fpang/product-listai/internal/assets"
	"github.com/fpang/product-listai/internal/textutil"
	"github.com/rs/zerolog/log"
)

// FallbackDescriptionHTML is returned, without calling the model, when the
// description to enhance is empty.
const FallbackDescriptionHTML = "<p>Discover the unparalleled quality of our products. Each item is crafted with care, ensuring durability and style. Perfect for any occasion!</p>"

// DefaultTimeout bounds every adapter call when no timeout is configured.
const DefaultTimeout = 60 * time.Second

// TextConfig configures the text-enhancement adapter.
type TextConfig struct {
	Model             string
	SystemInstruction string // defaults to assets.DescriptionEnhanceSystemPrompt
	Timeout           time.Duration
}

// TextEnhancer rewrites a product description with a language model.
type TextEnhancer struct {
	gen Generator
	cfg TextConfig
}

// NewTextEnhancer creates a text-enhancement adapter over gen.
func NewTextEnhancer(gen Generator, cfg TextConfig) *TextEnhancer {
	if cfg.SystemInstruction == "" {
		cfg.SystemInstruction = assets.DescriptionEnhanceSystemPrompt
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &TextEnhancer{gen: gen, cfg: cfg}
}

// Enhance returns enhanced HTML for descriptionHTML. An empty description
// yields FallbackDescriptionHTML.
func (e *TextEnhancer) Enhance(ctx context.Context, descriptionHTML string) (string, error) {
	if strings.TrimSpace(descriptionHTML) == "" {
		log.Info().Msg("Description is empty, using fallback description")
		return FallbackDescriptionHTML, nil
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	start := time.Now()
	raw, err := e.gen.GenerateText(ctx, TextRequest{
		Model:             e.cfg.Model,
		SystemInstruction: e.cfg.SystemInstruction,
		UserText:          "Enhance the following product description: " + descriptionHTML,
	})
	if err != nil {
		return "", Classify(ServiceTextGeneration, err)
	}

	out := textutil.CleanHTML(raw)
	if out == "" {
		return "", Malformed(ServiceTextGeneration, "empty generation result")
	}

	log.Debug().
		Str("model", e.cfg.Model).
		Int("input_length", len(descriptionHTML)).
		Int("output_length", len(out)).
		Dur("duration", time.Since(start)).
		Msg("Description enhanced")
	return out, nil
}
