package adapter

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/fpang/product-listai/internal/assets"
	"github.com/fpang/product-listai/internal/textutil"
	"github.com/rs/zerolog/log"
)

// ErrMissingImage is returned when the transcript adapter is called without
// an image reference. Callers are expected to check before invoking.
var ErrMissingImage = errors.New("image reference is required")

// DefaultTranscriptMaxTokens caps the generated transcript length.
const DefaultTranscriptMaxTokens = 300

// VisionConfig configures the vision-transcript adapter.
type VisionConfig struct {
	Model           string
	Instruction     string // defaults to assets.ImageTranscriptPrompt
	MaxOutputTokens int32
	Timeout         time.Duration
}

// TranscriptGenerator writes a product description from a product image.
type TranscriptGenerator struct {
	gen Generator
	cfg VisionConfig
}

// NewTranscriptGenerator creates a vision-transcript adapter over gen.
func NewTranscriptGenerator(gen Generator, cfg VisionConfig) *TranscriptGenerator {
	if cfg.Instruction == "" {
		cfg.Instruction = assets.ImageTranscriptPrompt
	}
	if cfg.MaxOutputTokens <= 0 {
		cfg.MaxOutputTokens = DefaultTranscriptMaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &TranscriptGenerator{gen: gen, cfg: cfg}
}

// Generate returns HTML describing the product shown at imageURL.
func (g *TranscriptGenerator) Generate(ctx context.Context, imageURL string) (string, error) {
	if strings.TrimSpace(imageURL) == "" {
		return "", ErrMissingImage
	}

	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	start := time.Now()
	raw, err := g.gen.GenerateFromImage(ctx, VisionRequest{
		Model:           g.cfg.Model,
		Instruction:     g.cfg.Instruction,
		ImageURL:        imageURL,
		MaxOutputTokens: g.cfg.MaxOutputTokens,
	})
	if err != nil {
		return "", Classify(ServiceVisionGeneration, err)
	}

	out := textutil.CleanHTML(raw)
	if out == "" {
		return "", Malformed(ServiceVisionGeneration, "empty generation result")
	}

	log.Debug().
		Str("model", g.cfg.Model).
		Int("output_length", len(out)).
		Dur("duration", time.Since(start)).
		Msg("Image transcript generated")
	return out, nil
}
