// Package chat provides the generation backends behind the text and vision
// adapters: Gemini through the genai SDK and OpenAI through its chat
// completions REST API.
package chat

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fpang/product-listai/internal/adapter"
	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// GeminiConfig configures a GeminiGenerator.
type GeminiConfig struct {
	APIKey  string
	BaseURL string // overrides the Gemini API endpoint; used in tests
	Timeout time.Duration
}

// GeminiGenerator implements adapter.Generator using the Gemini API.
type GeminiGenerator struct {
	client     *genai.Client
	httpClient *http.Client
}

// NewGeminiGenerator creates a Gemini-backed generator.
func NewGeminiGenerator(ctx context.Context, cfg GeminiConfig) (*GeminiGenerator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = adapter.DefaultTimeout
	}
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiGenerator{
		client:     client,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// GenerateText implements adapter.Generator.
func (g *GeminiGenerator) GenerateText(ctx context.Context, req adapter.TextRequest) (string, error) {
	config := &genai.GenerateContentConfig{}
	if req.SystemInstruction != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.SystemInstruction}},
		}
	}
	contents := []*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: req.UserText}}}}
	return g.generate(ctx, adapter.ServiceTextGeneration, req.Model, contents, config)
}

// GenerateFromImage implements adapter.Generator. The image is downloaded and
// sent inline.
func (g *GeminiGenerator) GenerateFromImage(ctx context.Context, req adapter.VisionRequest) (string, error) {
	data, mimeType, err := fetchImage(ctx, g.httpClient, req.ImageURL)
	if err != nil {
		return "", err
	}
	log.Debug().Int("bytes", len(data)).Str("mime_type", mimeType).Msg("Image loaded for vision request")

	config := &genai.GenerateContentConfig{}
	if req.MaxOutputTokens > 0 {
		config.MaxOutputTokens = req.MaxOutputTokens
	}
	parts := []*genai.Part{
		{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}},
		{Text: req.Instruction},
	}
	contents := []*genai.Content{{Role: "user", Parts: parts}}
	return g.generate(ctx, adapter.ServiceVisionGeneration, req.Model, contents, config)
}

func (g *GeminiGenerator) generate(ctx context.Context, service, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (string, error) {
	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		log.Error().Err(err).Str("model", model).Msg("Gemini request failed")
		return "", classifyGeminiError(service, err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", adapter.Malformed(service, "response has no candidates")
	}

	var result strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part != nil && part.Text != "" && !part.Thought {
				result.WriteString(part.Text)
			}
		}
	}
	text := result.String()
	if strings.TrimSpace(text) == "" {
		return "", adapter.Malformed(service, "response has no text")
	}

	log.Debug().
		Str("model", model).
		Int("response_length", len(text)).
		Dur("duration", time.Since(start)).
		Msg("Received response from Gemini")
	return text, nil
}

// classifyGeminiError maps a genai error to an adapter error. API errors
// carry the HTTP status; anything else is a transport failure.
func classifyGeminiError(service string, err error) error {
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return adapter.Rejected(service, apiErrPtr.Code, apiErrMessage(apiErrPtr.Code, apiErrPtr.Message))
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return adapter.Rejected(service, apiErr.Code, apiErrMessage(apiErr.Code, apiErr.Message))
	}
	return adapter.Classify(service, err)
}

func apiErrMessage(code int, message string) string {
	if message != "" {
		return message
	}
	return describeStatus(code)
}
