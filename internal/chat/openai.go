package chat

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fpang/product-listai/internal/adapter"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// DefaultOpenAIBaseURL is the OpenAI REST API root.
const DefaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAIConfig configures an OpenAIGenerator.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string // default https://api.openai.com/v1
	Timeout time.Duration
	// InlineImages downloads the image and sends it as a data URL instead
	// of passing the public URL through.
	InlineImages bool
}

// OpenAIGenerator implements adapter.Generator using chat completions.
type OpenAIGenerator struct {
	cfg        OpenAIConfig
	httpClient *http.Client
}

// NewOpenAIGenerator creates an OpenAI-backed generator.
func NewOpenAIGenerator(cfg OpenAIConfig) (*OpenAIGenerator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOpenAIBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = adapter.DefaultTimeout
	}
	return &OpenAIGenerator{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int32         `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type openAIErrorBody struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// GenerateText implements adapter.Generator.
func (o *OpenAIGenerator) GenerateText(ctx context.Context, req adapter.TextRequest) (string, error) {
	var msgs []chatMessage
	if req.SystemInstruction != "" {
		msgs = append(msgs, chatMessage{Role: "system", Content: req.SystemInstruction})
	}
	msgs = append(msgs, chatMessage{Role: "user", Content: req.UserText})
	return o.complete(ctx, adapter.ServiceTextGeneration, chatRequest{Model: req.Model, Messages: msgs})
}

// GenerateFromImage implements adapter.Generator.
func (o *OpenAIGenerator) GenerateFromImage(ctx context.Context, req adapter.VisionRequest) (string, error) {
	ref := req.ImageURL
	if o.cfg.InlineImages {
		data, mimeType, err := fetchImage(ctx, o.httpClient, req.ImageURL)
		if err != nil {
			return "", err
		}
		ref = "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
	}
	msgs := []chatMessage{{
		Role: "user",
		Content: []contentPart{
			{Type: "text", Text: req.Instruction},
			{Type: "image_url", ImageURL: &imageURL{URL: ref}},
		},
	}}
	return o.complete(ctx, adapter.ServiceVisionGeneration, chatRequest{
		Model:     req.Model,
		Messages:  msgs,
		MaxTokens: req.MaxOutputTokens,
	})
}

func (o *OpenAIGenerator) complete(ctx context.Context, service string, body chatRequest) (string, error) {
	rid := uuid.New().String()
	start := time.Now()

	b, err := json.Marshal(body)
	if err != nil {
		return "", &adapter.Error{Kind: adapter.Unreachable, Service: service, Err: err}
	}
	endpoint := strings.TrimRight(o.cfg.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return "", &adapter.Error{Kind: adapter.Unreachable, Service: service, Err: err}
	}
	httpReq.Header.Set("Authorization", "Bearer "+o.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	log.Debug().Str("req_id", rid).Str("model", body.Model).Str("service", service).Msg("Sending OpenAI request")

	resp, err := o.httpClient.Do(httpReq)
	if err != nil {
		log.Error().Err(err).Str("req_id", rid).Msg("OpenAI request failed")
		return "", adapter.Classify(service, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", adapter.Classify(service, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(raw))
		var eb openAIErrorBody
		if json.Unmarshal(raw, &eb) == nil && eb.Error.Message != "" {
			msg = eb.Error.Message
		}
		log.Error().Str("req_id", rid).Int("status", resp.StatusCode).Str("message", msg).Msg("OpenAI rejected request")
		return "", adapter.Rejected(service, resp.StatusCode, msg)
	}

	var cc chatResponse
	if err := json.Unmarshal(raw, &cc); err != nil {
		return "", adapter.Malformed(service, "decode response: %v", err)
	}
	if len(cc.Choices) == 0 {
		return "", adapter.Malformed(service, "no choices in response")
	}
	content := strings.TrimSpace(cc.Choices[0].Message.Content)
	if content == "" {
		return "", adapter.Malformed(service, "empty message content")
	}

	log.Debug().
		Str("req_id", rid).
		Int("response_length", len(content)).
		Dur("duration", time.Since(start)).
		Msg("Received response from OpenAI")
	return content, nil
}
