// Package config resolves runtime configuration from environment variables.
// Secrets left empty here may be filled from SSM Parameter Store by
// lambdaboot.LoadSecrets before dependencies are constructed.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fpang/product-listai/internal/chat"
	"github.com/fpang/product-listai/internal/logging"
)

// Defaults for optional settings.
const (
	DefaultTimeout           = 60 * time.Second
	DefaultPort              = "8080"
	DefaultSSMPrefix         = "/product-listai/prod/"
	DefaultTranscriptTokens  = 300
	DefaultShopifyAPIVersion = "2024-10"
)

// Config is the full runtime configuration.
type Config struct {
	// Generation provider: "gemini" (default) or "openai".
	Provider            string
	GeminiAPIKey        string
	OpenAIAPIKey        string
	OpenAIBaseURL       string
	TextModel           string
	VisionModel         string
	TranscriptMaxTokens int32

	ClipDropAPIKey   string
	ClipDropEndpoint string

	ShopDomain           string
	ShopifyAccessToken   string
	ShopifyAPIVersion    string
	ShopifyWebhookSecret string

	MediaBucket        string
	MediaPublicBaseURL string

	Timeout    time.Duration
	Port       string
	CORSOrigin string

	// SSMPrefix is prepended to secret names when loading from SSM.
	SSMPrefix string
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	cfg := Config{
		Provider:             strings.ToLower(logging.EnvOrDefault("LLM_PROVIDER", chat.ProviderGemini)),
		GeminiAPIKey:         logging.EnvOrDefault("GEMINI_API_KEY", ""),
		OpenAIAPIKey:         logging.EnvOrDefault("OPENAI_API_KEY", ""),
		OpenAIBaseURL:        logging.EnvOrDefault("OPENAI_BASE_URL", chat.DefaultOpenAIBaseURL),
		ClipDropAPIKey:       logging.EnvOrDefault("CLIPDROP_API_KEY", ""),
		ClipDropEndpoint:     logging.EnvOrDefault("CLIPDROP_ENDPOINT", ""),
		ShopDomain:           logging.EnvOrDefault("SHOPIFY_SHOP", ""),
		ShopifyAccessToken:   logging.EnvOrDefault("SHOPIFY_ACCESS_TOKEN", ""),
		ShopifyAPIVersion:    logging.EnvOrDefault("SHOPIFY_API_VERSION", DefaultShopifyAPIVersion),
		ShopifyWebhookSecret: logging.EnvOrDefault("SHOPIFY_API_SECRET", ""),
		MediaBucket:          logging.EnvOrDefault("LISTAI_MEDIA_BUCKET", ""),
		MediaPublicBaseURL:   logging.EnvOrDefault("LISTAI_MEDIA_BASE_URL", ""),
		Port:                 logging.EnvOrDefault("PORT", DefaultPort),
		CORSOrigin:           logging.EnvOrDefault("LISTAI_CORS_ORIGIN", ""),
		SSMPrefix:            logging.EnvOrDefault("LISTAI_SSM_PREFIX", DefaultSSMPrefix),
	}

	switch cfg.Provider {
	case chat.ProviderGemini, chat.ProviderOpenAI:
	default:
		return Config{}, fmt.Errorf("LLM_PROVIDER: unsupported provider %q", cfg.Provider)
	}

	textModel, visionModel := chat.DefaultModels(cfg.Provider)
	cfg.TextModel = logging.EnvOrDefault("LISTAI_TEXT_MODEL", textModel)
	cfg.VisionModel = logging.EnvOrDefault("LISTAI_VISION_MODEL", visionModel)

	timeout, err := time.ParseDuration(logging.EnvOrDefault("LISTAI_TIMEOUT", DefaultTimeout.String()))
	if err != nil || timeout <= 0 {
		return Config{}, fmt.Errorf("LISTAI_TIMEOUT: invalid duration %q", logging.EnvOrDefault("LISTAI_TIMEOUT", ""))
	}
	cfg.Timeout = timeout

	tokens, err := strconv.ParseInt(logging.EnvOrDefault("LISTAI_TRANSCRIPT_MAX_TOKENS", strconv.Itoa(DefaultTranscriptTokens)), 10, 32)
	if err != nil || tokens <= 0 {
		return Config{}, fmt.Errorf("LISTAI_TRANSCRIPT_MAX_TOKENS: must be a positive integer")
	}
	cfg.TranscriptMaxTokens = int32(tokens)

	return cfg, nil
}

// GenerationAPIKey returns the API key for the selected provider.
func (c Config) GenerationAPIKey() string {
	if c.Provider == chat.ProviderOpenAI {
		return c.OpenAIAPIKey
	}
	return c.GeminiAPIKey
}

// ShopifyConfigured reports whether platform credentials are present.
func (c Config) ShopifyConfigured() bool {
	return c.ShopDomain != "" && c.ShopifyAccessToken != ""
}

// Secret is an SSM-backed secret slot in Config.
type Secret struct {
	Name  string  // parameter name under SSMPrefix
	Value *string // field to fill
}

// Secrets lists the secrets that may be loaded from SSM when unset. Only the
// generation key of the selected provider is included.
func (c *Config) Secrets() []Secret {
	secrets := []Secret{
		{Name: "clipdrop-api-key", Value: &c.ClipDropAPIKey},
		{Name: "shopify-access-token", Value: &c.ShopifyAccessToken},
		{Name: "shopify-api-secret", Value: &c.ShopifyWebhookSecret},
	}
	if c.Provider == chat.ProviderOpenAI {
		return append([]Secret{{Name: "openai-api-key", Value: &c.OpenAIAPIKey}}, secrets...)
	}
	return append([]Secret{{Name: "gemini-api-key", Value: &c.GeminiAPIKey}}, secrets...)
}
