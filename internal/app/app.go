// Package app builds the service graph shared by the CLI and the Lambda
// entry point from a resolved config.Config.
package app

import (
	"context"
	"fmt"

	"github.com/fpang/product-listai/internal/adapter"
	"github.com/fpang/product-listai/internal/chat"
	"github.com/fpang/product-listai/internal/config"
	"github.com/fpang/product-listai/internal/enhance"
	"github.com/fpang/product-listai/internal/lambdaboot"
	"github.com/fpang/product-listai/internal/logging"
	"github.com/fpang/product-listai/internal/s3util"
	"github.com/fpang/product-listai/internal/session"
	"github.com/fpang/product-listai/internal/shopify"
	"github.com/fpang/product-listai/internal/webhook"
	"github.com/rs/zerolog/log"
)

// Services is the wired dependency graph. Optional members are nil when
// their configuration is missing.
type Services struct {
	Config    config.Config
	Generator adapter.Generator
	Shopify   *shopify.Client
	Deps      enhance.Deps
	Sessions  *session.Manager
	Webhook   *webhook.Handler
}

// Build constructs every service the configuration allows. s3c may be nil,
// in which case background removal is disabled.
func Build(ctx context.Context, cfg config.Config, s3c *lambdaboot.S3Clients) (*Services, error) {
	svc := &Services{Config: cfg}

	gen, err := NewGenerator(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if gen != nil {
		svc.Generator = gen
		svc.Deps.Text = adapter.NewTextEnhancer(gen, adapter.TextConfig{
			Model:   cfg.TextModel,
			Timeout: cfg.Timeout,
		})
		svc.Deps.Transcript = adapter.NewTranscriptGenerator(gen, adapter.VisionConfig{
			Model:           cfg.VisionModel,
			MaxOutputTokens: cfg.TranscriptMaxTokens,
			Timeout:         cfg.Timeout,
		})
	} else {
		log.Warn().Str("provider", cfg.Provider).Msg("Generation API key not set, text enhancement and transcripts disabled")
	}

	switch {
	case cfg.ClipDropAPIKey == "":
		log.Warn().Msg("CLIPDROP_API_KEY not set, background removal disabled")
	case s3c == nil:
		log.Warn().Msg("No media bucket, background removal disabled")
	default:
		if cfg.MediaPublicBaseURL == "" {
			log.Warn().Dur("expiry", s3util.DefaultPresignExpiry).Msg("LISTAI_MEDIA_BASE_URL not set, processed images use presigned URLs")
		}
		store := s3util.NewImageStore(s3c.Client, s3c.Presigner, s3util.ImageStoreConfig{
			Bucket:        s3c.Bucket,
			PublicBaseURL: cfg.MediaPublicBaseURL,
		})
		svc.Deps.Background = adapter.NewBackgroundRemover(adapter.BackgroundConfig{
			Endpoint: cfg.ClipDropEndpoint,
			APIKey:   cfg.ClipDropAPIKey,
			Timeout:  cfg.Timeout,
		}, store)
	}

	var loader session.Loader
	if cfg.ShopifyConfigured() {
		svc.Shopify = shopify.NewClient(shopify.Credentials{
			Shop:        cfg.ShopDomain,
			AccessToken: cfg.ShopifyAccessToken,
		}, cfg.ShopifyAPIVersion, cfg.Timeout)
		svc.Deps.Gateway = svc.Shopify
		loader = svc.Shopify
	} else {
		log.Warn().Msg("SHOPIFY_SHOP or SHOPIFY_ACCESS_TOKEN not set, product loading and saving disabled")
	}

	svc.Sessions = session.NewManager(loader, svc.Deps)

	if cfg.ShopifyWebhookSecret != "" {
		svc.Webhook = webhook.NewHandler(cfg.ShopifyWebhookSecret, svc.Sessions)
	}

	return svc, nil
}

// NewGenerator creates the generation backend for cfg.Provider. It returns
// nil without error when the provider's API key is not set.
func NewGenerator(ctx context.Context, cfg config.Config) (adapter.Generator, error) {
	key := cfg.GenerationAPIKey()
	if key == "" {
		return nil, nil
	}
	switch cfg.Provider {
	case chat.ProviderOpenAI:
		gen, err := chat.NewOpenAIGenerator(chat.OpenAIConfig{
			APIKey:  key,
			BaseURL: cfg.OpenAIBaseURL,
			Timeout: cfg.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("create OpenAI generator: %w", err)
		}
		return gen, nil
	default:
		gen, err := chat.NewGeminiGenerator(ctx, chat.GeminiConfig{
			APIKey:  key,
			Timeout: cfg.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("create Gemini generator: %w", err)
		}
		return gen, nil
	}
}

// Describe records the wired features on a startup summary.
func (s *Services) Describe(startup *logging.StartupLogger) *logging.StartupLogger {
	return startup.
		Feature("textEnhancement", s.Deps.Text != nil).
		Feature("transcripts", s.Deps.Transcript != nil).
		Feature("backgroundRemoval", s.Deps.Background != nil).
		Feature("shopify", s.Shopify != nil).
		Feature("webhooks", s.Webhook != nil).
		Config("provider", s.Config.Provider).
		Config("textModel", s.Config.TextModel).
		Config("visionModel", s.Config.VisionModel).
		Config("shop", s.Config.ShopDomain).
		Config("timeout", s.Config.Timeout.String())
}
