package cli

import (
	"context"
	"strings"

	"github.com/fpang/product-listai/internal/app"
	"github.com/fpang/product-listai/internal/auth"
	"github.com/fpang/product-listai/internal/config"
	"github.com/fpang/product-listai/internal/lambdaboot"
	"github.com/rs/zerolog/log"
)

// LoadConfig resolves configuration for a local run. Secrets missing from
// the environment are read from GPG-encrypted credential files.
// Exits fatally on invalid configuration.
func LoadConfig() config.Config {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	for _, secret := range cfg.Secrets() {
		if *secret.Value != "" {
			continue
		}
		value, err := auth.GetSecret(secretEnvVar(secret.Name), secret.Name)
		if err != nil {
			log.Debug().Err(err).Str("secret", secret.Name).Msg("Secret not available")
			continue
		}
		*secret.Value = value
	}
	return cfg
}

// secretEnvVar maps a secret name to its environment variable:
// "gemini-api-key" -> "GEMINI_API_KEY".
func secretEnvVar(name string) string {
	return strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}

// InitServices builds the service graph for a local run. AWS is only
// initialised when a media bucket is configured.
// Exits fatally on failure.
func InitServices(ctx context.Context, cfg config.Config) *app.Services {
	var s3c *lambdaboot.S3Clients
	if cfg.MediaBucket != "" {
		clients, err := lambdaboot.InitAWS(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialise AWS")
		}
		s3c = lambdaboot.InitS3(clients.Config, cfg.MediaBucket)
	}

	svc, err := app.Build(ctx, cfg, s3c)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build services")
	}
	return svc
}

// RequireShopify exits when no Shopify client is configured.
func RequireShopify(svc *app.Services) {
	if svc.Shopify == nil {
		log.Fatal().Msg("Shopify is not configured. Set SHOPIFY_SHOP and SHOPIFY_ACCESS_TOKEN")
	}
}
