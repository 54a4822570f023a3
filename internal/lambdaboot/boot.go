// Package lambdaboot provides shared AWS cold-start bootstrap logic: AWS
// config, S3 clients for processed images, and secrets from SSM Parameter
// Store.
package lambdaboot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog/log"

	"github.com/fpang/product-listai/internal/config"
	"github.com/fpang/product-listai/internal/logging"
)

// AWSClients holds the core AWS SDK clients.
type AWSClients struct {
	Config aws.Config
	SSM    *ssm.Client
}

// S3Clients holds S3 client, presigner, and bucket name.
type S3Clients struct {
	Client    *s3.Client
	Presigner *s3.PresignClient
	Bucket    string
}

// ParameterGetter is the subset of *ssm.Client used to load secrets.
type ParameterGetter interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// InitAWS loads the default AWS config and returns it along with common clients.
func InitAWS(ctx context.Context) (AWSClients, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return AWSClients{}, fmt.Errorf("load AWS config: %w", err)
	}
	log.Debug().Str("region", cfg.Region).Msg("AWS config loaded")
	return AWSClients{
		Config: cfg,
		SSM:    ssm.NewFromConfig(cfg),
	}, nil
}

// InitS3 creates an S3 client and presigner for bucket. Returns nil when no
// bucket is configured.
func InitS3(cfg aws.Config, bucket string) *S3Clients {
	if bucket == "" {
		log.Warn().Msg("Media bucket not set, background removal disabled")
		return nil
	}
	client := s3.NewFromConfig(cfg)
	return &S3Clients{
		Client:    client,
		Presigner: s3.NewPresignClient(client),
		Bucket:    bucket,
	}
}

// LoadSecret reads one SecureString parameter.
func LoadSecret(ctx context.Context, client ParameterGetter, paramName string) (string, error) {
	result, err := client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           &paramName,
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("get parameter %s: %w", paramName, err)
	}
	if result.Parameter == nil || result.Parameter.Value == nil {
		return "", fmt.Errorf("get parameter %s: empty value", paramName)
	}
	return *result.Parameter.Value, nil
}

// LoadSecrets fills every empty secret in cfg from SSM under cfg.SSMPrefix.
// Missing parameters are logged and left empty so the features that need
// them report themselves as not configured. The joined error lists every
// parameter that could not be read.
func LoadSecrets(ctx context.Context, client ParameterGetter, cfg *config.Config, startup *logging.StartupLogger) error {
	var errs []error
	for _, secret := range cfg.Secrets() {
		if *secret.Value != "" {
			continue
		}
		param := cfg.SSMPrefix + secret.Name
		start := time.Now()
		value, err := LoadSecret(ctx, client, param)
		if err != nil {
			log.Warn().Err(err).Str("param", param).Msg("Secret not loaded from SSM")
			errs = append(errs, err)
			continue
		}
		*secret.Value = value
		if startup != nil {
			startup.SSMParam(secret.Name, param)
		}
		log.Debug().Str("param", param).Dur("elapsed", time.Since(start)).Msg("Secret loaded from SSM")
	}
	return errors.Join(errs...)
}

// StartupLog is a convenience wrapper for the startup logger.
func StartupLog(name string, initStart time.Time) *logging.StartupLogger {
	return logging.NewStartupLogger(name).InitDuration(time.Since(initStart))
}
