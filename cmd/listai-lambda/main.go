// Package main provides the Lambda entry point for the ListAI HTTP API.
//
// It serves the same handler as `listai serve` behind API Gateway (HTTP API,
// payload v2). Secrets left unset in the environment are loaded from SSM
// Parameter Store at cold start under LISTAI_SSM_PREFIX:
//   - gemini-api-key or openai-api-key
//   - clipdrop-api-key
//   - shopify-access-token
//   - shopify-api-secret
//
// Sessions live in the Lambda's memory, so the function is meant to run with
// reserved concurrency of one.
package main

import (
	"context"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"

	"github.com/fpang/product-listai/internal/api"
	"github.com/fpang/product-listai/internal/app"
	"github.com/fpang/product-listai/internal/config"
	"github.com/fpang/product-listai/internal/lambdaboot"
	"github.com/fpang/product-listai/internal/logging"
	"github.com/rs/zerolog/log"
)

var handler http.Handler

func init() {
	initStart := time.Now()
	logging.Init()
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	aws, err := lambdaboot.InitAWS(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialise AWS")
	}

	startup := lambdaboot.StartupLog("listai-lambda", initStart).
		CommitHash(commitHash).
		BuildTime(buildTime)

	if err := lambdaboot.LoadSecrets(ctx, aws.SSM, &cfg, startup); err != nil {
		log.Warn().Err(err).Msg("Some secrets could not be loaded; dependent operations are disabled")
	}

	s3c := lambdaboot.InitS3(aws.Config, cfg.MediaBucket)
	svc, err := app.Build(ctx, cfg, s3c)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build services")
	}

	opts := api.Options{
		Sessions:   svc.Sessions,
		CORSOrigin: cfg.CORSOrigin,
	}
	if svc.Shopify != nil {
		opts.Products = svc.Shopify
	}
	if svc.Webhook != nil {
		opts.Webhook = svc.Webhook
	}
	handler = api.New(opts).Handler()

	svc.Describe(startup).
		S3Bucket("media", cfg.MediaBucket).
		InitDuration(time.Since(initStart)).
		Log()
}

func main() {
	adapter := httpadapter.NewV2(handler)
	lambda.Start(adapter.ProxyWithContext)
}
