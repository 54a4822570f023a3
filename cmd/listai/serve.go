package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fpang/product-listai/internal/api"
	"github.com/fpang/product-listai/internal/cli"
	"github.com/fpang/product-listai/internal/logging"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var portFlag string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API locally",
	Args:  cobra.NoArgs,
	Run:   runServe,
}

func init() {
	serveCmd.Flags().StringVar(&portFlag, "port", "", "Port to listen on (default $PORT or 8080)")
}

func runServe(cmd *cobra.Command, args []string) {
	initStart := time.Now()
	ctx := context.Background()

	cfg := cli.LoadConfig()
	if portFlag != "" {
		cfg.Port = portFlag
	}
	svc := cli.InitServices(ctx, cfg)

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

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      api.New(opts).Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.Timeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info().Msg("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}()

	svc.Describe(logging.NewStartupLogger("listai serve")).
		CommitHash(commitHash).
		BuildTime(buildTime).
		S3Bucket("media", cfg.MediaBucket).
		InitDuration(time.Since(initStart)).
		Log()

	fmt.Printf("\n  ListAI API: http://localhost:%s/api/health\n\n", cfg.Port)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server failed")
	}
}
