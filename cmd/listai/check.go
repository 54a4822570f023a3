package main

import (
	"context"
	"fmt"

	"github.com/fpang/product-listai/internal/auth"
	"github.com/fpang/product-listai/internal/cli"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the configured credentials",
	Long: `Check sends a minimal request to the generation provider and to Shopify
to confirm the configured credentials work.`,
	Args: cobra.NoArgs,
	Run:  runCheck,
}

func runCheck(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	cfg := cli.LoadConfig()
	svc := cli.InitServices(ctx, cfg)

	if err := auth.ValidateGenerator(ctx, svc.Generator, cfg.TextModel); err != nil {
		cli.HandleValidationError(err)
	}

	var lister auth.ProductLister
	if svc.Shopify != nil {
		lister = svc.Shopify
	}
	if err := auth.ValidateShopify(ctx, lister); err != nil {
		cli.HandleValidationError(err)
	}

	if svc.Deps.Background == nil {
		log.Warn().Msg("Background removal is disabled; set CLIPDROP_API_KEY and LISTAI_MEDIA_BUCKET to enable it")
	}
	fmt.Printf("Credentials OK (provider %s, shop %s)\n", cfg.Provider, cfg.ShopDomain)
}
