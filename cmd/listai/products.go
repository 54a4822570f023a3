package main

import (
	"context"
	"os"

	"github.com/fpang/product-listai/internal/cli"
	"github.com/fpang/product-listai/internal/product"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	statusFlag string
	firstFlag  int
)

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "Work with the shop's product catalogue",
}

var productsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List products with status counts",
	Args:  cobra.NoArgs,
	Run:   runProductsList,
}

var productCmd = &cobra.Command{
	Use:   "product",
	Short: "Inspect a single product",
}

var productShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a product's description and image",
	Args:  cobra.ExactArgs(1),
	Run:   runProductShow,
}

func init() {
	productsListCmd.Flags().StringVar(&statusFlag, "status", "all", "Filter by status: all, active, draft, archived")
	productsListCmd.Flags().IntVar(&firstFlag, "first", 100, "Number of products to fetch (max 250)")
	productsCmd.AddCommand(productsListCmd)
	productCmd.AddCommand(productShowCmd)
}

func runProductsList(cmd *cobra.Command, args []string) {
	var (
		status    product.Status
		filtering bool
	)
	if statusFlag != "all" {
		st, ok := product.ParseStatus(statusFlag)
		if !ok {
			log.Fatal().Str("status", statusFlag).Msg("Unknown status; use all, active, draft, or archived")
		}
		status, filtering = st, true
	}

	ctx := context.Background()
	svc := cli.InitServices(ctx, cli.LoadConfig())
	cli.RequireShopify(svc)

	all, err := svc.Shopify.ListProducts(ctx, firstFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list products")
	}

	shown := all
	if filtering {
		shown = product.FilterByStatus(all, status)
	}
	cli.PrintProducts(os.Stdout, shown, product.CountByStatus(all))
}

func runProductShow(cmd *cobra.Command, args []string) {
	id := cli.ParseProductID(args[0])

	ctx := context.Background()
	svc := cli.InitServices(ctx, cli.LoadConfig())
	cli.RequireShopify(svc)

	o, err := svc.Sessions.Open(ctx, id)
	if err != nil {
		log.Fatal().Err(err).Int64("productId", id).Msg("Failed to load product")
	}
	cli.PrintProduct(os.Stdout, o.Store().Read())
}
