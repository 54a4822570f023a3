// Package main is the operator CLI: list and inspect products, run the
// enhancement operations against one product, and serve the HTTP API
// locally.
package main

import (
	"os"

	"github.com/fpang/product-listai/internal/logging"
	"github.com/spf13/cobra"
)

// rootCmd is the main Cobra command for the CLI.
var rootCmd = &cobra.Command{
	Use:   "listai",
	Short: "AI-assisted product listing enhancement for Shopify",
	Long: `ListAI improves Shopify product listings: it rewrites descriptions with a
language model, removes image backgrounds, and drafts descriptions from the
product image. Nothing is written to Shopify until you save.

Examples:
  listai products list --status active
  listai product show 8123456789
  listai enhance 8123456789 --save
  listai remove-bg 8123456789
  listai transcript 8123456789 --accept --save --yes
  listai serve --port 9090
  listai check`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init()
	},
}

func init() {
	rootCmd.AddCommand(productsCmd, productCmd, enhanceCmd, removeBgCmd, transcriptCmd, serveCmd, checkCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
