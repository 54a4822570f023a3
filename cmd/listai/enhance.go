package main

import (
	"context"
	"os"

	"github.com/fpang/product-listai/internal/cli"
	"github.com/fpang/product-listai/internal/enhance"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	saveFlag   bool
	yesFlag    bool
	acceptFlag bool
)

var enhanceCmd = &cobra.Command{
	Use:   "enhance <id>",
	Short: "Rewrite a product description with the language model",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runOperation(args[0], func(ctx context.Context, o *enhance.Orchestrator) enhance.Outcome {
			return o.EnhanceDescription(ctx)
		})
	},
}

var removeBgCmd = &cobra.Command{
	Use:   "remove-bg <id>",
	Short: "Replace a product image with a background-free copy",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runOperation(args[0], func(ctx context.Context, o *enhance.Orchestrator) enhance.Outcome {
			return o.RemoveBackground(ctx)
		})
	},
}

var transcriptCmd = &cobra.Command{
	Use:   "transcript <id>",
	Short: "Draft a product description from the product image",
	Long: `Transcript asks a vision model to describe the product image. The draft
is printed and only replaces the description when --accept is given.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runOperation(args[0], func(ctx context.Context, o *enhance.Orchestrator) enhance.Outcome {
			out := o.GenerateTranscript(ctx)
			if !out.OK() || !acceptFlag {
				return out
			}
			cli.PrintOutcome(os.Stdout, out)
			return o.AcceptTranscript()
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{enhanceCmd, removeBgCmd, transcriptCmd} {
		c.Flags().BoolVar(&saveFlag, "save", false, "Save the result to Shopify")
		c.Flags().BoolVarP(&yesFlag, "yes", "y", false, "Do not ask for confirmation before saving")
	}
	transcriptCmd.Flags().BoolVar(&acceptFlag, "accept", false, "Replace the description with the draft")
}

// runOperation opens a session for the product, runs op, and optionally
// saves. Exits non-zero when any step fails.
func runOperation(arg string, op func(context.Context, *enhance.Orchestrator) enhance.Outcome) {
	id := cli.ParseProductID(arg)

	ctx := context.Background()
	svc := cli.InitServices(ctx, cli.LoadConfig())
	cli.RequireShopify(svc)

	o, err := svc.Sessions.Open(ctx, id)
	if err != nil {
		log.Fatal().Err(err).Int64("productId", id).Msg("Failed to load product")
	}
	before := o.Store().Read()
	log.Info().
		Str("product", before.PlatformID).
		Str("title", before.Title).
		Str("description", cli.Preview(before.DescriptionHTML)).
		Msg("Product loaded")

	out := op(ctx, o)
	cli.PrintOutcome(os.Stdout, out)
	if !out.OK() {
		os.Exit(1)
	}

	if !saveFlag {
		return
	}
	if !yesFlag && !cli.Confirm(os.Stdin, os.Stdout, "Save to Shopify?") {
		log.Info().Msg("Not saved")
		return
	}
	saved := o.Save(ctx)
	cli.PrintOutcome(os.Stdout, saved)
	if !saved.OK() {
		os.Exit(1)
	}
}
