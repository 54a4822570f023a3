package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fpang/product-listai/internal/enhance"
	"github.com/fpang/product-listai/internal/product"
	"github.com/fpang/product-listai/internal/textutil"
)

const previewLen = 60

// PrintProducts writes a product table followed by the status counts.
func PrintProducts(w io.Writer, products []product.Product, counts product.StatusCounts) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tPRICE\tINVENTORY\tTITLE")
	for _, p := range products {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
			shortID(p.PlatformID), p.Status, p.Price.StringFixed(2), p.TotalInventory, p.Title)
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d products (%d active, %d draft, %d archived)\n",
		counts.Total, counts.Active, counts.Draft, counts.Archived)
}

// PrintProduct writes one product's editable fields.
func PrintProduct(w io.Writer, p product.Product) {
	fmt.Fprintf(w, "Product:     %s\n", p.PlatformID)
	fmt.Fprintf(w, "Title:       %s\n", p.Title)
	fmt.Fprintf(w, "Status:      %s\n", p.Status)
	fmt.Fprintf(w, "Price:       %s\n", p.Price.StringFixed(2))
	fmt.Fprintf(w, "Inventory:   %d\n", p.TotalInventory)
	fmt.Fprintf(w, "Image:       %s\n", orNone(p.ImageURL))
	fmt.Fprintf(w, "Description:\n%s\n", indent(orNone(p.DescriptionHTML)))
}

// PrintOutcome writes the result of one orchestrator call.
func PrintOutcome(w io.Writer, out enhance.Outcome) {
	if !out.OK() {
		rec := out.ErrorRecord()
		fmt.Fprintf(w, "%s failed [%s]: %s\n", out.Operation, rec.Kind, rec.Message)
		return
	}
	fmt.Fprintf(w, "%s succeeded\n", out.Operation)
	if out.Value != "" {
		fmt.Fprintf(w, "%s\n", indent(out.Value))
	}
	if out.Session.RemoteChangedAt != nil {
		fmt.Fprintf(w, "warning: product changed on Shopify at %s\n", out.Session.RemoteChangedAt.Format("2006-01-02 15:04:05"))
	}
}

// Preview shortens HTML to a single line for log output.
func Preview(html string) string {
	return textutil.Truncate(strings.Join(strings.Fields(html), " "), previewLen)
}

func shortID(platformID string) string {
	if i := strings.LastIndex(platformID, "/"); i >= 0 {
		return platformID[i+1:]
	}
	return platformID
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(none)"
	}
	return s
}

func indent(s string) string {
	return "  " + strings.ReplaceAll(strings.TrimSpace(s), "\n", "\n  ")
}
