package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// CommittedProduct is the platform's view of a product after a commit.
type CommittedProduct struct {
	ID              int64
	DescriptionHTML string
	ImageURL        string
	UpdatedAt       time.Time
}

type restImage struct {
	Src string `json:"src"`
}

type restProduct struct {
	ID        int64       `json:"id"`
	BodyHTML  *string     `json:"body_html,omitempty"`
	Images    []restImage `json:"images,omitempty"`
	Image     *restImage  `json:"image,omitempty"`
	UpdatedAt string      `json:"updated_at,omitempty"`
}

type restProductEnvelope struct {
	Product restProduct `json:"product"`
}

// Commit replaces the product's description and image with the given values.
// The image list is omitted from the payload when imageURL is empty, leaving
// the existing images untouched. The returned values are the platform's
// normalized copy; a description missing from the response keeps the
// submitted one.
func (c *Client) Commit(ctx context.Context, numericID int64, descriptionHTML, imageURL string) (*CommittedProduct, error) {
	body := descriptionHTML
	payload := restProductEnvelope{Product: restProduct{ID: numericID, BodyHTML: &body}}
	if imageURL != "" {
		payload.Product.Images = []restImage{{Src: imageURL}}
	}

	log.Debug().
		Int64("productId", numericID).
		Int("descriptionLength", len(descriptionHTML)).
		Bool("hasImage", imageURL != "").
		Msg("Committing product to Shopify")

	_, raw, err := c.do(ctx, http.MethodPut, fmt.Sprintf("/products/%d.json", numericID), payload)
	if err != nil {
		return nil, err
	}

	var resp restProductEnvelope
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &SyncError{Kind: RemoteRejected, Status: http.StatusOK, Errors: []string{"unparseable product response"}, Err: err}
	}

	out := &CommittedProduct{ID: resp.Product.ID, DescriptionHTML: descriptionHTML}
	if resp.Product.BodyHTML != nil {
		out.DescriptionHTML = *resp.Product.BodyHTML
	}
	switch {
	case resp.Product.Image != nil && resp.Product.Image.Src != "":
		out.ImageURL = resp.Product.Image.Src
	case len(resp.Product.Images) > 0:
		out.ImageURL = resp.Product.Images[0].Src
	}
	if resp.Product.UpdatedAt != "" {
		if t, err := time.Parse(time.RFC3339, resp.Product.UpdatedAt); err == nil {
			out.UpdatedAt = t
		}
	}

	log.Info().Int64("productId", out.ID).Msg("Product committed to Shopify")
	return out, nil
}
