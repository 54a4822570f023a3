package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/fpang/product-listai/internal/product"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const (
	// DefaultPageSize is the number of products fetched by ListProducts.
	DefaultPageSize = 100
	// maxPageSize is the GraphQL connection limit.
	maxPageSize = 250
)

const productFields = `
  id
  title
  descriptionHtml
  status
  totalInventory
  createdAt
  updatedAt
  featuredImage { url }
  priceRange { minVariantPrice { amount } }`

const productQuery = `query Product($id: ID!) {
  product(id: $id) {` + productFields + `
  }
}`

const productsQuery = `query Products($first: Int!) {
  products(first: $first) {
    edges {
      node {` + productFields + `
      }
    }
  }
}`

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type gqlProduct struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	DescriptionHTML string `json:"descriptionHtml"`
	Status          string `json:"status"`
	TotalInventory  int    `json:"totalInventory"`
	CreatedAt       string `json:"createdAt"`
	UpdatedAt       string `json:"updatedAt"`
	FeaturedImage   *struct {
		URL string `json:"url"`
	} `json:"featuredImage"`
	PriceRange struct {
		MinVariantPrice struct {
			Amount string `json:"amount"`
		} `json:"minVariantPrice"`
	} `json:"priceRange"`
}

// FetchProduct loads one product by its global ID.
func (c *Client) FetchProduct(ctx context.Context, platformID string) (product.Product, error) {
	var data struct {
		Product *gqlProduct `json:"product"`
	}
	if err := c.graphql(ctx, productQuery, map[string]any{"id": platformID}, &data); err != nil {
		return product.Product{}, err
	}
	if data.Product == nil {
		return product.Product{}, fmt.Errorf("%s: %w", platformID, ErrProductNotFound)
	}
	return toProduct(*data.Product), nil
}

// ListProducts loads the first n products. n is clamped to [1, 250]; zero
// means DefaultPageSize.
func (c *Client) ListProducts(ctx context.Context, n int) ([]product.Product, error) {
	switch {
	case n <= 0:
		n = DefaultPageSize
	case n > maxPageSize:
		n = maxPageSize
	}

	var data struct {
		Products struct {
			Edges []struct {
				Node gqlProduct `json:"node"`
			} `json:"edges"`
		} `json:"products"`
	}
	if err := c.graphql(ctx, productsQuery, map[string]any{"first": n}, &data); err != nil {
		return nil, err
	}

	out := make([]product.Product, 0, len(data.Products.Edges))
	for _, e := range data.Products.Edges {
		out = append(out, toProduct(e.Node))
	}
	log.Debug().Int("count", len(out)).Msg("Products listed")
	return out, nil
}

// graphql posts a query and decodes the "data" member into out. GraphQL-level
// errors are reported as RemoteRejected.
func (c *Client) graphql(ctx context.Context, query string, vars map[string]any, out any) error {
	status, raw, err := c.do(ctx, http.MethodPost, "/graphql.json", gqlRequest{Query: query, Variables: vars})
	if err != nil {
		return err
	}

	var resp struct {
		Data   json.RawMessage `json:"data"`
		Errors json.RawMessage `json:"errors"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return &SyncError{Kind: RemoteRejected, Status: status, Errors: []string{"unparseable GraphQL response"}, Err: err}
	}
	if len(resp.Errors) > 0 && string(resp.Errors) != "null" {
		errs := parseErrors(raw)
		log.Error().Strs("errors", errs).Msg("Shopify GraphQL error")
		return &SyncError{Kind: RemoteRejected, Status: status, Errors: errs}
	}
	if len(resp.Data) == 0 {
		return &SyncError{Kind: RemoteRejected, Status: status, Errors: []string{"GraphQL response has no data"}}
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return &SyncError{Kind: RemoteRejected, Status: status, Errors: []string{"unexpected GraphQL data shape"}, Err: err}
	}
	return nil
}

func toProduct(g gqlProduct) product.Product {
	p := product.Product{
		PlatformID:      g.ID,
		Title:           g.Title,
		DescriptionHTML: g.DescriptionHTML,
		TotalInventory:  g.TotalInventory,
		Status:          product.Status(g.Status),
	}
	if g.FeaturedImage != nil {
		p.ImageURL = g.FeaturedImage.URL
	}
	if amount := g.PriceRange.MinVariantPrice.Amount; amount != "" {
		if d, err := decimal.NewFromString(amount); err == nil {
			p.Price = d
		} else {
			log.Warn().Str("productId", g.ID).Str("amount", amount).Msg("Unparseable product price")
		}
	}
	if g.CreatedAt != "" {
		if t, err := time.Parse(time.RFC3339, g.CreatedAt); err == nil {
			p.CreatedAt = t
		}
	}
	if g.UpdatedAt != "" {
		if t, err := time.Parse(time.RFC3339, g.UpdatedAt); err == nil {
			p.UpdatedAt = t
		}
	}
	return p
}
