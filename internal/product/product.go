// Package product holds the in-memory product entity and the per-session
// enhancement state that the orchestrator mutates.
package product

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the publication status reported by the commerce platform.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusDraft    Status = "DRAFT"
	StatusArchived Status = "ARCHIVED"
)

// ParseStatus maps a case-insensitive filter value to a Status.
// Returns false for "all", empty, or unknown values.
func ParseStatus(s string) (Status, bool) {
	switch Status(strings.ToUpper(strings.TrimSpace(s))) {
	case StatusActive:
		return StatusActive, true
	case StatusDraft:
		return StatusDraft, true
	case StatusArchived:
		return StatusArchived, true
	}
	return "", false
}

// Product is the platform record being enriched. Title, Price,
// TotalInventory, CreatedAt and Status are display-only. UpdatedAt is the
// platform's last modification time as known locally.
type Product struct {
	PlatformID      string          `json:"platformId"`
	Title           string          `json:"title"`
	Price           decimal.Decimal `json:"priceAmount"`
	TotalInventory  int             `json:"inventoryCount"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
	DescriptionHTML string          `json:"descriptionHtml"`
	ImageURL        string          `json:"imageUrl"`
	Status          Status          `json:"status"`
}

// FilterByStatus returns the products with the given status, preserving order.
func FilterByStatus(products []Product, status Status) []Product {
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if p.Status == status {
			out = append(out, p)
		}
	}
	return out
}

// StatusCounts summarises a product listing for the dashboard header.
type StatusCounts struct {
	Total    int `json:"total"`
	Active   int `json:"active"`
	Draft    int `json:"draft"`
	Archived int `json:"archived"`
}

// CountByStatus tallies products per status.
func CountByStatus(products []Product) StatusCounts {
	c := StatusCounts{Total: len(products)}
	for _, p := range products {
		switch p.Status {
		case StatusActive:
			c.Active++
		case StatusDraft:
			c.Draft++
		case StatusArchived:
			c.Archived++
		}
	}
	return c
}
