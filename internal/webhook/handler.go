// Package webhook receives Shopify webhook notifications and flags open
// enhancement sessions whose product changed on the platform.
//
// Shopify POSTs a JSON payload with:
//   - X-Shopify-Topic: e.g. "products/update"
//   - X-Shopify-Hmac-Sha256: base64 HMAC-SHA256 of the raw body keyed with
//     the app's client secret
//   - X-Shopify-Shop-Domain: the shop that emitted the event
//
// Reference: https://shopify.dev/docs/apps/build/webhooks/subscribe/https
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// maxBodySize is the maximum allowed request body size (1 MB).
const maxBodySize = 1 << 20

const (
	TopicProductsUpdate = "products/update"
	TopicProductsDelete = "products/delete"
)

// Invalidator is notified when a product changes remotely. Implemented by
// *session.Manager.
type Invalidator interface {
	Invalidate(numericID int64, at time.Time) bool
}

// Handler validates and dispatches Shopify webhook notifications.
type Handler struct {
	appSecret string
	sessions  Invalidator
	now       func() time.Time
}

// NewHandler creates a webhook handler. appSecret is the Shopify app client
// secret used to validate X-Shopify-Hmac-Sha256.
func NewHandler(appSecret string, sessions Invalidator) *Handler {
	return &Handler{
		appSecret: appSecret,
		sessions:  sessions,
		now:       time.Now,
	}
}

type productPayload struct {
	ID        int64  `json:"id"`
	UpdatedAt string `json:"updated_at"`
}

// ServeHTTP handles one webhook delivery. Deliveries for unhandled topics
// are acknowledged so Shopify does not retry them.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		log.Error().Err(err).Msg("Webhook event: failed to read body")
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if len(body) == 0 {
		log.Warn().Msg("Webhook event: empty body")
		http.Error(w, "empty body", http.StatusBadRequest)
		return
	}

	signature := r.Header.Get("X-Shopify-Hmac-Sha256")
	if signature == "" {
		log.Warn().Msg("Webhook event: missing X-Shopify-Hmac-Sha256 header")
		http.Error(w, "missing signature", http.StatusUnauthorized)
		return
	}
	if !h.verifySignature(body, signature) {
		log.Warn().Msg("Webhook event: invalid signature")
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	topic := r.Header.Get("X-Shopify-Topic")
	shop := r.Header.Get("X-Shopify-Shop-Domain")

	switch topic {
	case TopicProductsUpdate, TopicProductsDelete:
		var p productPayload
		if err := json.Unmarshal(body, &p); err != nil || p.ID <= 0 {
			log.Warn().Err(err).Str("topic", topic).Msg("Webhook event: unparseable product payload")
			http.Error(w, "invalid payload", http.StatusBadRequest)
			return
		}
		at := h.now()
		if t, err := time.Parse(time.RFC3339, p.UpdatedAt); err == nil {
			at = t
		}
		open := h.sessions.Invalidate(p.ID, at)
		log.Info().
			Str("topic", topic).
			Str("shop", shop).
			Int64("productId", p.ID).
			Bool("sessionOpen", open).
			Msg("Product webhook received")
	default:
		log.Info().
			Str("topic", topic).
			Str("shop", shop).
			Int("bodySize", len(body)).
			Msg("Webhook event ignored")
	}

	w.WriteHeader(http.StatusOK)
}

// verifySignature compares the base64 header value against the HMAC-SHA256
// of the body in constant time.
func (h *Handler) verifySignature(body []byte, header string) bool {
	received, err := base64.StdEncoding.DecodeString(header)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(h.appSecret))
	mac.Write(body)
	return hmac.Equal(received, mac.Sum(nil))
}
