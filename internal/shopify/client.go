// Package shopify is the platform sync gateway: it commits enhanced product
// content through the Shopify REST Admin API and loads products through the
// GraphQL Admin API.
//
// Credentials are an opaque bundle (shop domain + Admin API access token)
// obtained by the embedding application; OAuth is not handled here.
package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fpang/product-listai/internal/textutil"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	// DefaultAPIVersion is the Admin API version used for every request.
	DefaultAPIVersion = "2024-10"

	// defaultTimeout is the HTTP client timeout for API calls.
	defaultTimeout = 30 * time.Second

	// accessTokenHeader carries the Admin API access token.
	accessTokenHeader = "X-Shopify-Access-Token"

	// Admin API leaky bucket: 40 requests, refilled at 2 per second.
	requestsPerSecond = 2
	requestBurst      = 40
)

// Credentials identify the shop and authorize Admin API calls.
type Credentials struct {
	Shop        string // e.g. "example.myshopify.com"
	AccessToken string
}

// Client talks to one shop's Admin API.
type Client struct {
	httpClient  *http.Client
	accessToken string
	baseURL     string // https://{shop}/admin/api/{version}
	rateLimiter *rate.Limiter
}

// NewClient creates a Shopify Admin API client. A zero timeout uses the
// default.
func NewClient(creds Credentials, apiVersion string, timeout time.Duration) *Client {
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	shop := strings.TrimSuffix(strings.TrimPrefix(creds.Shop, "https://"), "/")
	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		accessToken: creds.AccessToken,
		baseURL:     fmt.Sprintf("https://%s/admin/api/%s", shop, apiVersion),
		rateLimiter: rate.NewLimiter(rate.Limit(requestsPerSecond), requestBurst),
	}
}

// do sends a JSON request and returns the status code and raw body. Transport
// and request preparation failures are returned as *SyncError, as is a
// missing token.
func (c *Client) do(ctx context.Context, method, endpoint string, payload any) (int, []byte, error) {
	if c.accessToken == "" {
		return 0, nil, &SyncError{Kind: Unauthorized, Errors: []string{"access token is not configured"}}
	}

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, &SyncError{Kind: Unreachable, Err: fmt.Errorf("marshal request: %w", err)}
		}
		body = bytes.NewReader(b)
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return 0, nil, &SyncError{Kind: Unreachable, Err: fmt.Errorf("rate limiter: %w", err)}
	}

	startTime := time.Now()
	log.Debug().Str("method", method).Str("path", endpoint).Msg("Shopify API request")

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return 0, nil, &SyncError{Kind: Unreachable, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(accessTokenHeader, c.accessToken)

	resp, err := c.httpClient.Do(req)
	duration := time.Since(startTime)
	if err != nil {
		log.Debug().Int("statusCode", 0).Dur("duration", duration).Err(err).Msg("Shopify API response")
		return 0, nil, &SyncError{Kind: Unreachable, Err: err}
	}
	defer resp.Body.Close()

	log.Debug().Int("statusCode", resp.StatusCode).Dur("duration", duration).Msg("Shopify API response")

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, &SyncError{Kind: Unreachable, Status: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return resp.StatusCode, raw, &SyncError{Kind: Unauthorized, Status: resp.StatusCode, Errors: parseErrors(raw)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errs := parseErrors(raw)
		log.Error().
			Int("statusCode", resp.StatusCode).
			Strs("errors", errs).
			Str("body", textutil.Truncate(string(raw), 200)).
			Msg("Shopify API error")
		return resp.StatusCode, raw, &SyncError{Kind: RemoteRejected, Status: resp.StatusCode, Errors: errs}
	}
	return resp.StatusCode, raw, nil
}
