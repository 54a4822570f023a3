package shopify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fpang/product-listai/internal/product"
	"golang.org/x/time/rate"
)

// newTestClient creates a Client pointing at a test HTTP server.
func newTestClient(server *httptest.Server) *Client {
	return &Client{
		httpClient:  server.Client(),
		accessToken: "shpat_test",
		baseURL:     server.URL + "/admin/api/2024-10",
		rateLimiter: rate.NewLimiter(rate.Inf, 1),
	}
}

func TestNewClientBaseURL(t *testing.T) {
	c := NewClient(Credentials{Shop: "https://demo.myshopify.com/", AccessToken: "t"}, "", 0)
	if c.baseURL != "https://demo.myshopify.com/admin/api/2024-10" {
		t.Errorf("baseURL = %q", c.baseURL)
	}
	if c.rateLimiter.Burst() != requestBurst {
		t.Errorf("burst = %d, want %d", c.rateLimiter.Burst(), requestBurst)
	}
}

func TestRateLimiterHonoursContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not reach the server")
	}))
	defer server.Close()

	c := newTestClient(server)
	c.rateLimiter = rate.NewLimiter(rate.Every(time.Hour), 1)
	c.rateLimiter.Allow()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := c.Commit(ctx, 1, "<p>x</p>", "")
	var se *SyncError
	if !errors.As(err, &se) || se.Kind != Unreachable {
		t.Fatalf("err = %v, want Unreachable SyncError", err)
	}
}

func TestCommit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("expected PUT, got %s", r.Method)
		}
		if r.URL.Path != "/admin/api/2024-10/products/555.json" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("X-Shopify-Access-Token") != "shpat_test" {
			t.Errorf("missing access token header")
		}

		var req struct {
			Product struct {
				ID       int64  `json:"id"`
				BodyHTML string `json:"body_html"`
				Images   []struct {
					Src string `json:"src"`
				} `json:"images"`
			} `json:"product"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if req.Product.ID != 555 || req.Product.BodyHTML != "<p>New</p>" {
			t.Errorf("unexpected payload: %+v", req.Product)
		}
		if len(req.Product.Images) != 1 || req.Product.Images[0].Src != "https://cdn.example.com/a.png" {
			t.Errorf("unexpected images: %+v", req.Product.Images)
		}

		w.Write([]byte(`{"product":{"id":555,"body_html":"<p>New</p>\n","updated_at":"2026-03-14T10:00:00-04:00",
			"images":[{"src":"https://cdn.shopify.com/s/files/a.png?v=1"}],
			"image":{"src":"https://cdn.shopify.com/s/files/a.png?v=1"}}}`))
	}))
	defer server.Close()

	got, err := newTestClient(server).Commit(context.Background(), 555, "<p>New</p>", "https://cdn.example.com/a.png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != 555 || got.DescriptionHTML != "<p>New</p>\n" {
		t.Errorf("unexpected committed product: %+v", got)
	}
	if got.ImageURL != "https://cdn.shopify.com/s/files/a.png?v=1" {
		t.Errorf("image = %q", got.ImageURL)
	}
	if got.UpdatedAt.IsZero() {
		t.Error("expected updated_at to be parsed")
	}
}

func TestCommitOmitsImagesWhenEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]map[string]any
		json.NewDecoder(r.Body).Decode(&req)
		if _, ok := req["product"]["images"]; ok {
			t.Error("images should be omitted when image URL is empty")
		}
		if _, ok := req["product"]["body_html"]; !ok {
			t.Error("body_html must always be sent")
		}
		w.Write([]byte(`{"product":{"id":9,"body_html":""}}`))
	}))
	defer server.Close()

	got, err := newTestClient(server).Commit(context.Background(), 9, "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ImageURL != "" {
		t.Errorf("image = %q", got.ImageURL)
	}
}

func TestCommitKeepsDescriptionWhenResponseOmitsIt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"product":{"id":9,"updated_at":"2026-03-14T10:00:00-04:00"}}`))
	}))
	defer server.Close()

	got, err := newTestClient(server).Commit(context.Background(), 9, "<p>Kept</p>", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.DescriptionHTML != "<p>Kept</p>" {
		t.Errorf("description = %q, want submitted value", got.DescriptionHTML)
	}
}

func TestCommitErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind SyncErrorKind
		wantErrs []string
	}{
		{"string errors", 401, `{"errors":"[API] Invalid API key or access token"}`, Unauthorized, []string{"[API] Invalid API key or access token"}},
		{"forbidden", 403, `{"errors":"Forbidden"}`, Unauthorized, []string{"Forbidden"}},
		{"field errors", 422, `{"errors":{"title":["can't be blank"],"body_html":["is too long"]}}`, RemoteRejected, []string{"body_html: is too long", "title: can't be blank"}},
		{"list errors", 400, `{"errors":["bad image","bad id"]}`, RemoteRejected, []string{"bad image", "bad id"}},
		{"not found", 404, `{"errors":"Not Found"}`, RemoteRejected, []string{"Not Found"}},
		{"non json", 502, `Bad Gateway`, RemoteRejected, []string{"Bad Gateway"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newTestClient(server).Commit(context.Background(), 1, "<p>x</p>", "")
			var se *SyncError
			if !errors.As(err, &se) {
				t.Fatalf("expected *SyncError, got %v", err)
			}
			if se.Kind != tt.wantKind || se.Status != tt.status {
				t.Errorf("got kind=%v status=%d", se.Kind, se.Status)
			}
			if strings.Join(se.Errors, "|") != strings.Join(tt.wantErrs, "|") {
				t.Errorf("errors = %q, want %q", se.Errors, tt.wantErrs)
			}
		})
	}
}

func TestCommitMissingToken(t *testing.T) {
	c := &Client{httpClient: http.DefaultClient, baseURL: "http://unused"}
	_, err := c.Commit(context.Background(), 1, "", "")
	var se *SyncError
	if !errors.As(err, &se) || se.Kind != Unauthorized {
		t.Fatalf("expected Unauthorized, got %v", err)
	}
}

func TestCommitUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	c := newTestClient(server)
	server.Close()

	_, err := c.Commit(context.Background(), 1, "", "")
	var se *SyncError
	if !errors.As(err, &se) || se.Kind != Unreachable {
		t.Fatalf("expected Unreachable, got %v", err)
	}
}

func TestRequestPreparationFailuresAreUnreachable(t *testing.T) {
	c := &Client{
		httpClient:  http.DefaultClient,
		accessToken: "shpat_test",
		baseURL:     "http://demo.myshopify.com/admin/api/2024-10",
		rateLimiter: rate.NewLimiter(rate.Inf, 1),
	}
	_, _, err := c.do(context.Background(), http.MethodPut, "/products/1.json", map[string]any{"bad": make(chan int)})
	var se *SyncError
	if !errors.As(err, &se) || se.Kind != Unreachable {
		t.Errorf("marshal failure: err = %v, want Unreachable SyncError", err)
	}

	c.baseURL = "http://demo.myshopify.com/\x00"
	_, err = c.Commit(context.Background(), 1, "<p>x</p>", "")
	if !errors.As(err, &se) || se.Kind != Unreachable {
		t.Errorf("build failure: err = %v, want Unreachable SyncError", err)
	}
}

func TestSyncErrorMessage(t *testing.T) {
	err := &SyncError{Kind: RemoteRejected, Status: 422, Errors: []string{"title: can't be blank"}}
	if got := err.Error(); got != "shopify: rejected (422): title: can't be blank" {
		t.Errorf("Error() = %q", got)
	}
}

const productJSON = `{
  "id": "gid://shopify/Product/555",
  "title": "Ceramic Mug",
  "descriptionHtml": "<p>Mug</p>",
  "status": "ACTIVE",
  "totalInventory": 12,
  "createdAt": "2024-11-02T15:04:05Z",
  "updatedAt": "2026-03-14T14:00:00Z",
  "featuredImage": {"url": "https://cdn.shopify.com/mug.jpg"},
  "priceRange": {"minVariantPrice": {"amount": "19.90"}}
}`

func TestFetchProduct(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/admin/api/2024-10/graphql.json" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req gqlRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Variables["id"] != "gid://shopify/Product/555" {
			t.Errorf("unexpected variables: %v", req.Variables)
		}
		w.Write([]byte(`{"data":{"product":` + productJSON + `}}`))
	}))
	defer server.Close()

	p, err := newTestClient(server).FetchProduct(context.Background(), "gid://shopify/Product/555")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Title != "Ceramic Mug" || p.Status != product.StatusActive || p.TotalInventory != 12 {
		t.Errorf("unexpected product: %+v", p)
	}
	if p.Price.String() != "19.9" {
		t.Errorf("price = %s", p.Price)
	}
	if p.ImageURL != "https://cdn.shopify.com/mug.jpg" {
		t.Errorf("image = %q", p.ImageURL)
	}
	if p.CreatedAt.Year() != 2024 {
		t.Errorf("createdAt = %v", p.CreatedAt)
	}
	if !p.UpdatedAt.Equal(time.Date(2026, 3, 14, 14, 0, 0, 0, time.UTC)) {
		t.Errorf("updatedAt = %v", p.UpdatedAt)
	}
}

func TestFetchProductNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"product":null}}`))
	}))
	defer server.Close()

	_, err := newTestClient(server).FetchProduct(context.Background(), "gid://shopify/Product/1")
	if !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestFetchProductGraphQLErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"errors":[{"message":"Invalid global id 'abc'"}]}`))
	}))
	defer server.Close()

	_, err := newTestClient(server).FetchProduct(context.Background(), "abc")
	var se *SyncError
	if !errors.As(err, &se) || se.Kind != RemoteRejected {
		t.Fatalf("expected RemoteRejected, got %v", err)
	}
	if len(se.Errors) != 1 || se.Errors[0] != "Invalid global id 'abc'" {
		t.Errorf("errors = %q", se.Errors)
	}
}

func TestListProducts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req gqlRequest
		json.NewDecoder(r.Body).Decode(&req)
		if first, _ := req.Variables["first"].(float64); first != 250 {
			t.Errorf("first = %v, want clamped 250", req.Variables["first"])
		}
		w.Write([]byte(`{"data":{"products":{"edges":[
			{"node":` + productJSON + `},
			{"node":{"id":"gid://shopify/Product/556","title":"Draft","status":"DRAFT","featuredImage":null,"priceRange":{"minVariantPrice":{"amount":"0.0"}}}}
		]}}}`))
	}))
	defer server.Close()

	got, err := newTestClient(server).ListProducts(context.Background(), 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 products, got %d", len(got))
	}
	if got[1].ImageURL != "" || got[1].Status != product.StatusDraft {
		t.Errorf("unexpected second product: %+v", got[1])
	}
	counts := product.CountByStatus(got)
	if counts.Active != 1 || counts.Draft != 1 {
		t.Errorf("counts = %+v", counts)
	}
}
