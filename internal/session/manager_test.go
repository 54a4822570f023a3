package session

import (
	"context"
	"errors"
	"io"
	"os"
	"testing"
	"time"

	"github.com/fpang/product-listai/internal/enhance"
	"github.com/fpang/product-listai/internal/metrics"
	"github.com/fpang/product-listai/internal/product"
	"github.com/fpang/product-listai/internal/shopify"
)

func TestMain(m *testing.M) {
	restore := metrics.SetOutput(io.Discard)
	code := m.Run()
	restore()
	os.Exit(code)
}

type fakeLoader struct {
	calls    int
	lastID   string
	products map[string]product.Product
	err      error
}

func (f *fakeLoader) FetchProduct(_ context.Context, platformID string) (product.Product, error) {
	f.calls++
	f.lastID = platformID
	if f.err != nil {
		return product.Product{}, f.err
	}
	p, ok := f.products[platformID]
	if !ok {
		return product.Product{}, shopify.ErrProductNotFound
	}
	return p, nil
}

func newLoader() *fakeLoader {
	return &fakeLoader{products: map[string]product.Product{
		"gid://shopify/Product/555": {
			PlatformID:      "gid://shopify/Product/555",
			DescriptionHTML: "<p>remote</p>",
			ImageURL:        "https://cdn.shopify.com/a.jpg",
		},
	}}
}

type stubText struct{ blockUntil chan struct{} }

func (s stubText) Enhance(context.Context, string) (string, error) {
	if s.blockUntil != nil {
		<-s.blockUntil
	}
	return "<p>enhanced</p>", nil
}

func TestOpenGetClose(t *testing.T) {
	loader := newLoader()
	m := NewManager(loader, enhance.Deps{})

	o, err := m.Open(context.Background(), 555)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if loader.lastID != "gid://shopify/Product/555" {
		t.Errorf("loader called with %q", loader.lastID)
	}
	if o.Store().Read().DescriptionHTML != "<p>remote</p>" {
		t.Error("product not loaded into store")
	}

	got, err := m.Get(555)
	if err != nil || got != o {
		t.Fatalf("Get = %v, %v", got, err)
	}
	if ids := m.IDs(); len(ids) != 1 || ids[0] != 555 {
		t.Errorf("IDs = %v", ids)
	}

	if err := m.Close(555); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := m.Get(555); !errors.Is(err, ErrNoSession) {
		t.Errorf("Get after close: %v", err)
	}
	if err := m.Close(555); !errors.Is(err, ErrNoSession) {
		t.Errorf("second Close: %v", err)
	}
}

func TestOpenReloadsExistingSession(t *testing.T) {
	loader := newLoader()
	m := NewManager(loader, enhance.Deps{Text: stubText{}})

	o, _ := m.Open(context.Background(), 555)
	o.EditDescription("<p>local edit</p>")

	again, err := m.Open(context.Background(), 555)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if again != o {
		t.Error("reopen should reuse the session")
	}
	if got := o.Store().Read().DescriptionHTML; got != "<p>remote</p>" {
		t.Errorf("description = %q, want fresh remote copy", got)
	}
	if loader.calls != 2 {
		t.Errorf("loader calls = %d", loader.calls)
	}
}

func TestOpenBusySession(t *testing.T) {
	release := make(chan struct{})
	m := NewManager(newLoader(), enhance.Deps{Text: stubText{blockUntil: release}})
	o, _ := m.Open(context.Background(), 555)

	done := make(chan struct{})
	go func() {
		o.EnhanceDescription(context.Background())
		close(done)
	}()
	for o.Store().Session().Idle() {
		time.Sleep(time.Millisecond)
	}

	if _, err := m.Open(context.Background(), 555); !errors.Is(err, product.ErrBusy) {
		t.Errorf("Open while busy: %v", err)
	}
	if err := m.Close(555); !errors.Is(err, product.ErrBusy) {
		t.Errorf("Close while busy: %v", err)
	}

	close(release)
	<-done
	if err := m.Close(555); err != nil {
		t.Errorf("Close after completion: %v", err)
	}
}

func TestOpenErrors(t *testing.T) {
	if _, err := NewManager(nil, enhance.Deps{}).Open(context.Background(), 1); !errors.Is(err, enhance.ErrNotConfigured) {
		t.Errorf("nil loader: %v", err)
	}

	m := NewManager(newLoader(), enhance.Deps{})
	if _, err := m.Open(context.Background(), 999); !errors.Is(err, shopify.ErrProductNotFound) {
		t.Errorf("unknown product: %v", err)
	}
	if len(m.IDs()) != 0 {
		t.Error("failed open must not create a session")
	}
}

func TestInvalidate(t *testing.T) {
	m := NewManager(newLoader(), enhance.Deps{})
	at := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	if m.Invalidate(555, at) {
		t.Error("Invalidate reported an open session before Open")
	}

	o, _ := m.Open(context.Background(), 555)
	if !m.Invalidate(555, at) {
		t.Fatal("Invalidate did not find the session")
	}
	s := o.Store().Session()
	if s.RemoteChangedAt == nil || !s.RemoteChangedAt.Equal(at) {
		t.Errorf("RemoteChangedAt = %v", s.RemoteChangedAt)
	}
	if o.Store().Read().DescriptionHTML != "<p>remote</p>" {
		t.Error("invalidate must not touch product fields")
	}
}

type stampingGateway struct{ updatedAt time.Time }

func (g stampingGateway) Commit(_ context.Context, id int64, html, url string) (*shopify.CommittedProduct, error) {
	return &shopify.CommittedProduct{ID: id, DescriptionHTML: html, ImageURL: url, UpdatedAt: g.updatedAt}, nil
}

func TestInvalidateIgnoresOwnSave(t *testing.T) {
	loaded := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	saved := loaded.Add(5 * time.Minute)
	loader := newLoader()
	p := loader.products["gid://shopify/Product/555"]
	p.UpdatedAt = loaded
	loader.products["gid://shopify/Product/555"] = p

	m := NewManager(loader, enhance.Deps{Gateway: stampingGateway{updatedAt: saved}})
	o, err := m.Open(context.Background(), 555)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	m.Invalidate(555, loaded)
	if o.Store().Session().RemoteChangedAt != nil {
		t.Error("webhook for the loaded version must not flag a remote change")
	}

	if out := o.Save(context.Background()); !out.OK() {
		t.Fatalf("Save: %v", out.Err)
	}
	if !m.Invalidate(555, saved) {
		t.Fatal("Invalidate did not find the session")
	}
	if o.Store().Session().RemoteChangedAt != nil {
		t.Error("webhook for our own save must not flag a remote change")
	}

	later := saved.Add(time.Minute)
	m.Invalidate(555, later)
	s := o.Store().Session()
	if s.RemoteChangedAt == nil || !s.RemoteChangedAt.Equal(later) {
		t.Errorf("RemoteChangedAt = %v, want %v", s.RemoteChangedAt, later)
	}
}
