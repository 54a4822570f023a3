package adapter

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/fpang/product-listai/internal/assets"
)

func TestEnhanceEmptyUsesFallback(t *testing.T) {
	gen := &fakeGenerator{text: "<p>unused</p>"}
	e := NewTextEnhancer(gen, TextConfig{Model: "m"})

	for _, in := range []string{"", "   ", "\n\t"} {
		got, err := e.Enhance(context.Background(), in)
		if err != nil {
			t.Fatalf("Enhance(%q) error: %v", in, err)
		}
		if got != FallbackDescriptionHTML {
			t.Errorf("Enhance(%q) = %q, want fallback", in, got)
		}
	}
	if len(gen.textReqs) != 0 {
		t.Errorf("generator called %d times for empty input, want 0", len(gen.textReqs))
	}
}

func TestEnhanceBuildsRequest(t *testing.T) {
	gen := &fakeGenerator{text: "```html\n<p>Better</p>\n```"}
	e := NewTextEnhancer(gen, TextConfig{Model: "gemini-test"})

	got, err := e.Enhance(context.Background(), "<p>Plain mug</p>")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "<p>Better</p>" {
		t.Errorf("Enhance = %q, want fences stripped", got)
	}
	if len(gen.textReqs) != 1 {
		t.Fatalf("expected 1 request, got %d", len(gen.textReqs))
	}
	req := gen.textReqs[0]
	if req.Model != "gemini-test" {
		t.Errorf("model = %q", req.Model)
	}
	if req.SystemInstruction != assets.DescriptionEnhanceSystemPrompt {
		t.Error("expected default system instruction")
	}
	if !strings.HasSuffix(req.UserText, "<p>Plain mug</p>") {
		t.Errorf("user text does not carry description: %q", req.UserText)
	}
}

func TestEnhanceEmptyResultIsMalformed(t *testing.T) {
	gen := &fakeGenerator{text: "  "}
	e := NewTextEnhancer(gen, TextConfig{})

	_, err := e.Enhance(context.Background(), "<p>x</p>")
	if k, ok := KindOf(err); !ok || k != MalformedResponse {
		t.Fatalf("expected MalformedResponse, got %v", err)
	}
}

func TestEnhancePropagatesRemoteRejection(t *testing.T) {
	gen := &fakeGenerator{err: Rejected(ServiceTextGeneration, 401, "invalid key")}
	e := NewTextEnhancer(gen, TextConfig{})

	_, err := e.Enhance(context.Background(), "<p>x</p>")
	var ae *Error
	if !errors.As(err, &ae) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if ae.Kind != RejectedByRemote || ae.Status != 401 {
		t.Errorf("got kind=%v status=%d", ae.Kind, ae.Status)
	}
}

func TestEnhanceTimeout(t *testing.T) {
	gen := &fakeGenerator{block: true}
	e := NewTextEnhancer(gen, TextConfig{Timeout: 20 * time.Millisecond})

	_, err := e.Enhance(context.Background(), "<p>x</p>")
	if k, ok := KindOf(err); !ok || k != Timeout {
		t.Fatalf("expected Timeout, got %v", err)
	}
}
