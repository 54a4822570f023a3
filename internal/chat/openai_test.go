package chat

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fpang/product-listai/internal/adapter"
)

func newTestOpenAI(t *testing.T, server *httptest.Server, inline bool) *OpenAIGenerator {
	t.Helper()
	o, err := NewOpenAIGenerator(OpenAIConfig{APIKey: "sk-test", BaseURL: server.URL + "/v1", InlineImages: inline})
	if err != nil {
		t.Fatalf("NewOpenAIGenerator: %v", err)
	}
	return o
}

func writeCompletion(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"choices": []map[string]any{{"message": map[string]any{"role": "assistant", "content": content}}},
	})
}

func TestOpenAIGenerateText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("unexpected auth header: %q", r.Header.Get("Authorization"))
		}
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != ModelGPT35Turbo {
			t.Errorf("model = %q", req.Model)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Role != "user" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}
		writeCompletion(w, " <p>Better</p> ")
	}))
	defer server.Close()

	o := newTestOpenAI(t, server, false)
	got, err := o.GenerateText(context.Background(), adapter.TextRequest{
		Model:             ModelGPT35Turbo,
		SystemInstruction: "sys",
		UserText:          "Enhance the following product description: <p>x</p>",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "<p>Better</p>" {
		t.Errorf("GenerateText = %q", got)
	}
}

func TestOpenAIGenerateFromImagePassesURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			MaxTokens int `json:"max_tokens"`
			Messages  []struct {
				Content []struct {
					Type     string `json:"type"`
					ImageURL struct {
						URL string `json:"url"`
					} `json:"image_url"`
				} `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.MaxTokens != 300 {
			t.Errorf("max_tokens = %d", req.MaxTokens)
		}
		if len(req.Messages) != 1 || len(req.Messages[0].Content) != 2 {
			t.Fatalf("unexpected messages: %+v", req.Messages)
		}
		part := req.Messages[0].Content[1]
		if part.Type != "image_url" || part.ImageURL.URL != "https://cdn.example.com/mug.jpg" {
			t.Errorf("unexpected image part: %+v", part)
		}
		writeCompletion(w, "<p>Mug</p>")
	}))
	defer server.Close()

	o := newTestOpenAI(t, server, false)
	got, err := o.GenerateFromImage(context.Background(), adapter.VisionRequest{
		Model:           ModelGPT4oMini,
		Instruction:     "Describe",
		ImageURL:        "https://cdn.example.com/mug.jpg",
		MaxOutputTokens: 300,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "<p>Mug</p>" {
		t.Errorf("GenerateFromImage = %q", got)
	}
}

func TestOpenAIGenerateFromImageInline(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/img/a.jpg", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("jpegdata"))
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), "data:image/jpeg;base64,") {
			t.Errorf("expected inline data URL, got %s", body)
		}
		writeCompletion(w, "<p>ok</p>")
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	o := newTestOpenAI(t, server, true)
	if _, err := o.GenerateFromImage(context.Background(), adapter.VisionRequest{
		Model:    ModelGPT4oMini,
		ImageURL: server.URL + "/img/a.jpg",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestOpenAIRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"Rate limit reached","type":"requests"}}`))
	}))
	defer server.Close()

	o := newTestOpenAI(t, server, false)
	_, err := o.GenerateText(context.Background(), adapter.TextRequest{Model: "m", UserText: "x"})
	var ae *adapter.Error
	if !errors.As(err, &ae) {
		t.Fatalf("expected *adapter.Error, got %v", err)
	}
	if ae.Kind != adapter.RejectedByRemote || ae.Status != http.StatusTooManyRequests {
		t.Errorf("got kind=%v status=%d", ae.Kind, ae.Status)
	}
	if ae.Body != "Rate limit reached" {
		t.Errorf("body = %q", ae.Body)
	}
}

func TestOpenAIMalformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "<html>oops</html>"},
		{"no choices", `{"choices":[]}`},
		{"empty content", `{"choices":[{"message":{"content":"  "}}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			o := newTestOpenAI(t, server, false)
			_, err := o.GenerateText(context.Background(), adapter.TextRequest{Model: "m", UserText: "x"})
			if k, ok := adapter.KindOf(err); !ok || k != adapter.MalformedResponse {
				t.Fatalf("expected MalformedResponse, got %v", err)
			}
		})
	}
}

func TestOpenAIUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	o, _ := NewOpenAIGenerator(OpenAIConfig{APIKey: "k", BaseURL: url})
	_, err := o.GenerateText(context.Background(), adapter.TextRequest{Model: "m", UserText: "x"})
	if k, ok := adapter.KindOf(err); !ok || k != adapter.Unreachable {
		t.Fatalf("expected Unreachable, got %v", err)
	}
}

func TestImageMIMEFromURL(t *testing.T) {
	tests := map[string]string{
		"https://cdn.example.com/a.JPG":        "image/jpeg",
		"https://cdn.example.com/a.png?v=1":    "image/png",
		"https://cdn.example.com/a.webp#frag":  "image/webp",
		"https://cdn.example.com/noext":        "",
		"https://cdn.example.com/file.unknown": "",
	}
	for in, want := range tests {
		if got := imageMIMEFromURL(in); got != want {
			t.Errorf("imageMIMEFromURL(%q) = %q, want %q", in, got, want)
		}
	}
}
