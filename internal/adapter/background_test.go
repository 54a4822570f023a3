package adapter

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.NRGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestRemoveBackground(t *testing.T) {
	source := []byte("source-jpeg-bytes")
	processed := pngBytes(t)

	mux := http.NewServeMux()
	mux.HandleFunc("/images/mug.jpg", func(w http.ResponseWriter, r *http.Request) {
		w.Write(source)
	})
	mux.HandleFunc("/remove-background/v1", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.Header.Get("x-api-key") != "clip-key" {
			t.Errorf("unexpected api key %q", r.Header.Get("x-api-key"))
		}
		f, _, err := r.FormFile("image_file")
		if err != nil {
			t.Errorf("missing image_file: %v", err)
			http.Error(w, "bad", http.StatusBadRequest)
			return
		}
		got, _ := io.ReadAll(f)
		if !bytes.Equal(got, source) {
			t.Errorf("uploaded bytes = %q", got)
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(processed)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	sink := &memorySink{}
	b := NewBackgroundRemover(BackgroundConfig{
		Endpoint: server.URL + "/remove-background/v1",
		APIKey:   "clip-key",
	}, sink)

	ref, err := b.Remove(context.Background(), server.URL+"/images/mug.jpg")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref != "https://cdn.example.com/background-removed.png" {
		t.Errorf("ref = %q", ref)
	}
	if sink.contentType != "image/png" {
		t.Errorf("content type = %q", sink.contentType)
	}
	if !bytes.Equal(sink.data, processed) {
		t.Error("sink did not receive processed bytes")
	}
}

func TestRemoveBackgroundRejected(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/img.jpg", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("img"))
	})
	mux.HandleFunc("/remove", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error":"out of credits"}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	sink := &memorySink{}
	b := NewBackgroundRemover(BackgroundConfig{Endpoint: server.URL + "/remove"}, sink)

	_, err := b.Remove(context.Background(), server.URL+"/img.jpg")
	var ae *Error
	if !errors.As(err, &ae) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if ae.Kind != RejectedByRemote || ae.Status != http.StatusPaymentRequired {
		t.Errorf("got kind=%v status=%d", ae.Kind, ae.Status)
	}
	if ae.Service != ServiceBackgroundRemoval {
		t.Errorf("service = %q", ae.Service)
	}
	if sink.data != nil {
		t.Error("sink should not be written on rejection")
	}
}

func TestRemoveBackgroundSourceNotFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	b := NewBackgroundRemover(BackgroundConfig{Endpoint: server.URL + "/remove"}, &memorySink{})
	_, err := b.Remove(context.Background(), server.URL+"/missing.jpg")
	var ae *Error
	if !errors.As(err, &ae) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if ae.Service != ServiceImageFetch || ae.Kind != RejectedByRemote {
		t.Errorf("got service=%q kind=%v", ae.Service, ae.Kind)
	}
}

func TestRemoveBackgroundUndecodableResult(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/img.jpg", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("img"))
	})
	mux.HandleFunc("/remove", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not an image</html>"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	b := NewBackgroundRemover(BackgroundConfig{Endpoint: server.URL + "/remove"}, &memorySink{})
	_, err := b.Remove(context.Background(), server.URL+"/img.jpg")
	if k, ok := KindOf(err); !ok || k != MalformedResponse {
		t.Fatalf("expected MalformedResponse, got %v", err)
	}
}

func TestRemoveBackgroundSinkFailure(t *testing.T) {
	processed := pngBytes(t)
	mux := http.NewServeMux()
	mux.HandleFunc("/img.jpg", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("img"))
	})
	mux.HandleFunc("/remove", func(w http.ResponseWriter, r *http.Request) {
		w.Write(processed)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	sink := &memorySink{err: errors.New("access denied")}
	b := NewBackgroundRemover(BackgroundConfig{Endpoint: server.URL + "/remove"}, sink)
	_, err := b.Remove(context.Background(), server.URL+"/img.jpg")
	var ae *Error
	if !errors.As(err, &ae) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if ae.Kind != Unreachable || ae.Service != ServiceImageStorage {
		t.Errorf("got kind=%v service=%q", ae.Kind, ae.Service)
	}
}

func TestRemoveBackgroundMissingImage(t *testing.T) {
	b := NewBackgroundRemover(BackgroundConfig{}, &memorySink{})
	if _, err := b.Remove(context.Background(), ""); !errors.Is(err, ErrMissingImage) {
		t.Fatalf("expected ErrMissingImage, got %v", err)
	}
}
