package adapter

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg" // register JPEG decoder for image.DecodeConfig
	_ "image/png"  // register PNG decoder for image.DecodeConfig
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/fpang/product-listai/internal/textutil"
	"github.com/rs/zerolog/log"
	_ "golang.org/x/image/webp" // register WebP decoder for image.DecodeConfig
)

const (
	// DefaultBackgroundEndpoint is the ClipDrop remove-background endpoint.
	DefaultBackgroundEndpoint = "https://clipdrop-api.co/remove-background/v1"

	// DefaultMaxImageBytes bounds both the source download and the processed
	// result (ClipDrop accepts up to 25 MB).
	DefaultMaxImageBytes int64 = 25 * 1024 * 1024

	// maxErrorBody bounds how much of a remote error body is kept.
	maxErrorBody = 2048
)

// BackgroundConfig configures the background-removal adapter.
type BackgroundConfig struct {
	Endpoint      string
	APIKey        string
	Timeout       time.Duration
	MaxImageBytes int64
}

// BackgroundRemover fetches a product image, removes its background through
// a remote service, and stores the result.
type BackgroundRemover struct {
	cfg        BackgroundConfig
	httpClient *http.Client
	sink       ImageSink
}

// NewBackgroundRemover creates a background-removal adapter. Processed images
// are written to sink.
func NewBackgroundRemover(cfg BackgroundConfig, sink ImageSink) *BackgroundRemover {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultBackgroundEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxImageBytes <= 0 {
		cfg.MaxImageBytes = DefaultMaxImageBytes
	}
	return &BackgroundRemover{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		sink:       sink,
	}
}

// Remove returns a reference to a copy of the image at imageURL with its
// background removed.
func (b *BackgroundRemover) Remove(ctx context.Context, imageURL string) (string, error) {
	if strings.TrimSpace(imageURL) == "" {
		return "", ErrMissingImage
	}

	ctx, cancel := context.WithTimeout(ctx, b.cfg.Timeout)
	defer cancel()

	start := time.Now()
	source, err := b.fetchSource(ctx, imageURL)
	if err != nil {
		return "", err
	}
	log.Debug().Int("source_bytes", len(source)).Msg("Source image fetched")

	processed, err := b.submit(ctx, source)
	if err != nil {
		return "", err
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(processed))
	if err != nil {
		return "", Malformed(ServiceBackgroundRemoval, "processed image is not decodable: %v", err)
	}
	contentType, ext := imageTypeFor(format)

	ref, err := b.sink.Put(ctx, "background-removed"+ext, processed, contentType)
	if err != nil {
		return "", &Error{Kind: Unreachable, Service: ServiceImageStorage, Err: err}
	}

	log.Info().
		Int("source_bytes", len(source)).
		Int("processed_bytes", len(processed)).
		Str("format", format).
		Dur("duration", time.Since(start)).
		Msg("Background removed")
	return ref, nil
}

// fetchSource downloads the source image bytes.
func (b *BackgroundRemover) fetchSource(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, &Error{Kind: Unreachable, Service: ServiceImageFetch, Err: fmt.Errorf("build request: %w", err)}
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, Classify(ServiceImageFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, Rejected(ServiceImageFetch, resp.StatusCode, readErrorBody(resp.Body))
	}
	return b.readLimited(ServiceImageFetch, resp.Body)
}

// submit posts the source bytes as multipart image_file and returns the
// processed image bytes.
func (b *BackgroundRemover) submit(ctx context.Context, source []byte) ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image_file", "image.jpg")
	if err != nil {
		return nil, &Error{Kind: Unreachable, Service: ServiceBackgroundRemoval, Err: fmt.Errorf("build form: %w", err)}
	}
	if _, err := part.Write(source); err != nil {
		return nil, &Error{Kind: Unreachable, Service: ServiceBackgroundRemoval, Err: fmt.Errorf("build form: %w", err)}
	}
	if err := mw.Close(); err != nil {
		return nil, &Error{Kind: Unreachable, Service: ServiceBackgroundRemoval, Err: fmt.Errorf("build form: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.cfg.Endpoint, &body)
	if err != nil {
		return nil, &Error{Kind: Unreachable, Service: ServiceBackgroundRemoval, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("x-api-key", b.cfg.APIKey)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, Classify(ServiceBackgroundRemoval, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		errBody := readErrorBody(resp.Body)
		log.Error().Int("status", resp.StatusCode).Str("body", textutil.Truncate(errBody, 200)).Msg("Background removal rejected")
		return nil, Rejected(ServiceBackgroundRemoval, resp.StatusCode, errBody)
	}
	return b.readLimited(ServiceBackgroundRemoval, resp.Body)
}

func (b *BackgroundRemover) readLimited(service string, r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, b.cfg.MaxImageBytes+1))
	if err != nil {
		return nil, Classify(service, err)
	}
	if int64(len(data)) > b.cfg.MaxImageBytes {
		return nil, Malformed(service, "image exceeds %d bytes", b.cfg.MaxImageBytes)
	}
	if len(data) == 0 {
		return nil, Malformed(service, "empty image body")
	}
	return data, nil
}

func readErrorBody(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	return strings.TrimSpace(string(data))
}

// imageTypeFor maps an image.DecodeConfig format name to a MIME type and
// file extension.
func imageTypeFor(format string) (string, string) {
	switch format {
	case "jpeg":
		return "image/jpeg", ".jpg"
	case "webp":
		return "image/webp", ".webp"
	default:
		return "image/png", ".png"
	}
}
