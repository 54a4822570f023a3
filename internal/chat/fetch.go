package chat

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/fpang/product-listai/internal/adapter"
)

// maxInlineImageBytes caps images sent inline to a model (Gemini inline
// request limit is 20 MB).
const maxInlineImageBytes = 20 * 1024 * 1024

// fetchImage downloads imageURL and returns its bytes and MIME type.
func fetchImage(ctx context.Context, client *http.Client, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", &adapter.Error{Kind: adapter.Unreachable, Service: adapter.ServiceImageFetch, Err: err}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", adapter.Classify(adapter.ServiceImageFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, "", adapter.Rejected(adapter.ServiceImageFetch, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxInlineImageBytes+1))
	if err != nil {
		return nil, "", adapter.Classify(adapter.ServiceImageFetch, err)
	}
	if len(data) > maxInlineImageBytes {
		return nil, "", adapter.Malformed(adapter.ServiceImageFetch, "image exceeds %d bytes", maxInlineImageBytes)
	}

	mimeType := resp.Header.Get("Content-Type")
	if mt, _, err := mime.ParseMediaType(mimeType); err == nil && strings.HasPrefix(mt, "image/") {
		return data, mt, nil
	}
	if mt := imageMIMEFromURL(imageURL); mt != "" {
		return data, mt, nil
	}
	mt := http.DetectContentType(data)
	if !strings.HasPrefix(mt, "image/") {
		return nil, "", adapter.Malformed(adapter.ServiceImageFetch, "unsupported content type %q", mt)
	}
	return data, mt, nil
}

// imageMIMEFromURL infers an image MIME type from the URL path extension.
func imageMIMEFromURL(imageURL string) string {
	p := imageURL
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	case ".heic":
		return "image/heic"
	}
	return ""
}

func describeStatus(code int) string {
	if t := http.StatusText(code); t != "" {
		return t
	}
	return fmt.Sprintf("status %d", code)
}
