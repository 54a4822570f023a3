// Package s3util stores processed product images in S3 and produces URLs the
// commerce platform can fetch them from.
package s3util

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Presigned URLs stop working when the signing credentials expire, which for
// role sessions can be well before the requested expiry. Deployments that
// need durable image URLs set PublicBaseURL.
const (
	DefaultPresignExpiry = 6 * time.Hour
	MaxPresignExpiry     = 12 * time.Hour
)

// projectTag is the URL-encoded S3 object tagging string for cost allocation.
const projectTag = "Project=product-listai"

// ProjectTagging returns a pointer to the URL-encoded S3 object tagging string.
func ProjectTagging() *string {
	t := projectTag
	return &t
}

// ObjectPutter is the subset of *s3.Client used by ImageStore.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ObjectPresigner is the subset of *s3.PresignClient used by ImageStore.
type ObjectPresigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// ImageStoreConfig configures an ImageStore.
type ImageStoreConfig struct {
	Bucket string
	Prefix string // default "processed"
	// PublicBaseURL, when set, is joined with the object key to form the
	// returned URL (e.g. a CloudFront distribution). Otherwise a presigned
	// GET URL is returned.
	PublicBaseURL string
	PresignExpiry time.Duration // default DefaultPresignExpiry, capped at MaxPresignExpiry
}

// ImageStore writes processed images to S3. It implements adapter.ImageSink.
type ImageStore struct {
	client    ObjectPutter
	presigner ObjectPresigner
	cfg       ImageStoreConfig
	now       func() time.Time
}

// NewImageStore creates an ImageStore. presigner may be nil when
// cfg.PublicBaseURL is set.
func NewImageStore(client ObjectPutter, presigner ObjectPresigner, cfg ImageStoreConfig) *ImageStore {
	if cfg.Prefix == "" {
		cfg.Prefix = "processed"
	}
	if cfg.PresignExpiry <= 0 {
		cfg.PresignExpiry = DefaultPresignExpiry
	}
	if cfg.PresignExpiry > MaxPresignExpiry {
		cfg.PresignExpiry = MaxPresignExpiry
	}
	return &ImageStore{client: client, presigner: presigner, cfg: cfg, now: time.Now}
}

// ObjectKey builds the S3 key for an image named name:
// <prefix>/<yyyy-mm-dd>/<uuid><ext>.
func (s *ImageStore) ObjectKey(name string) string {
	ext := strings.ToLower(path.Ext(name))
	if ext == "" {
		ext = ".png"
	}
	return fmt.Sprintf("%s/%s/%s%s", s.cfg.Prefix, s.now().UTC().Format("2006-01-02"), uuid.New().String(), ext)
}

// Put uploads data and returns a URL for it.
func (s *ImageStore) Put(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	key := s.ObjectKey(name)

	log.Debug().
		Str("bucket", s.cfg.Bucket).
		Str("key", key).
		Int("bytes", len(data)).
		Msg("Uploading processed image to S3")

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &s.cfg.Bucket,
		Key:         &key,
		Body:        bytes.NewReader(data),
		ContentType: &contentType,
		Tagging:     ProjectTagging(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload image to S3: %w", err)
	}

	var url string
	if s.cfg.PublicBaseURL != "" {
		url = strings.TrimRight(s.cfg.PublicBaseURL, "/") + "/" + key
	} else {
		if s.presigner == nil {
			return "", fmt.Errorf("no public base URL or presigner configured for %s", key)
		}
		url, err = GeneratePresignedURL(ctx, s.presigner, s.cfg.Bucket, key, s.cfg.PresignExpiry)
		if err != nil {
			return "", err
		}
	}

	log.Info().Str("key", key).Msg("Processed image uploaded to S3")
	return url, nil
}

// GeneratePresignedURL creates a pre-signed GET URL for an S3 object.
func GeneratePresignedURL(ctx context.Context, presignClient ObjectPresigner, bucket, key string, expiry time.Duration) (string, error) {
	result, err := presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: &bucket, Key: &key,
	}, func(opts *s3.PresignOptions) {
		opts.Expires = expiry
	})
	if err != nil {
		return "", fmt.Errorf("presign GetObject: %w", err)
	}
	return result.URL, nil
}
