package adapter

import "context"

// Service names used in errors, logs, and metrics.
const (
	ServiceTextGeneration    = "text-generation"
	ServiceVisionGeneration  = "vision-generation"
	ServiceBackgroundRemoval = "background-removal"
	ServiceImageFetch        = "image-fetch"
	ServiceImageStorage      = "image-storage"
	ServicePlatformSync      = "platform-sync"
)

// TextRequest is one call to a text-generation service.
type TextRequest struct {
	Model             string
	SystemInstruction string
	UserText          string
}

// VisionRequest is one call to a vision-capable generation service.
type VisionRequest struct {
	Model           string
	Instruction     string
	ImageURL        string
	MaxOutputTokens int32
}

// Generator is a generation backend (Gemini, OpenAI). Implementations must
// return *Error on failure.
type Generator interface {
	GenerateText(ctx context.Context, req TextRequest) (string, error)
	GenerateFromImage(ctx context.Context, req VisionRequest) (string, error)
}

// ImageSink stores processed image bytes and returns a reference the
// commerce platform can fetch.
type ImageSink interface {
	Put(ctx context.Context, name string, data []byte, contentType string) (string, error)
}
