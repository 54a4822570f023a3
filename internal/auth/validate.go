package auth

import (
	"context"
	"errors"
	"time"

	"github.com/fpang/product-listai/internal/adapter"
	"github.com/fpang/product-listai/internal/metrics"
	"github.com/fpang/product-listai/internal/product"
	"github.com/fpang/product-listai/internal/shopify"
	"github.com/rs/zerolog/log"
)

// ValidationError represents a specific type of credential validation failure.
type ValidationError struct {
	Service string
	Type    ValidationErrorType
	Message string
	Err     error
}

// ValidationErrorType categorizes validation failures.
type ValidationErrorType int

const (
	// ErrTypeNoKey indicates no credential was found.
	ErrTypeNoKey ValidationErrorType = iota
	// ErrTypeInvalidKey indicates the credential is invalid or revoked.
	ErrTypeInvalidKey
	// ErrTypeNetworkError indicates a network connectivity issue.
	ErrTypeNetworkError
	// ErrTypeQuotaExceeded indicates the quota has been exceeded.
	ErrTypeQuotaExceeded
	// ErrTypeUnknown indicates an unknown error occurred.
	ErrTypeUnknown
)

func (e *ValidationError) Error() string {
	msg := e.Service + ": " + e.Message
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ProductLister is the subset of *shopify.Client used to check credentials.
type ProductLister interface {
	ListProducts(ctx context.Context, first int) ([]product.Product, error)
}

// ValidateGenerator verifies a generation backend's credentials with a
// minimal text request.
func ValidateGenerator(ctx context.Context, gen adapter.Generator, model string) error {
	if gen == nil {
		return &ValidationError{Service: adapter.ServiceTextGeneration, Type: ErrTypeNoKey, Message: "no API key configured"}
	}
	log.Debug().Str("model", model).Msg("Validating generation API key")

	start := time.Now()
	_, err := gen.GenerateText(ctx, adapter.TextRequest{Model: model, UserText: "hi"})
	valErr := classifyGeneratorError(err)
	emit("generation", valErr, time.Since(start))
	if valErr != nil {
		return valErr
	}
	log.Info().Str("model", model).Msg("Generation API key validated successfully")
	return nil
}

// ValidateShopify verifies the Admin API token by listing one product.
func ValidateShopify(ctx context.Context, lister ProductLister) error {
	if lister == nil {
		return &ValidationError{Service: "shopify", Type: ErrTypeNoKey, Message: "shop domain or access token not configured"}
	}

	start := time.Now()
	_, err := lister.ListProducts(ctx, 1)
	valErr := classifyShopifyError(err)
	emit("shopify", valErr, time.Since(start))
	if valErr != nil {
		return valErr
	}
	log.Info().Msg("Shopify access token validated successfully")
	return nil
}

func emit(service string, valErr *ValidationError, elapsed time.Duration) {
	result := "success"
	if valErr != nil {
		result = resultName(valErr.Type)
	}
	metrics.New(metrics.Namespace).
		Dimension("Service", service).
		Dimension("Result", result).
		Duration("CredentialValidationMs", elapsed).
		Count("CredentialValidationResult").
		Flush()
}

func resultName(t ValidationErrorType) string {
	switch t {
	case ErrTypeNoKey:
		return "no_key"
	case ErrTypeInvalidKey:
		return "invalid"
	case ErrTypeNetworkError:
		return "network_error"
	case ErrTypeQuotaExceeded:
		return "quota"
	}
	return "unknown"
}

// classifyGeneratorError maps an adapter error to a ValidationError.
func classifyGeneratorError(err error) *ValidationError {
	if err == nil {
		return nil
	}
	const service = adapter.ServiceTextGeneration

	var ae *adapter.Error
	if !errors.As(err, &ae) {
		log.Error().Err(err).Msg("Unknown error during API key validation")
		return &ValidationError{Service: service, Type: ErrTypeUnknown, Message: "failed to validate API key", Err: err}
	}

	switch ae.Kind {
	case adapter.Unreachable, adapter.Timeout:
		log.Error().Err(err).Msg("Network error during API key validation")
		return &ValidationError{Service: service, Type: ErrTypeNetworkError, Message: "network error, check your internet connection", Err: err}
	case adapter.MalformedResponse:
		return &ValidationError{Service: service, Type: ErrTypeUnknown, Message: "API returned an unusable response", Err: err}
	}

	switch ae.Status {
	case 400, 401, 403:
		log.Error().Int("code", ae.Status).Msg("Authentication failed, invalid API key")
		return &ValidationError{Service: service, Type: ErrTypeInvalidKey, Message: "API key is invalid, expired, or lacks permissions", Err: err}
	case 429:
		log.Error().Int("code", ae.Status).Msg("Rate limit exceeded")
		return &ValidationError{Service: service, Type: ErrTypeQuotaExceeded, Message: "API rate limit exceeded, try again later", Err: err}
	case 500, 502, 503, 504:
		log.Error().Int("code", ae.Status).Msg("Server error during validation")
		return &ValidationError{Service: service, Type: ErrTypeNetworkError, Message: "API server error, try again later", Err: err}
	}
	log.Error().Int("code", ae.Status).Msg("API error during validation")
	return &ValidationError{Service: service, Type: ErrTypeUnknown, Message: "API key validation failed", Err: err}
}

// classifyShopifyError maps a gateway error to a ValidationError.
func classifyShopifyError(err error) *ValidationError {
	if err == nil {
		return nil
	}
	const service = "shopify"

	var se *shopify.SyncError
	if !errors.As(err, &se) {
		return &ValidationError{Service: service, Type: ErrTypeUnknown, Message: "failed to validate access token", Err: err}
	}
	switch {
	case se.Kind == shopify.Unauthorized:
		return &ValidationError{Service: service, Type: ErrTypeInvalidKey, Message: "access token is invalid or lacks read_products scope", Err: err}
	case se.Kind == shopify.Unreachable:
		return &ValidationError{Service: service, Type: ErrTypeNetworkError, Message: "shop is unreachable, check the shop domain", Err: err}
	case se.Status == 429:
		return &ValidationError{Service: service, Type: ErrTypeQuotaExceeded, Message: "API rate limit exceeded, try again later", Err: err}
	}
	return &ValidationError{Service: service, Type: ErrTypeUnknown, Message: "access token validation failed", Err: err}
}
