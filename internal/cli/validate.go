package cli

import (
	"errors"
	"os"
	"strings"

	"github.com/fpang/product-listai/internal/auth"
	"github.com/fpang/product-listai/internal/gid"
	"github.com/rs/zerolog/log"
)

// ParseProductID accepts a numeric ID or a gid://shopify/Product/<n>
// identifier. Exits fatally on anything else.
func ParseProductID(arg string) int64 {
	var (
		id  int64
		err error
	)
	if strings.HasPrefix(arg, gid.Prefix) {
		id, err = gid.ToNumeric(arg)
	} else {
		id, err = gid.ParseNumeric(arg)
	}
	if err != nil {
		log.Fatal().Err(err).Str("arg", arg).Msg("Invalid product ID")
	}
	return id
}

// HandleValidationError processes auth.ValidationError and exits with appropriate messaging.
func HandleValidationError(err error) {
	var validationErr *auth.ValidationError
	if errors.As(err, &validationErr) {
		ev := log.Fatal().Str("service", validationErr.Service)
		switch validationErr.Type {
		case auth.ErrTypeNoKey:
			ev.Msg("No credential configured. Set the environment variable or store it under ~/.product-listai/")
		case auth.ErrTypeInvalidKey:
			ev.Err(err).Msg("Invalid credential. Please check it and try again")
		case auth.ErrTypeNetworkError:
			ev.Err(err).Msg("Network error. Please check your internet connection")
		case auth.ErrTypeQuotaExceeded:
			ev.Err(err).Msg("API quota exceeded. Please try again later or check your usage limits")
		default:
			ev.Err(err).Msg("Credential validation failed")
		}
	} else {
		log.Fatal().Err(err).Msg("unexpected error during credential validation")
	}
	os.Exit(1)
}
