// Package assets provides embedded prompt templates.
//
// Prompts live as text files under prompts/ so they can be reviewed and
// edited without touching Go code.
package assets

import (
	_ "embed"
)

// DescriptionEnhanceSystemPrompt is the system instruction for rewriting an
// existing product description.
//
//go:embed prompts/description-enhance-system.txt
var DescriptionEnhanceSystemPrompt string

// ImageTranscriptPrompt is the instruction sent with a product image when
// generating a description from the photo.
//
//go:embed prompts/image-transcript.txt
var ImageTranscriptPrompt string
