package llm

import (
	"context"
	"encoding/json"
)

// Provider is the capability the document extractor depends on: any client
// with the two extraction operations can sit in the fallback chain. The
// orchestrator never depends on a concrete variant, which is what lets tests
// substitute the Mock.
type Provider interface {
	// Name is a short stable tag ("gemini", "openai", "mock") used for the
	// extraction_method on written records and in fallback logs.
	Name() string

	// ExtractFromImage sends image bytes plus an instruction prompt and
	// returns the provider's structured output as a raw JSON object.
	ExtractFromImage(ctx context.Context, image []byte, prompt, mimeType string) (json.RawMessage, error)

	// ExtractFromText sends already-extracted text plus an instruction prompt
	// and returns the provider's structured output as a raw JSON object.
	ExtractFromText(ctx context.Context, text, prompt string) (json.RawMessage, error)
}
