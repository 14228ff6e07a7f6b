// Package docextract builds provider-agnostic extraction requests for
// invoice/receipt images and text documents, and validates the provider's
// structured response into the canonical document shape.
package docextract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bizledger/docextract/constants"
	"github.com/bizledger/docextract/internal/entity"
	"github.com/bizledger/docextract/internal/llm"
)

type Extractor struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

// Extract runs one provider attempt: build the prompt for the file type,
// call the provider, then validate and normalize the structured response.
// A response that cannot be made to fit the canonical shape is fatal for
// this attempt and surfaces as an unparsable ProviderError, which advances
// the fallback chain.
func (e *Extractor) Extract(ctx context.Context, p llm.Provider, raw []byte, mimeType string, ft constants.FileType) (entity.DocumentData, error) {
	start := time.Now()
	prompt := PromptFor(ft)

	e.logger.Info("docextract.start",
		"provider", p.Name(),
		"file_type", string(ft),
		"mime_type", mimeType,
		"bytes", len(raw),
	)

	var (
		out json.RawMessage
		err error
	)
	if isTextMIME(mimeType) {
		out, err = p.ExtractFromText(ctx, string(raw), prompt)
	} else {
		out, err = p.ExtractFromImage(ctx, raw, prompt, mimeType)
	}
	if err != nil {
		return entity.DocumentData{}, err
	}

	cleaned, dropped, err := sanitizeDocument(out)
	if err != nil {
		return entity.DocumentData{}, llm.NewProviderError(p.Name(), llm.ReasonUnparsable, err)
	}
	if len(dropped) > 0 {
		e.logger.Warn("docextract.sanitize_applied", "provider", p.Name(), "dropped", dropped)
	}

	if err := llm.ValidateJSONAgainstSchema(BuildDocumentJSONSchema(), cleaned); err != nil {
		e.logger.Error("docextract.schema_validation_failed",
			"provider", p.Name(), "error", err,
		)
		return entity.DocumentData{}, llm.NewProviderError(p.Name(), llm.ReasonUnparsable, err)
	}

	var data entity.DocumentData
	if err := json.Unmarshal(cleaned, &data); err != nil {
		return entity.DocumentData{}, llm.NewProviderError(p.Name(), llm.ReasonUnparsable, fmt.Errorf("unmarshal document fields: %w", err))
	}
	if data.Items == nil {
		data.Items = []entity.LineItem{}
	}

	e.logger.Info("docextract.ok",
		"provider", p.Name(),
		"file_type", string(ft),
		"items", len(data.Items),
		"has_total", data.TotalAmount != nil,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return data, nil
}

func isTextMIME(mimeType string) bool {
	return strings.HasPrefix(mimeType, "text/")
}
