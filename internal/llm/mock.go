package llm

import (
	"context"
	"encoding/json"
)

// Mock is the deterministic provider variant: it returns a fixed canned
// result (or a fixed error) unconditionally, with no network access.
type Mock struct {
	Canned json.RawMessage
	Err    error
}

// DefaultCannedDocument is a minimal well-formed document payload for tests
// and offline runs.
var DefaultCannedDocument = json.RawMessage(`{
	"supplier_name": "Acme Traders",
	"invoice_date": "2026-02-15",
	"items": [
		{"item_name": "Rice 25kg", "quantity": 10, "unit_price": 950, "gst_rate": 5}
	],
	"total_amount": 9500
}`)

func NewMock(canned json.RawMessage, err error) *Mock {
	if canned == nil {
		canned = DefaultCannedDocument
	}
	return &Mock{Canned: canned, Err: err}
}

func (m *Mock) Name() string { return "mock" }

func (m *Mock) ExtractFromImage(ctx context.Context, image []byte, prompt, mimeType string) (json.RawMessage, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Canned, nil
}

func (m *Mock) ExtractFromText(ctx context.Context, text, prompt string) (json.RawMessage, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Canned, nil
}
