package docextract

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizledger/docextract/constants"
	"github.com/bizledger/docextract/internal/llm"
)

func TestExtractCanonicalResponse(t *testing.T) {
	mock := llm.NewMock(json.RawMessage(`{
		"supplier_name": "Acme Traders",
		"invoice_date": "2026-02-15",
		"items": [
			{"item_name": "Rice 25kg", "quantity": "10", "unit_price": "950", "gst_rate": "5"}
		],
		"total_amount": "9500"
	}`), nil)

	data, err := New(nil).Extract(context.Background(), mock, []byte("img"), "image/jpeg", constants.FileTypeInvoiceImage)
	require.NoError(t, err)

	require.NotNil(t, data.SupplierName)
	assert.Equal(t, "Acme Traders", *data.SupplierName)
	require.NotNil(t, data.InvoiceDate)
	assert.Equal(t, "2026-02-15", *data.InvoiceDate)
	require.Len(t, data.Items, 1)
	assert.Equal(t, "Rice 25kg", data.Items[0].ItemName)
	require.NotNil(t, data.TotalAmount)
	assert.Equal(t, "9500", data.TotalAmount.String())
}

func TestExtractSynonymsAndFormatting(t *testing.T) {
	// Receipt-flavored vocabulary, formatted numbers, non-ISO date.
	mock := llm.NewMock(json.RawMessage(`{
		"merchant_name": "Corner Store",
		"date": "15/02/2026",
		"line_items": [
			{"name": "TV", "qty": 1, "price": "1,180.00"}
		],
		"grand_total": "1,180.00",
		"currency": "INR"
	}`), nil)

	data, err := New(nil).Extract(context.Background(), mock, []byte("img"), "image/png", constants.FileTypeReceiptImage)
	require.NoError(t, err)

	require.NotNil(t, data.SupplierName)
	assert.Equal(t, "Corner Store", *data.SupplierName)
	require.NotNil(t, data.InvoiceDate)
	assert.Equal(t, "2026-02-15", *data.InvoiceDate)
	require.Len(t, data.Items, 1)
	assert.Equal(t, "TV", data.Items[0].ItemName)
	require.NotNil(t, data.Items[0].UnitPrice)
	assert.Equal(t, "1180", data.Items[0].UnitPrice.String())
	require.NotNil(t, data.TotalAmount)
	assert.Equal(t, "1180", data.TotalAmount.String())
}

func TestExtractMissingFieldsAreNil(t *testing.T) {
	mock := llm.NewMock(json.RawMessage(`{"items": []}`), nil)

	data, err := New(nil).Extract(context.Background(), mock, []byte("doc"), "text/plain", constants.FileTypeDocument)
	require.NoError(t, err)

	assert.Nil(t, data.SupplierName)
	assert.Nil(t, data.InvoiceDate)
	assert.Nil(t, data.TotalAmount)
	assert.Empty(t, data.Items)
}

func TestExtractNonNumericTotalDropped(t *testing.T) {
	mock := llm.NewMock(json.RawMessage(`{
		"supplier_name": "Acme",
		"total_amount": "nine thousand five hundred"
	}`), nil)

	data, err := New(nil).Extract(context.Background(), mock, []byte("img"), "image/jpeg", constants.FileTypeInvoiceImage)
	require.NoError(t, err)
	assert.Nil(t, data.TotalAmount)
	require.NotNil(t, data.SupplierName)
}

func TestExtractProviderErrorPassesThrough(t *testing.T) {
	want := llm.NewProviderError("mock", llm.ReasonRateLimited, errors.New("429"))
	mock := llm.NewMock(nil, want)

	_, err := New(nil).Extract(context.Background(), mock, []byte("img"), "image/jpeg", constants.FileTypeInvoiceImage)
	require.Error(t, err)

	var perr *llm.ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, llm.ReasonRateLimited, perr.Reason)
}

func TestNormalizeDate(t *testing.T) {
	cases := map[string]string{
		"2026-02-15":   "2026-02-15",
		"2026/02/15":   "2026-02-15",
		"15 Feb 2026":  "2026-02-15",
		"Feb 15, 2026": "2026-02-15",
		"sometime":     "sometime",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeDate(in), "input %q", in)
	}
}

func TestPromptForCoversAllTypes(t *testing.T) {
	for _, ft := range []constants.FileType{
		constants.FileTypeInvoiceImage,
		constants.FileTypeReceiptImage,
		constants.FileTypeDocument,
	} {
		assert.NotEmpty(t, PromptFor(ft))
	}
}

func TestSanitizeDocumentDropsUnknownKeys(t *testing.T) {
	out, dropped, err := sanitizeDocument([]byte(`{
		"supplier_name": "Acme",
		"confidence": 0.92,
		"items": [{"item_name": "Rice", "sku": "R-25"}]
	}`))
	require.NoError(t, err)
	_ = dropped

	var m map[string]any
	require.NoError(t, json.Unmarshal(out, &m))
	_, hasConfidence := m["confidence"]
	assert.False(t, hasConfidence)

	items := m["items"].([]any)
	item := items[0].(map[string]any)
	_, hasSKU := item["sku"]
	assert.False(t, hasSKU)
}
