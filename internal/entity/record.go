package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bizledger/docextract/constants"
)

// ExtractedRecord is the structured output of one successful extraction
// attempt. Records are immutable once written; a re-extraction appends a new
// record keyed by the same upload_id, it never overwrites.
type ExtractedRecord struct {
	ID               uuid.UUID
	StoreID          string
	UploadID         string // back-reference, lookup-only
	Type             constants.RecordType
	ExtractionMethod constants.ExtractionMethod
	ExtractedAt      time.Time
	Data             json.RawMessage
	TotalAmount      *decimal.Decimal // optional rollup
}

// CSVRow is one accepted row of a delimited upload, keyed by normalized
// column name.
type CSVRow map[string]any

// CSVData is the canonical payload shape for sales/inventory CSV uploads.
type CSVData struct {
	Records     []CSVRow        `json:"records"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	SkippedRows int             `json:"skipped_rows"`
}

// LineItem is one line of an invoice or receipt. Pointer fields are the null
// sentinel for values the provider could not find.
type LineItem struct {
	ItemName  string           `json:"item_name"`
	Quantity  *decimal.Decimal `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
	GSTRate   *decimal.Decimal `json:"gst_rate"`
}

// DocumentData is the canonical payload shape for invoice/receipt/document
// uploads.
type DocumentData struct {
	SupplierName *string          `json:"supplier_name"`
	InvoiceDate  *string          `json:"invoice_date"`
	Items        []LineItem       `json:"items"`
	TotalAmount  *decimal.Decimal `json:"total_amount"`
}
