package constants

import (
	"path/filepath"
	"strings"
)

// FileType is the declared type of an uploaded file.
type FileType string

// Stable values (store these exact strings in DB).
const (
	FileTypeSalesCSV     FileType = "sales_csv"
	FileTypeInventoryCSV FileType = "inventory_csv"
	FileTypeInvoiceImage FileType = "invoice_image"
	FileTypeReceiptImage FileType = "receipt_image"
	FileTypeDocument     FileType = "document"
)

// ParseFileType maps a stored string to the enum, or "" if unknown.
func ParseFileType(s string) FileType {
	switch FileType(s) {
	case FileTypeSalesCSV, FileTypeInventoryCSV, FileTypeInvoiceImage,
		FileTypeReceiptImage, FileTypeDocument:
		return FileType(s)
	}
	return ""
}

// RecordType is the analytics-facing type of an extracted record.
type RecordType string

const (
	RecordTypeSales     RecordType = "sales"
	RecordTypeInventory RecordType = "inventory"
	RecordTypeInvoice   RecordType = "invoice"
	RecordTypeReceipt   RecordType = "receipt"
	RecordTypeDocument  RecordType = "document"
)

// RecordTypeFor maps a file type to the record type stored alongside data.
func RecordTypeFor(ft FileType) RecordType {
	switch ft {
	case FileTypeSalesCSV:
		return RecordTypeSales
	case FileTypeInventoryCSV:
		return RecordTypeInventory
	case FileTypeInvoiceImage:
		return RecordTypeInvoice
	case FileTypeReceiptImage:
		return RecordTypeReceipt
	default:
		return RecordTypeDocument
	}
}

// ExtractionMethod records how an ExtractedRecord was produced.
type ExtractionMethod string

const (
	MethodDeterministic ExtractionMethod = "deterministic"
	MethodMock          ExtractionMethod = "mock"
)

// MethodForProvider names the LLM path for a given provider, e.g. "llm:gemini".
// The mock provider keeps its own tag so test records are distinguishable.
func MethodForProvider(providerName string) ExtractionMethod {
	if providerName == "mock" {
		return MethodMock
	}
	return ExtractionMethod("llm:" + providerName)
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MIMETypeFor returns the MIME type for a storage path based on its extension.
func MIMETypeFor(path string) string {
	switch NormalizeExt(filepath.Ext(path)) {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "pdf":
		return "application/pdf"
	case "csv":
		return "text/csv"
	case "txt":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}
