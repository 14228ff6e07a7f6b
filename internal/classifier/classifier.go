// Package classifier resolves an upload's declared type and filename into an
// extraction strategy. Classification never fails: the pipeline stays
// available by defaulting unknown inputs, flagged low-confidence.
package classifier

import (
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/bizledger/docextract/constants"
)

// Strategy selects the extraction path for an upload.
type Strategy string

const (
	StrategyCSV      Strategy = "csv"
	StrategyDocument Strategy = "document"
)

// Decision is the classification outcome. FileType is the resolved (possibly
// inferred) type; LowConfidence marks the unknown-input default.
type Decision struct {
	Strategy      Strategy
	FileType      constants.FileType
	LowConfidence bool
}

// Classify picks a strategy from the declared file type, falling back to the
// file extension and then to substring hints in the filename. Unknown inputs
// map to the sales_csv default with LowConfidence set, logged as a
// warning-level anomaly.
func Classify(declared constants.FileType, fileName string, logger *slog.Logger) Decision {
	if logger == nil {
		logger = slog.Default()
	}

	if ft := constants.ParseFileType(string(declared)); ft != "" {
		return Decision{Strategy: strategyFor(ft), FileType: ft}
	}

	base := strings.ToLower(filepath.Base(fileName))
	switch constants.NormalizeExt(filepath.Ext(base)) {
	case "csv":
		if strings.Contains(base, "inventory") {
			return Decision{Strategy: StrategyCSV, FileType: constants.FileTypeInventoryCSV}
		}
		return Decision{Strategy: StrategyCSV, FileType: constants.FileTypeSalesCSV}
	case "jpg", "jpeg", "png":
		if strings.Contains(base, "receipt") {
			return Decision{Strategy: StrategyDocument, FileType: constants.FileTypeReceiptImage}
		}
		return Decision{Strategy: StrategyDocument, FileType: constants.FileTypeInvoiceImage}
	case "pdf", "txt", "docx":
		return Decision{Strategy: StrategyDocument, FileType: constants.FileTypeDocument}
	}

	switch {
	case strings.Contains(base, "inventory"):
		return Decision{Strategy: StrategyCSV, FileType: constants.FileTypeInventoryCSV}
	case strings.Contains(base, "receipt"):
		return Decision{Strategy: StrategyDocument, FileType: constants.FileTypeReceiptImage}
	case strings.Contains(base, "invoice"):
		return Decision{Strategy: StrategyDocument, FileType: constants.FileTypeInvoiceImage}
	}

	logger.Warn("classifier.default_applied",
		"declared_type", string(declared),
		"file_name", fileName,
	)
	return Decision{Strategy: StrategyCSV, FileType: constants.FileTypeSalesCSV, LowConfidence: true}
}

func strategyFor(ft constants.FileType) Strategy {
	switch ft {
	case constants.FileTypeSalesCSV, constants.FileTypeInventoryCSV:
		return StrategyCSV
	default:
		return StrategyDocument
	}
}
