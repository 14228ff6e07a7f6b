// Package csvx is the deterministic extraction path: delimited text in,
// canonical row records out, with no external service involved.
package csvx

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/bizledger/docextract/constants"
	"github.com/bizledger/docextract/internal/common"
	"github.com/bizledger/docextract/internal/entity"
)

// Semantic column synonyms, matched against normalized header names.
var (
	productColumns  = []string{"product", "product_name", "item", "item_name", "name"}
	quantityColumns = []string{"quantity", "qty", "units"}
	priceColumns    = []string{"unit_price", "price", "rate"}
	dateColumns     = []string{"date", "tx_date", "transaction_date"}
	taxColumns      = []string{"tax_rate", "gst_rate", "tax"}
)

var headerSeparators = regexp.MustCompile(`[\s\-./]+`)

// money strings may carry currency symbols, thousands separators, spaces
var moneyNoise = strings.NewReplacer(",", "", " ", "", "₹", "", "$", "", "€", "", "£", "")

// Extract parses raw as delimited text with a header row and produces the
// canonical CSV payload. A row whose quantity or price does not parse is
// skipped and counted, never fatal; the only fatal condition is a header with
// zero recognizable columns, which surfaces common.ErrMalformedInput.
func Extract(raw []byte, fileType constants.FileType, logger *slog.Logger) (entity.CSVData, error) {
	if logger == nil {
		logger = slog.Default()
	}

	r := csv.NewReader(bytes.NewReader(stripBOM(raw)))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return entity.CSVData{}, fmt.Errorf("read header row: %w", common.ErrMalformedInput)
	}

	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = NormalizeColumn(h)
	}

	productIdx := indexOfAny(cols, productColumns)
	quantityIdx := indexOfAny(cols, quantityColumns)
	priceIdx := indexOfAny(cols, priceColumns)
	dateIdx := indexOfAny(cols, dateColumns)
	taxIdx := indexOfAny(cols, taxColumns)

	if productIdx < 0 && quantityIdx < 0 && priceIdx < 0 && dateIdx < 0 && taxIdx < 0 {
		return entity.CSVData{}, fmt.Errorf("no recognizable columns in header %v: %w", cols, common.ErrMalformedInput)
	}

	passthrough := fileType == constants.FileTypeInventoryCSV

	data := entity.CSVData{Records: []entity.CSVRow{}}
	total := decimal.Zero
	rowNum := 1
	for {
		fields, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		rowNum++
		if err != nil {
			// unbalanced quotes etc.; best-effort policy says skip, not abort
			data.SkippedRows++
			logger.Debug("csv.row.unreadable", "row", rowNum, "error", err)
			continue
		}
		if isBlank(fields) {
			continue
		}

		qty, qerr := parseDecimalAt(fields, quantityIdx)
		price, perr := parseDecimalAt(fields, priceIdx)
		if qerr != nil || perr != nil {
			data.SkippedRows++
			logger.Debug("csv.row.skipped", "row", rowNum, "quantity_err", qerr, "price_err", perr)
			continue
		}

		rec := entity.CSVRow{
			"quantity":   qty,
			"unit_price": price,
		}
		if productIdx >= 0 && productIdx < len(fields) {
			rec["product"] = strings.TrimSpace(fields[productIdx])
		}
		if dateIdx >= 0 && dateIdx < len(fields) {
			rec["date"] = strings.TrimSpace(fields[dateIdx])
		}
		if taxIdx >= 0 && taxIdx < len(fields) {
			if rate, err := ParseDecimal(fields[taxIdx]); err == nil {
				rec["tax_rate"] = rate
			}
		}
		if passthrough {
			for i, c := range cols {
				if i >= len(fields) {
					break
				}
				if _, known := rec[c]; known || c == "" {
					continue
				}
				if i == productIdx || i == quantityIdx || i == priceIdx || i == dateIdx || i == taxIdx {
					continue
				}
				rec[c] = strings.TrimSpace(fields[i])
			}
		}

		total = total.Add(qty.Mul(price))
		data.Records = append(data.Records, rec)
	}

	data.TotalAmount = total.Round(2)
	logger.Info("csv.extract.ok",
		"file_type", string(fileType),
		"rows", len(data.Records),
		"skipped_rows", data.SkippedRows,
		"total_amount", data.TotalAmount.String(),
	)
	return data, nil
}

// NormalizeColumn lowercases a header cell and collapses separators to
// underscores, so "Unit Price" and "unit-price" both become "unit_price".
func NormalizeColumn(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = headerSeparators.ReplaceAllString(h, "_")
	return strings.Trim(h, "_")
}

// ParseDecimal parses a numeric cell, tolerating currency symbols and
// thousands separators.
func ParseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(moneyNoise.Replace(s))
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty numeric field")
	}
	return decimal.NewFromString(s)
}

func parseDecimalAt(fields []string, idx int) (decimal.Decimal, error) {
	if idx < 0 || idx >= len(fields) {
		return decimal.Zero, fmt.Errorf("column missing")
	}
	return ParseDecimal(fields[idx])
}

func indexOfAny(cols []string, names []string) int {
	for _, n := range names {
		for i, c := range cols {
			if c == n {
				return i
			}
		}
	}
	return -1
}

func isBlank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func stripBOM(b []byte) []byte {
	return bytes.TrimPrefix(b, []byte{0xEF, 0xBB, 0xBF})
}
