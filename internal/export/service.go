// Package export produces XLSX workbooks from the result store for
// back-office download.
package export

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/bizledger/docextract/internal/repository"
)

// Service is a tiny façade over the record repository that produces XLSX
// bytes for exports.
type Service struct {
	records repository.RecordRepository
	logger  *slog.Logger
}

func NewService(records repository.RecordRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{records: records, logger: logger}
}

// ExportRecordsXLSX returns an XLSX workbook (as bytes) for the given store
// and date window.
// If only from is provided -> from..today (inclusive).
// If only to is provided   -> beginning..to (inclusive).
// If neither is provided   -> all records for the store.
func (s *Service) ExportRecordsXLSX(ctx context.Context, storeID string, from, to *time.Time) ([]byte, error) {
	start := time.Now()

	// Normalize dates (date-only, UTC); the upper bound covers the whole day.
	var fromDate, toDate *time.Time
	if from != nil {
		f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
		fromDate = &f
	}
	if to != nil {
		t := time.Date(to.Year(), to.Month(), to.Day(), 23, 59, 59, 0, time.UTC)
		toDate = &t
	}
	if fromDate != nil && toDate == nil {
		today := time.Now().UTC()
		t := time.Date(today.Year(), today.Month(), today.Day(), 23, 59, 59, 0, time.UTC)
		toDate = &t
	}

	recs, err := s.records.ListRecords(ctx, storeID, fromDate, toDate)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Records"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	if index, _ := f.GetSheetIndex("Sheet1"); index != -1 {
		_ = f.DeleteSheet("Sheet1")
	}

	headers := []string{
		"Extracted At",
		"Record ID",
		"Upload ID",
		"Type",
		"Extraction Method",
		"Total Amount",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, r := range recs {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		if !r.ExtractedAt.IsZero() {
			write(1, r.ExtractedAt.UTC().Format("2006-01-02 15:04:05"))
		} else {
			write(1, "")
		}
		write(2, r.ID.String())
		write(3, r.UploadID)
		write(4, string(r.Type))
		write(5, string(r.ExtractionMethod))
		if r.TotalAmount != nil {
			write(6, r.TotalAmount.String())
		} else {
			write(6, "")
		}
		row++
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}

	s.logger.Info("export.records.ok",
		"store_id", storeID,
		"rows", len(recs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}
