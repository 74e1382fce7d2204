package table

import (
	"fmt"
	"io"
	"time"

	"github.com/couchcryptid/neo-risk-etl/internal/domain"
	"github.com/xuri/excelize/v2"
)

// Sheet names in the exported workbook.
const (
	SheetApproaches = "Approaches"
	SheetInfo       = "Info"
)

// WriteXLSX writes the table as an Excel workbook: the records on the
// Approaches sheet and a run summary on the Info sheet.
func WriteXLSX(w io.Writer, records []domain.ObjectApproachRecord, generatedAt time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetApproaches); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]any, len(Header))
	for i, name := range Header {
		header[i] = name
	}
	if err := f.SetSheetRow(SheetApproaches, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, r := range records {
		row := []any{
			r.ID,
			r.Name,
			r.ApproachDate.Format(domain.DateLayout),
			r.MissDistanceKM,
			r.RelativeVelocityKMS,
			r.DiameterM,
			r.MassKG,
			r.KineticEnergyKT,
			nil,
			nil,
		}
		if r.PalermoProxy != nil {
			row[8] = *r.PalermoProxy
		}
		if r.RiskCategory != nil {
			row[9] = string(*r.RiskCategory)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetApproaches, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(Header))
	if err != nil {
		return err
	}
	if err := f.SetColWidth(SheetApproaches, "A", lastCol, 20); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	if err := writeInfoSheet(f, records, generatedAt); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeInfoSheet(f *excelize.File, records []domain.ObjectApproachRecord, generatedAt time.Time) error {
	if _, err := f.NewSheet(SheetInfo); err != nil {
		return fmt.Errorf("create info sheet: %w", err)
	}

	info := [][2]any{
		{"Report Generated", generatedAt.UTC().Format(time.RFC3339)},
		{"Total Records", len(records)},
		{"Date Range", dateRange(records)},
	}
	summary := domain.Summarize(records)
	if summary.Total() > 0 {
		for _, c := range domain.RiskCategories {
			info = append(info, [2]any{"Risk " + string(c), summary[c]})
		}
	}

	for i, kv := range info {
		row := []any{kv[0], kv[1]}
		if err := f.SetSheetRow(SheetInfo, fmt.Sprintf("A%d", i+1), &row); err != nil {
			return fmt.Errorf("write info row: %w", err)
		}
	}
	return f.SetColWidth(SheetInfo, "A", "B", 24)
}

func dateRange(records []domain.ObjectApproachRecord) string {
	if len(records) == 0 {
		return ""
	}
	first, last := records[0].ApproachDate, records[0].ApproachDate
	for _, r := range records[1:] {
		if r.ApproachDate.Before(first) {
			first = r.ApproachDate
		}
		if r.ApproachDate.After(last) {
			last = r.ApproachDate
		}
	}
	return first.Format(domain.DateLayout) + " to " + last.Format(domain.DateLayout)
}
