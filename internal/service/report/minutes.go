package report

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/jwalitptl/collabcare-api/internal/model"
)

const minutesSheet = "Minutes"

var minutesHeader = []string{"Date", "User", "Patient", "MRN", "Activity", "Minutes"}

var minutesColumnWidths = []float64{12, 24, 24, 14, 18, 10}

// MinutesXLSX exports the ledger rows matching filter with a total row.
func (s *Service) MinutesXLSX(ctx context.Context, filter model.MinuteFilter) (*File, error) {
	rows, err := s.store.Minutes().Report(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to load minutes: %w", err)
	}
	data, err := minutesWorkbook(rows)
	if err != nil {
		return nil, err
	}

	name := "Minutes_Report"
	if !filter.StartDate.IsZero() {
		name += "_" + filter.StartDate.String()
	}
	if !filter.EndDate.IsZero() {
		name += "_" + filter.EndDate.String()
	}
	return &File{Name: name + ".xlsx", ContentType: ContentTypeXLSX, Data: data}, nil
}

func minutesWorkbook(rows []*model.MinuteReportRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(minutesSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range minutesHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(minutesSheet, cell, header); err != nil {
			return nil, fmt.Errorf("failed to set header %s: %w", cell, err)
		}
		if err := f.SetCellStyle(minutesSheet, cell, cell, headerStyle); err != nil {
			return nil, fmt.Errorf("failed to style header %s: %w", cell, err)
		}
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(minutesSheet, name, name, minutesColumnWidths[col]); err != nil {
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	total := 0
	for i, r := range rows {
		values := []interface{}{
			r.TrackingDate.String(),
			r.UserName,
			deref(r.PatientName),
			deref(r.PatientMRN),
			string(r.Activity),
			r.TotalMinutes,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(minutesSheet, cell, &values); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
		total += r.TotalMinutes
	}

	totalRow := len(rows) + 2
	if err := f.SetCellValue(minutesSheet, fmt.Sprintf("E%d", totalRow), "Total"); err != nil {
		return nil, err
	}
	if err := f.SetCellValue(minutesSheet, fmt.Sprintf("F%d", totalRow), total); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
