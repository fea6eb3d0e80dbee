// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package schedule

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const (
	scheduleSheet = "Schedule"
	totalsSheet   = "Totals"
)

var (
	scheduleHeader = []any{"Code", "Description", "Category", "Qty", "Document"}
	totalsHeader   = []any{"Category", "Code", "Items", "Quantity", "As specified", "Unparsed"}
)

// ExportXLSX writes the schedule to takeoff/index/export.xlsx with a
// Schedule sheet of records and a Totals sheet of per-code quantities.
// It supports the same filters as Retrieve.
func (s *Store) ExportXLSX(ctx context.Context, opts QueryOptions) error {
	entries, err := s.exportEntries(ctx, opts)
	if err != nil {
		return err
	}
	totals, err := s.Totals(ctx, opts)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", scheduleSheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}
	if _, err := f.NewSheet(totalsSheet); err != nil {
		return fmt.Errorf("creating sheet %s: %w", totalsSheet, err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	rows := make([][]any, len(entries))
	for i, e := range entries {
		rows[i] = []any{e.Code, e.Desc, string(e.Type), e.Qty, e.DocumentID}
	}
	if err := writeSheet(f, scheduleSheet, scheduleHeader, rows, bold); err != nil {
		return err
	}

	rows = make([][]any, len(totals))
	for i, t := range totals {
		rows[i] = []any{string(t.Category), t.Code, t.Items, t.Quantity, t.AsSpecified, t.Unparsed}
	}
	if err := writeSheet(f, totalsSheet, totalsHeader, rows, bold); err != nil {
		return err
	}

	if err := f.SetColWidth(scheduleSheet, "B", "B", 60); err != nil {
		return fmt.Errorf("sizing columns: %w", err)
	}

	if err := f.SaveAs(s.ExportPath("xlsx")); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}
	return nil
}

// writeSheet writes a bold header row followed by rows, and freezes the
// header.
func writeSheet(f *excelize.File, sheet string, header []any, rows [][]any, headerStyle int) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("writing %s header: %w", sheet, err)
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("styling %s header: %w", sheet, err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing %s row %d: %w", sheet, i+2, err)
		}
	}

	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}
