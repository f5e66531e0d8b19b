package sinks

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const defaultSheet = "Sheet1"

// WorkbookWriter collects every table as a sheet of one xlsx file, written on Close.
// Nothing is saved when no table was written.
type WorkbookWriter struct {
	path   string
	file   *excelize.File
	sheets int
}

func NewWorkbookWriter(path string) *WorkbookWriter {
	return &WorkbookWriter{path: path, file: excelize.NewFile()}
}

func (w *WorkbookWriter) WriteTable(ctx context.Context, table Table) error {
	err := table.validate()
	if err != nil {
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	// sheet names are capped at 31 characters
	sheet := table.Name
	if len(sheet) > 31 {
		sheet = sheet[:31]
	}
	_, err = w.file.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}
	if w.sheets == 0 {
		index, err := w.file.GetSheetIndex(sheet)
		if err != nil {
			return err
		}
		w.file.SetActiveSheet(index)
	}
	w.sheets++

	err = w.setRow(sheet, 1, table.Header)
	if err != nil {
		return err
	}
	for i, row := range table.Rows {
		err = w.setRow(sheet, i+2, row)
		if err != nil {
			return err
		}
	}
	return nil
}

func (w *WorkbookWriter) setRow(sheet string, rowNumber int, cells []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNumber)
	if err != nil {
		return err
	}
	values := make([]any, len(cells))
	for i, c := range cells {
		values[i] = c
	}
	err = w.file.SetSheetRow(sheet, cell, &values)
	if err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, rowNumber, err)
	}
	return nil
}

func (w *WorkbookWriter) Close() error {
	defer w.file.Close()
	if w.sheets == 0 {
		return nil
	}
	err := w.file.DeleteSheet(defaultSheet)
	if err != nil {
		return err
	}
	err = w.file.SaveAs(w.path)
	if err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}
