// Package spreadsheet reads and writes single-sheet xlsx workbooks.
package spreadsheet

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

const defaultSheet = "Sheet1"

// ErrNotExist is returned when the workbook file is absent.
var ErrNotExist = errors.New("workbook does not exist")

// Sheet describes the content of one worksheet. Preamble rows are written
// above the header row, separated by one blank line.
type Sheet struct {
	Name     string
	Preamble [][]any
	Headers  []string
	Rows     [][]any
	Widths   map[int]float64
}

// HeaderRow returns the 1-based row index the headers land on.
func (s Sheet) HeaderRow() int {
	if len(s.Preamble) == 0 {
		return 1
	}
	return len(s.Preamble) + 2
}

// Encode renders the sheet into xlsx bytes.
func Encode(sheet Sheet) ([]byte, error) {
	if len(sheet.Headers) == 0 {
		return nil, fmt.Errorf("workbook requires at least one header")
	}
	name := sheet.Name
	if name == "" {
		name = defaultSheet
	}

	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck

	if name != defaultSheet {
		if err := f.SetSheetName(defaultSheet, name); err != nil {
			return nil, fmt.Errorf("rename sheet: %w", err)
		}
	}

	for i, row := range sheet.Preamble {
		if err := writeRow(f, name, i+1, row); err != nil {
			return nil, err
		}
	}

	headerRow := sheet.HeaderRow()
	headers := make([]any, len(sheet.Headers))
	for i, h := range sheet.Headers {
		headers[i] = h
	}
	if err := writeRow(f, name, headerRow, headers); err != nil {
		return nil, err
	}
	if err := styleHeader(f, name, headerRow, len(sheet.Headers)); err != nil {
		return nil, err
	}

	for i, row := range sheet.Rows {
		if err := writeRow(f, name, headerRow+1+i, row); err != nil {
			return nil, err
		}
	}

	for col, width := range sheet.Widths {
		colName, err := excelize.ColumnNumberToName(col)
		if err != nil {
			return nil, fmt.Errorf("convert column number: %w", err)
		}
		if err := f.SetColWidth(name, colName, colName, width); err != nil {
			return nil, fmt.Errorf("set column width: %w", err)
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// Write encodes the sheet and replaces the file at path.
func Write(path string, sheet Sheet) error {
	data, err := Encode(sheet)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("prepare workbook directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write workbook file: %w", err)
	}
	return nil
}

// ReadRows returns the raw cell values of the first sheet. Trailing empty
// cells are trimmed by excelize, so rows may be shorter than the header.
func ReadRows(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotExist
		}
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close() //nolint:errcheck

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	return rows, nil
}

// Cell returns row[idx] or "" when the row is too short.
func Cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func writeRow(f *excelize.File, sheet string, rowIdx int, values []any) error {
	if len(values) == 0 {
		return nil
	}
	cell, err := excelize.CoordinatesToCellName(1, rowIdx)
	if err != nil {
		return fmt.Errorf("convert coordinates: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write row %d: %w", rowIdx, err)
	}
	return nil
}

func styleHeader(f *excelize.File, sheet string, rowIdx, cols int) error {
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	first, err := excelize.CoordinatesToCellName(1, rowIdx)
	if err != nil {
		return fmt.Errorf("convert coordinates: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(cols, rowIdx)
	if err != nil {
		return fmt.Errorf("convert coordinates: %w", err)
	}
	if err := f.SetCellStyle(sheet, first, last, style); err != nil {
		return fmt.Errorf("set header style: %w", err)
	}
	return nil
}
