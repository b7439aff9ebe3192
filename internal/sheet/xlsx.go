// SPDX-License-Identifier: MIT

package sheet

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFormat is returned for files the reader cannot decode.
var ErrUnsupportedFormat = errors.New("unsupported workbook format")

// maxWorkbookSize bounds the bytes read from a single upload or file.
const maxWorkbookSize = 64 * 1024 * 1024

// ReadFile opens an Office Open XML workbook from disk.
func ReadFile(path string) (*Workbook, error) {
	path = filepath.Clean(path)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}

	// #nosec G304 -- workbook paths are provided by the operator
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	wb, err := ReadXLSX(f)
	if err != nil {
		return nil, err
	}
	wb.Name = filepath.Base(path)
	return wb, nil
}

// ReadXLSX decodes every sheet of a workbook. Cells are read raw, so dates and
// times arrive as spreadsheet serial numbers and are decoded downstream.
func ReadXLSX(r io.Reader) (*Workbook, error) {
	f, err := excelize.OpenReader(io.LimitReader(r, maxWorkbookSize))
	if err != nil {
		return nil, fmt.Errorf("decode workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	wb := &Workbook{}
	for _, name := range f.GetSheetList() {
		raw, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", name, err)
		}
		sh := Sheet{Name: name, Rows: make([]Row, 0, len(raw))}
		for _, cols := range raw {
			sh.Rows = append(sh.Rows, classifyRow(cols))
		}
		wb.Sheets = append(wb.Sheets, sh)
	}
	return wb, nil
}

func classifyRow(cols []string) Row {
	row := make(Row, len(cols))
	for i, v := range cols {
		row[i] = classify(v)
	}
	// Trailing blanks carry no information and would skew column counts.
	for len(row) > 0 && row[len(row)-1].IsEmpty() {
		row = row[:len(row)-1]
	}
	return row
}

func classify(v string) Cell {
	trimmed := strings.TrimSpace(v)
	if trimmed == "" {
		return Cell{}
	}
	if n, err := strconv.ParseFloat(trimmed, 64); err == nil && !math.IsNaN(n) && !math.IsInf(n, 0) {
		return Number(n)
	}
	return Text(v)
}
