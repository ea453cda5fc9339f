package sheetsync

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/KajanthanDigitWeb/summery-Dash/utils"
	"github.com/xuri/excelize/v2"
)

const (
	contentTypeCSV  = "text/csv"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

func isWorkbook(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return true
	default:
		return false
	}
}

func uploadContentType(name string) string {
	if isWorkbook(name) {
		return contentTypeXLSX
	}
	return contentTypeCSV
}

// ParseUpload returns the raw rows of an uploaded file, header included.
// Workbooks are read from their first sheet; anything else is read as comma-separated text.
func ParseUpload(name string, r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrMalformedBatch, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, utils.ErrEmptyBatch
	}

	var rows [][]string
	if isWorkbook(name) {
		rows, err = parseWorkbook(data)
	} else {
		rows, err = parseDelimited(data)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, utils.ErrEmptyBatch
	}
	return rows, nil
}

func parseWorkbook(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrMalformedBatch, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, utils.ErrEmptyBatch
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrMalformedBatch, err)
	}
	return padRows(dropBlankRows(rows)), nil
}

// padRows extends rows to the header width; GetRows omits trailing empty cells.
func padRows(rows [][]string) [][]string {
	if len(rows) == 0 {
		return rows
	}
	width := len(rows[0])
	for i, row := range rows {
		if len(row) < width {
			rows[i] = append(row, make([]string, width-len(row))...)
		}
	}
	return rows
}

func parseDelimited(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: not utf-8 text", utils.ErrMalformedBatch)
	}
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrMalformedBatch, err)
	}
	return dropBlankRows(rows), nil
}

func dropBlankRows(rows [][]string) [][]string {
	out := rows[:0]
	for _, row := range rows {
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				out = append(out, row)
				break
			}
		}
	}
	return out
}
