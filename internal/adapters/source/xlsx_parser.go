package source

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// XLSXParser reads the first sheet of a workbook laid out like the CSV log:
// a header row, then date, time and player columns.
type XLSXParser struct {
	norm Normalizer
}

// NewXLSXParser creates an XLSX parser.
func NewXLSXParser(norm Normalizer) *XLSXParser {
	return &XLSXParser{norm: norm}
}

// Parse reads the first sheet.
func (p *XLSXParser) Parse(data []byte) (*Result, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		if strings.Contains(err.Error(), "zip: not a valid zip file") {
			return nil, fmt.Errorf("%w: not an xlsx workbook (use a .csv name for text logs): %v", ErrMalformedLog, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedLog, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrMalformedLog)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: sheet %q: %v", ErrMalformedLog, sheets[0], err)
	}

	res := &Result{}
	header := true
	for i, row := range rows {
		if isBlank(row) {
			continue
		}
		if header {
			header = false
			continue
		}
		p.norm.fields(i+1, row, res)
	}
	return res, nil
}
