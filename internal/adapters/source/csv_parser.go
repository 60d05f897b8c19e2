package source

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// CSVParser reads comma-separated logs (.csv and .txt). The first non-blank
// line is a header and is skipped.
type CSVParser struct {
	norm Normalizer
}

// NewCSVParser creates a CSV parser.
func NewCSVParser(norm Normalizer) *CSVParser {
	return &CSVParser{norm: norm}
}

// Parse reads every row. Bad rows, including ones the CSV reader cannot
// split, are collected in Result.Rejected and reading goes on. Quotes are
// read leniently, so a stray quote stays part of its field.
func (p *CSVParser) Parse(data []byte) (*Result, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.LazyQuotes = true

	res := &Result{}
	header := true
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			res.Rejected = append(res.Rejected, RowError{
				Line: perr.StartLine,
				Raw:  strings.Join(record, ","),
				Err:  fmt.Errorf("%w: %v", ErrMalformedRow, perr.Err),
			})
			header = false
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedLog, err)
		}
		if isBlank(record) {
			continue
		}
		if header {
			header = false
			continue
		}
		line, _ := r.FieldPos(0)
		p.norm.fields(line, record, res)
	}
	return res, nil
}
