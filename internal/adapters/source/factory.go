package source

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// Parser turns raw log bytes into events.
type Parser interface {
	Parse(data []byte) (*Result, error)
}

// Factory picks a parser from a file name or URL.
type Factory struct {
	norm Normalizer
}

// NewFactory creates a parser factory sharing one normalizer.
func NewFactory(norm Normalizer) *Factory {
	return &Factory{norm: norm}
}

// GetParser returns the parser for name's extension. Names without an
// extension are read as CSV.
func (f *Factory) GetParser(name string) (Parser, error) {
	switch ext := extension(name); ext {
	case "", ".csv", ".txt":
		return NewCSVParser(f.norm), nil
	case ".xlsx":
		return NewXLSXParser(f.norm), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

// Parse selects the parser for doc.Name and runs it.
func (f *Factory) Parse(doc Document) (*Result, error) {
	p, err := f.GetParser(doc.Name)
	if err != nil {
		return nil, err
	}
	return p.Parse(doc.Data)
}

func extension(name string) string {
	if u, err := url.Parse(name); err == nil && u.Scheme != "" {
		name = u.Path
	}
	return strings.ToLower(path.Ext(name))
}
