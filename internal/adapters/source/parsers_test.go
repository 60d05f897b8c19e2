package source

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/tagboard/internal/domain/model"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func testNormalizer() Normalizer {
	return Normalizer{
		Roster:        model.MustRoster("Tomas Magula", "Jan Brecka"),
		ReferenceYear: 2025,
		Location:      time.UTC,
	}
}

func TestFactory_GetParser(t *testing.T) {
	f := NewFactory(testNormalizer())
	tests := []struct {
		name    string
		file    string
		wantErr bool
		isXLSX  bool
	}{
		{name: "csv", file: "tag.csv"},
		{name: "txt", file: "TAG.TXT"},
		{name: "url", file: "https://magula12.github.io/tag/tag.csv?v=2"},
		{name: "no extension", file: "https://example.com/log"},
		{name: "xlsx", file: "log.xlsx", isXLSX: true},
		{name: "unsupported", file: "log.pdf", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := f.GetParser(tt.file)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			if tt.isXLSX {
				_, ok := p.(*XLSXParser)
				require.True(t, ok)
			} else {
				_, ok := p.(*CSVParser)
				require.True(t, ok)
			}
		})
	}
}

func TestCSVParser_Parse(t *testing.T) {
	tests := []struct {
		name         string
		data         string
		wantEvents   int
		wantRejected []error
	}{
		{
			name:       "header and rows",
			data:       "DATUM,CAS,MENO\n1.6.,10:00,Tomas Magula\n1.6., 12:30, Jan Brecka\n",
			wantEvents: 2,
		},
		{
			name:         "bad rows are dropped",
			data:         "DATUM,CAS,MENO\n31.2.,10:00,Tomas Magula\n1.6.,25:00,Jan Brecka\n1.6.,10:00,Nobody\n1.6.,10:00\n2.6.,08:15,Jan Brecka\n",
			wantEvents:   1,
			wantRejected: []error{ErrBadDate, ErrBadTime, ErrUnknownPlayer, ErrShortRow},
		},
		{
			name:       "blank lines and missing trailing dot",
			data:       "\nDATUM,CAS,MENO\n\n3.7,9:05,Tomas Magula\n",
			wantEvents: 1,
		},
		{
			name: "header only",
			data: "DATUM,CAS,MENO\n",
		},
		{
			name:         "unterminated quote swallows the rest of the row",
			data:         "DATUM,CAS,MENO\n1.6.,\"10:00,Tomas Magula\n",
			wantRejected: []error{ErrShortRow},
		},
		{
			name:         "stray quote only drops its own row",
			data:         "DATUM,CAS,MENO\n1.6.,10:00,Tomas Magula\n1.6.,11:00,Jan\"x\n1.6.,12:00,Jan Brecka\n",
			wantEvents:   2,
			wantRejected: []error{ErrUnknownPlayer},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := NewCSVParser(testNormalizer()).Parse([]byte(tt.data))
			require.NoError(t, err)
			require.Len(t, res.Events, tt.wantEvents)
			require.Len(t, res.Rejected, len(tt.wantRejected))
			for i, want := range tt.wantRejected {
				require.ErrorIs(t, res.Rejected[i], want)
			}
		})
	}
}

func TestCSVParser_Timestamps(t *testing.T) {
	loc := time.FixedZone("CEST", 2*60*60)
	norm := testNormalizer()
	norm.Location = loc
	res, err := NewCSVParser(norm).Parse([]byte("h\n5.8.,23:45,Jan Brecka\n"))
	require.NoError(t, err)
	require.Len(t, res.Events, 1)

	ev := res.Events[0]
	require.Equal(t, time.Date(2025, 8, 5, 23, 45, 0, 0, loc), ev.At)
	require.Equal(t, model.Player("Jan Brecka"), ev.Player)
	require.Equal(t, "2025-08-05", ev.Day().String())
}

func TestXLSXParser_Parse(t *testing.T) {
	data := buildXLSX(t, [][]string{
		{"DATUM", "CAS", "MENO"},
		{"1.6.", "10:00", "Tomas Magula"},
		{"", "", ""},
		{"1.6.", "11:00", "Jan Brecka"},
		{"x", "11:00", "Jan Brecka"},
	})
	res, err := NewXLSXParser(testNormalizer()).Parse(data)
	require.NoError(t, err)
	require.Len(t, res.Events, 2)
	require.Len(t, res.Rejected, 1)
	require.ErrorIs(t, res.Rejected[0], ErrBadDate)

	_, err = NewXLSXParser(testNormalizer()).Parse([]byte("DATUM,CAS,MENO\n"))
	require.ErrorIs(t, err, ErrMalformedLog)
}

func TestFetchers(t *testing.T) {
	ctx := context.Background()

	t.Run("http ok", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("h\n1.6.,10:00,Jan Brecka\n"))
		}))
		defer srv.Close()

		doc, err := NewHTTPFetcher(srv.URL+"/tag.csv", WithFetchTimeout(time.Second)).Fetch(ctx)
		require.NoError(t, err)
		require.Contains(t, string(doc.Data), "Jan Brecka")

		res, err := NewFactory(testNormalizer()).Parse(doc)
		require.NoError(t, err)
		require.Len(t, res.Events, 1)
	})

	t.Run("http status", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		defer srv.Close()

		_, err := NewHTTPFetcher(srv.URL).Fetch(ctx)
		require.ErrorIs(t, err, ErrFetch)
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tag.csv")
		require.NoError(t, os.WriteFile(path, []byte("h\n"), 0o600))

		doc, err := NewFileFetcher(path).Fetch(ctx)
		require.NoError(t, err)
		require.Equal(t, path, doc.Name)

		_, err = NewFileFetcher(path + ".missing").Fetch(ctx)
		require.True(t, errors.Is(err, ErrFetch))
	})
}

func buildXLSX(t *testing.T, rows [][]string) []byte {
	f := excelize.NewFile()
	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	for idx, row := range rows {
		axis, err := excelize.CoordinatesToCellName(1, idx+1)
		require.NoError(t, err)
		cells := make([]interface{}, len(row))
		for i, val := range row {
			cells[i] = val
		}
		require.NoError(t, f.SetSheetRow(sheet, axis, &cells))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	require.NoError(t, f.Close())
	return buf.Bytes()
}
