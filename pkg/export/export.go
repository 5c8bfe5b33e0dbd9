package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/xuri/excelize/v2"

	errs "igfollowers/pkg/errors"
	"igfollowers/pkg/models"
	"igfollowers/pkg/storage"
)

// Format names an output encoding
type Format string

const (
	FormatXLSX     Format = "xlsx"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "md"
	FormatJSON     Format = "json"
)

// SheetName is the worksheet the xlsx writer fills
const SheetName = "followers"

// Columns is the header row shared by all tabular formats
var Columns = []string{"username", "followers_count", "profile_url"}

// Writer encodes records to w
type Writer interface {
	Format() Format
	Write(w io.Writer, records []models.Record) error
}

// FormatFor picks the output format. An explicit format wins, then the
// path's extension; anything unrecognized falls back to xlsx.
func FormatFor(format, path string) (Format, error) {
	if format != "" {
		f := Format(strings.ToLower(format))
		switch f {
		case FormatXLSX, FormatCSV, FormatMarkdown, FormatJSON:
			return f, nil
		case "markdown":
			return FormatMarkdown, nil
		}
		return "", fmt.Errorf("unknown output format %q", format)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".md", ".markdown":
		return FormatMarkdown, nil
	case ".json":
		return FormatJSON, nil
	default:
		return FormatXLSX, nil
	}
}

// NewWriter returns the writer for format
func NewWriter(format Format) (Writer, error) {
	switch format {
	case FormatXLSX:
		return xlsxWriter{}, nil
	case FormatCSV:
		return csvWriter{}, nil
	case FormatMarkdown:
		return markdownWriter{}, nil
	case FormatJSON:
		return jsonWriter{}, nil
	}
	return nil, fmt.Errorf("unknown output format %q", format)
}

// Save writes records to path atomically using format (or path's extension)
// and returns the format used
func Save(path, format string, records []models.Record) (Format, error) {
	f, err := FormatFor(format, path)
	if err != nil {
		return "", errs.New(errs.KindExport, "export", path, err)
	}
	w, err := NewWriter(f)
	if err != nil {
		return "", errs.New(errs.KindExport, "export", path, err)
	}

	if err := storage.WriteAtomic(path, 0644, func(out io.Writer) error {
		return w.Write(out, records)
	}); err != nil {
		return "", errs.New(errs.KindExport, "export", path, err)
	}
	return f, nil
}

// countCell renders a count, empty when absent
func countCell(n *int64) string {
	if n == nil {
		return ""
	}
	return strconv.FormatInt(*n, 10)
}

func rows(records []models.Record) [][]string {
	out := make([][]string, 0, len(records))
	for _, r := range records {
		out = append(out, []string{r.Username, countCell(r.FollowersCount), r.ProfileURL})
	}
	return out
}

type csvWriter struct{}

func (csvWriter) Format() Format { return FormatCSV }

func (csvWriter) Write(w io.Writer, records []models.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	if err := cw.WriteAll(rows(records)); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

type markdownWriter struct{}

func (markdownWriter) Format() Format { return FormatMarkdown }

func (markdownWriter) Write(w io.Writer, records []models.Record) error {
	md := markdown.NewMarkdown(w)
	md.H1("Followers")
	md.PlainText("")
	md.PlainTextf("%d accounts", len(records))
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: Columns,
		Rows:   rows(records),
	})
	return md.Build()
}

type jsonWriter struct{}

func (jsonWriter) Format() Format { return FormatJSON }

func (jsonWriter) Write(w io.Writer, records []models.Record) error {
	if records == nil {
		records = []models.Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

type xlsxWriter struct{}

func (xlsxWriter) Format() Format { return FormatXLSX }

func (xlsxWriter) Write(w io.Writer, records []models.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("failed to open sheet: %w", err)
	}

	header := make([]interface{}, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}

	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{r.Username, nil, r.ProfileURL}
		if r.FollowersCount != nil {
			row[1] = *r.FollowersCount
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}
	return f.Write(w)
}
