package fetcher

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/roster-cli/internal/model"
)

// Labels written into spreadsheet content units. Each one is recognized by
// the label-adjacency method for its field.
const (
	LabelName     = "Name"
	LabelEmail    = "Email"
	LabelPhone    = "Phone"
	LabelTitle    = "Title"
	LabelLocation = "Location"
	LabelProfile  = "Profile URL"

	labelFirst = "first"
	labelLast  = "last"
)

var headerAliases = map[string]string{
	"name":             LabelName,
	"full name":        LabelName,
	"contact":          LabelName,
	"contact name":     LabelName,
	"first name":       labelFirst,
	"first":            labelFirst,
	"given name":       labelFirst,
	"last name":        labelLast,
	"last":             labelLast,
	"surname":          labelLast,
	"family name":      labelLast,
	"email":            LabelEmail,
	"e-mail":           LabelEmail,
	"email address":    LabelEmail,
	"phone":            LabelPhone,
	"phone number":     LabelPhone,
	"telephone":        LabelPhone,
	"tel":              LabelPhone,
	"direct":           LabelPhone,
	"direct dial":      LabelPhone,
	"office phone":     LabelPhone,
	"mobile":           LabelPhone,
	"title":            LabelTitle,
	"job title":        LabelTitle,
	"position":         LabelTitle,
	"role":             LabelTitle,
	"location":         LabelLocation,
	"office":           LabelLocation,
	"office location":  LabelLocation,
	"city":             LabelLocation,
	"profile":          LabelProfile,
	"profile url":      LabelProfile,
	"bio url":          LabelProfile,
	"url":              LabelProfile,
	"linkedin":         LabelProfile,
	"linkedin profile": LabelProfile,
}

// ColumnMap maps a column index to the label its values are written under.
type ColumnMap map[int]string

// MapHeader matches header cells against the known column names. Unknown
// columns are ignored; a header with no contact column is an error.
func MapHeader(header []string) (ColumnMap, error) {
	cols := make(ColumnMap)
	seen := make(map[string]bool)
	for i, cell := range header {
		label, ok := headerAliases[normalizeHeader(cell)]
		if !ok || seen[label] {
			continue
		}
		seen[label] = true
		cols[i] = label
	}
	if len(cols) == 0 {
		return nil, eris.Errorf("fetcher: no contact columns in header %q", header)
	}
	return cols, nil
}

func normalizeHeader(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("_", " ", ".", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// RowsToUnits turns spreadsheet rows into content units of "Label: value"
// lines. First and last name columns are joined when no full name column
// exists. Rows with no mapped value are skipped. Unit IDs are idPrefix and
// the 1-based data row number.
func RowsToUnits(header []string, rows [][]string, idPrefix string) ([]model.ContentUnit, error) {
	cols, err := MapHeader(header)
	if err != nil {
		return nil, err
	}

	order := []string{LabelName, LabelEmail, LabelPhone, LabelTitle, LabelLocation, LabelProfile}
	var units []model.ContentUnit
	for n, row := range rows {
		values := make(map[string]string, len(cols))
		for i, label := range cols {
			if i >= len(row) {
				continue
			}
			if v := cellValue(row[i]); v != "" {
				values[label] = v
			}
		}
		if values[LabelName] == "" {
			values[LabelName] = strings.TrimSpace(values[labelFirst] + " " + values[labelLast])
		}

		var lines []string
		for _, label := range order {
			if v := values[label]; v != "" {
				lines = append(lines, label+": "+v)
			}
		}
		if len(lines) == 0 {
			continue
		}
		units = append(units, model.ContentUnit{
			ID:   fmt.Sprintf("%s-%d", idPrefix, n+1),
			Text: strings.Join(lines, "\n"),
		})
	}
	return units, nil
}

// cellValue flattens a cell onto one line so it cannot spill into the
// next label.
func cellValue(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// RosterOptions configures ReadRoster.
type RosterOptions struct {
	Delimiter rune   // CSV only; default ',' or tab for .tsv
	SheetName string // XLSX only; default first sheet
}

// ReadRoster reads a CSV, TSV or XLSX roster whose first row is a header
// and returns one content unit per contact row.
func ReadRoster(ctx context.Context, path string, opts RosterOptions) ([]model.ContentUnit, error) {
	var (
		header []string
		rows   [][]string
		err    error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv", ".tsv", ".txt":
		delim := opts.Delimiter
		if delim == 0 && ext == ".tsv" {
			delim = '\t'
		}
		header, rows, err = readCSVRoster(ctx, path, delim)
	case ".xlsx":
		var all [][]string
		all, err = ReadXLSX(path, XLSXOptions{SheetName: opts.SheetName})
		if err == nil && len(all) > 0 {
			header, rows = all[0], all[1:]
		}
	default:
		return nil, eris.Errorf("fetcher: unsupported roster format %q", ext)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: read roster %s", path)
	}
	if header == nil {
		return nil, eris.Errorf("fetcher: roster %s is empty", path)
	}
	return RowsToUnits(header, rows, filepath.Base(path))
}

// readCSVRoster reads a delimited roster. The first non-blank row is the
// header; a leading byte order mark is dropped from it. Cells are trimmed,
// rows may be ragged, and stray quotes inside a cell are kept.
func readCSVRoster(ctx context.Context, path string, delim rune) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, eris.Wrap(err, "csv: open file")
	}
	defer f.Close() //nolint:errcheck

	return readDelimited(ctx, f, delim)
}

func readDelimited(ctx context.Context, r io.Reader, delim rune) ([]string, [][]string, error) {
	reader := csv.NewReader(r)
	if delim != 0 {
		reader.Comma = delim
	}
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	var (
		header []string
		rows   [][]string
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, nil, eris.Wrap(err, "csv: context cancelled")
		}
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, eris.Wrap(err, "csv: read row")
		}
		for i, cell := range record {
			record[i] = strings.TrimSpace(cell)
		}
		if header == nil {
			record[0] = strings.TrimSpace(strings.TrimPrefix(record[0], "\ufeff"))
			if blankRecord(record) {
				continue
			}
			header = record
			continue
		}
		rows = append(rows, record)
	}
	return header, rows, nil
}

func blankRecord(record []string) bool {
	for _, cell := range record {
		if cell != "" {
			return false
		}
	}
	return true
}
