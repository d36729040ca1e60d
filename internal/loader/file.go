package loader

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spec-kit/ticket-dashboard/internal/records"
)

// FileSource reads a spreadsheet export saved as .csv or .json.
type FileSource struct {
	Path string
}

func (f FileSource) Name() string { return "file:" + f.Path }

// Fetch implements Source.
func (f FileSource) Fetch(_ context.Context) ([]records.RawRow, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Path, err)
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(f.Path)) {
	case ".csv":
		return ReadCSV(file)
	case ".json":
		return ReadJSON(file)
	default:
		return nil, fmt.Errorf("unsupported ticket file %q: want .csv or .json", f.Path)
	}
}

// ReadJSON decodes an array of row objects. Scalar values of any JSON type are
// accepted and converted to text.
func ReadJSON(r io.Reader) ([]records.RawRow, error) {
	var items []exportItem
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return nil, fmt.Errorf("decode ticket json: %w", err)
	}
	rows := make([]records.RawRow, 0, len(items))
	for _, item := range items {
		rows = append(rows, item.row())
	}
	return rows, nil
}

// csvColumns maps accepted header names to row setters.
var csvColumns = map[string]func(*records.RawRow, string){
	"id":                func(r *records.RawRow, v string) { r.ID = v },
	"ticket_id":         func(r *records.RawRow, v string) { r.ID = v },
	"created_at_format": func(r *records.RawRow, v string) { r.CreatedAt = v },
	"created_at":        func(r *records.RawRow, v string) { r.CreatedAt = v },
	"closed_at_format":  func(r *records.RawRow, v string) { r.ClosedAt = v },
	"closed_at":         func(r *records.RawRow, v string) { r.ClosedAt = v },
	"status":            func(r *records.RawRow, v string) { r.Status = v },
	"problem_category":  func(r *records.RawRow, v string) { r.ProblemCategory = v },
	"assigned_to_name":  func(r *records.RawRow, v string) { r.AssignedTo = v },
	"assigned_to":       func(r *records.RawRow, v string) { r.AssignedTo = v },
	"department":        func(r *records.RawRow, v string) { r.Department = v },
	"location":          func(r *records.RawRow, v string) { r.Location = v },
}

// ReadCSV reads a header row followed by ticket rows. Unknown columns are ignored;
// short rows leave the missing fields blank.
func ReadCSV(r io.Reader) ([]records.RawRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	setters := make([]func(*records.RawRow, string), len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		setters[i] = csvColumns[key]
	}

	var rows []records.RawRow
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", len(rows)+2, err)
		}
		var row records.RawRow
		for i, val := range rec {
			if i < len(setters) && setters[i] != nil {
				setters[i](&row, val)
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
