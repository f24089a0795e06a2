package frame

import (
	"fmt"
	"strings"

	"github.com/lepaya/data-snowflake-client/lib/typing"
)

type Column struct {
	Name string
	Kind typing.KindDetails
}

func NewColumn(name string, kind typing.KindDetails) Column {
	return Column{Name: name, Kind: kind}
}

// Frame is an in-memory table, every row holds one value per column and nil is NULL.
type Frame struct {
	columns []Column
	rows    [][]any
}

func New(columns ...Column) *Frame {
	return &Frame{columns: columns}
}

// FromRecords builds a frame from positional records and infers every column kind from its values.
func FromRecords(names []string, records [][]any) (*Frame, error) {
	if err := validateNames(names); err != nil {
		return nil, err
	}

	return fromRecords(names, records)
}

// FromResultSet builds a frame from a query result, which can repeat a column name (SELECT a.id, b.id).
// [Frame.Column] returns the first match for a repeated name.
func FromResultSet(names []string, records [][]any) (*Frame, error) {
	return fromRecords(names, records)
}

func fromRecords(names []string, records [][]any) (*Frame, error) {
	f := &Frame{columns: make([]Column, len(names))}
	for _, record := range records {
		if err := f.AddRow(record...); err != nil {
			return nil, err
		}
	}

	for i, name := range names {
		f.columns[i] = NewColumn(name, typing.ParseValues(f.ColumnValues(i)))
	}

	return f, nil
}

// FromObjects builds a frame out of maps, the column order follows [names].
func FromObjects(names []string, objects []map[string]any) (*Frame, error) {
	records := make([][]any, 0, len(objects))
	for _, object := range objects {
		record := make([]any, len(names))
		for i, name := range names {
			record[i] = object[name]
		}
		records = append(records, record)
	}

	return FromRecords(names, records)
}

func validateNames(names []string) error {
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("column name cannot be empty")
		}
		if seen[name] {
			return fmt.Errorf("duplicate column name %q", name)
		}
		seen[name] = true
	}
	return nil
}

// Validate checks that every column has a unique, non-empty name.
func (f *Frame) Validate() error {
	return validateNames(f.ColumnNames())
}

func (f *Frame) Columns() []Column {
	return f.columns
}

func (f *Frame) ColumnNames() []string {
	names := make([]string, len(f.columns))
	for i, col := range f.columns {
		names[i] = col.Name
	}
	return names
}

// Column looks the column up by name, case-insensitively when there is no exact match.
func (f *Frame) Column(name string) (Column, int, bool) {
	for i, col := range f.columns {
		if col.Name == name {
			return col, i, true
		}
	}

	for i, col := range f.columns {
		if strings.EqualFold(col.Name, name) {
			return col, i, true
		}
	}

	return Column{}, -1, false
}

func (f *Frame) AddRow(values ...any) error {
	if len(values) != len(f.columns) {
		return fmt.Errorf("expected %d values, got %d", len(f.columns), len(values))
	}

	f.rows = append(f.rows, values)
	return nil
}

func (f *Frame) Rows() [][]any {
	return f.rows
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	if f == nil {
		return 0
	}
	return len(f.rows)
}

func (f *Frame) Empty() bool {
	return f.Len() == 0
}

func (f *Frame) Value(row int, column string) (any, bool) {
	if row < 0 || row >= len(f.rows) {
		return nil, false
	}

	_, idx, ok := f.Column(column)
	if !ok {
		return nil, false
	}

	return f.rows[row][idx], true
}

func (f *Frame) ColumnValues(idx int) []any {
	vals := make([]any, 0, len(f.rows))
	for _, row := range f.rows {
		vals = append(vals, row[idx])
	}
	return vals
}

// Chunks splits the rows into slices of at most [size] rows, a non-positive size returns a single chunk.
func (f *Frame) Chunks(size int) [][][]any {
	if len(f.rows) == 0 {
		return nil
	}

	if size <= 0 || size >= len(f.rows) {
		return [][][]any{f.rows}
	}

	var chunks [][][]any
	for start := 0; start < len(f.rows); start += size {
		end := min(start+size, len(f.rows))
		chunks = append(chunks, f.rows[start:end])
	}
	return chunks
}

// Objects returns every row as a map keyed by column name.
func (f *Frame) Objects() []map[string]any {
	objects := make([]map[string]any, 0, len(f.rows))
	for _, row := range f.rows {
		object := make(map[string]any, len(f.columns))
		for i, col := range f.columns {
			object[col.Name] = row[i]
		}
		objects = append(objects, object)
	}
	return objects
}
