package frame

import (
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/cockroachdb/apd/v3"

	"github.com/lepaya/data-snowflake-client/lib/typing"
)

// ReadCSV reads a CSV document whose first record is the header.
func ReadCSV(r io.Reader) (*Frame, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("csv is empty, expected a header")
		}
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	var records [][]any
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, fmt.Errorf("failed to read csv record: %w", err)
		}

		values := make([]any, len(record))
		for i, cell := range record {
			values[i] = typing.ParseString(cell)
		}
		records = append(records, values)
	}

	return FromRecords(header, records)
}

func (f *Frame) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(f.ColumnNames()); err != nil {
		return err
	}

	for _, row := range f.rows {
		record := make([]string, len(row))
		for i, val := range row {
			cell, err := FormatValue(val)
			if err != nil {
				return fmt.Errorf("failed to format column %q: %w", f.columns[i].Name, err)
			}
			record[i] = cell
		}

		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// FormatValue renders a value as text; nil becomes an empty string.
func FormatValue(val any) (string, error) {
	switch castedVal := val.(type) {
	case nil:
		return "", nil
	case string:
		return castedVal, nil
	case []byte:
		return hex.EncodeToString(castedVal), nil
	case time.Time:
		return castedVal.Format(time.RFC3339Nano), nil
	case json.RawMessage:
		return string(castedVal), nil
	case *apd.Decimal:
		return castedVal.Text('f'), nil
	}

	switch typing.ParseValue(val) {
	case typing.Array, typing.Struct:
		bytes, err := json.Marshal(val)
		if err != nil {
			return "", err
		}
		return string(bytes), nil
	}

	return fmt.Sprint(val), nil
}
