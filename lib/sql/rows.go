package sql

import (
	"database/sql"
	"fmt"

	"github.com/lepaya/data-snowflake-client/lib/frame"
	"github.com/lepaya/data-snowflake-client/lib/typing"
)

// ColumnConverter maps result set columns onto frame kinds.
type ColumnConverter interface {
	// KindForColumn returns [typing.Invalid] when the kind should be inferred from the values instead.
	KindForColumn(colType *sql.ColumnType) typing.KindDetails
	ConvertValue(kind typing.KindDetails, val any) (any, error)
}

// RowsToFrame reads every row and closes [rows].
func RowsToFrame(rows *sql.Rows, converter ColumnConverter) (*frame.Frame, error) {
	defer rows.Close()

	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to get column types: %w", err)
	}

	kinds := make([]typing.KindDetails, len(colTypes))
	names := make([]string, len(colTypes))
	for i, colType := range colTypes {
		names[i] = colType.Name()
		kinds[i] = converter.KindForColumn(colType)
	}

	// Integer columns that hold values beyond int64 are converted to decimals and widened once every row is read.
	frameKinds := make([]typing.KindDetails, len(kinds))
	copy(frameKinds, kinds)

	var records [][]any
	for rows.Next() {
		row := make([]any, len(colTypes))
		rowPointers := make([]any, len(colTypes))
		for i := range row {
			rowPointers[i] = &row[i]
		}

		if err = rows.Scan(rowPointers...); err != nil {
			return nil, err
		}

		for i, val := range row {
			if val == nil || !kinds[i].IsValid() {
				continue
			}

			if row[i], err = converter.ConvertValue(kinds[i], val); err != nil {
				return nil, fmt.Errorf("failed to convert column %q: %w", names[i], err)
			}

			if valueKind := typing.ParseValue(row[i]); valueKind.IsDecimal() && !kinds[i].IsDecimal() {
				frameKinds[i] = typing.Merge(frameKinds[i], valueKind)
			}
		}

		records = append(records, row)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate over rows: %w", err)
	}

	f, err := frame.FromResultSet(names, records)
	if err != nil {
		return nil, err
	}

	for i, kind := range frameKinds {
		if kind.IsValid() {
			f.Columns()[i].Kind = kind
		}
	}

	return f, nil
}
