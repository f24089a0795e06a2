package dialect

import (
	"fmt"
	"strings"

	"github.com/lepaya/data-snowflake-client/lib/config"
	"github.com/lepaya/data-snowflake-client/lib/frame"
	"github.com/lepaya/data-snowflake-client/lib/typing"
)

// https://docs.snowflake.com/en/sql-reference/sql/copy-into-table#format-type-options-formattypeoptions
const csvFileFormat = `FILE_FORMAT = (TYPE = 'csv' FIELD_DELIMITER = '\t' FIELD_OPTIONALLY_ENCLOSED_BY = '"' NULL_IF = ('\\N') EMPTY_FIELD_AS_NULL = FALSE BINARY_FORMAT = HEX)`

const parquetFileFormat = `FILE_FORMAT = (TYPE = 'PARQUET' BINARY_AS_TEXT = FALSE)`

// BuildCopyIntoTableQuery loads every file under [stageLocation] into [tableID].
// COPY INTO does not return rows affected, the output has one row per file instead.
func (sd SnowflakeDialect) BuildCopyIntoTableQuery(tableID TableIdentifier, columns []frame.Column, stageLocation string, format config.StageFileFormat) (string, error) {
	var fileFormat string
	switch format {
	case config.Parquet:
		fileFormat = parquetFileFormat + " ON_ERROR = ABORT_STATEMENT"
	case config.CSV:
		fileFormat = csvFileFormat
	default:
		return "", fmt.Errorf("unsupported stage file format %q", format)
	}

	colNames := make([]string, len(columns))
	selections := make([]string, len(columns))
	for i, col := range columns {
		colNames[i] = sd.QuoteIdentifier(col.Name)
		selection, err := sd.stageSelection(i, col, format)
		if err != nil {
			return "", err
		}
		selections[i] = selection
	}

	return fmt.Sprintf("COPY INTO %s (%s) FROM (SELECT %s FROM @%s) %s PURGE = TRUE",
		tableID.FullyQualifiedName(),
		strings.Join(colNames, ","),
		strings.Join(selections, ","),
		stageLocation,
		fileFormat,
	), nil
}

// stageSelection reads a single column out of a staged file.
// Parquet files expose each row as an object in $1, CSV files expose positional columns.
func (sd SnowflakeDialect) stageSelection(idx int, col frame.Column, format config.StageFileFormat) (string, error) {
	if format == config.CSV {
		selection := fmt.Sprintf("$%d", idx+1)
		switch col.Kind {
		case typing.Struct:
			// https://community.snowflake.com/s/article/how-to-load-json-values-in-a-csv-file
			return fmt.Sprintf("PARSE_JSON(%s)", selection), nil
		case typing.Array:
			return fmt.Sprintf("CAST(PARSE_JSON(%s) AS ARRAY)", selection), nil
		}
		return selection, nil
	}

	dataType, err := sd.DataTypeForKind(col.Kind)
	if err != nil {
		return "", fmt.Errorf("failed to get data type for column %q: %w", col.Name, err)
	}

	// Field names inside $1 are always case sensitive.
	field := fmt.Sprintf(`$1:"%s"`, strings.ReplaceAll(col.Name, `"`, `""`))

	switch col.Kind {
	case typing.Struct:
		return fmt.Sprintf("PARSE_JSON(%s::STRING)", field), nil
	case typing.Array:
		return fmt.Sprintf("CAST(PARSE_JSON(%s::STRING) AS ARRAY)", field), nil
	case typing.Binary:
		// Parquet binary values come through as hex.
		return fmt.Sprintf("TO_BINARY(%s::STRING, 'HEX')", field), nil
	}

	return fmt.Sprintf("%s::%s", field, dataType), nil
}
