package dialect

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/lepaya/data-snowflake-client/lib/typing"
	"github.com/lepaya/data-snowflake-client/lib/typing/decimal"
)

func (SnowflakeDialect) DataTypeForKind(kindDetails typing.KindDetails) (string, error) {
	if kindDetails.IsDecimal() {
		return kindDetails.ExtendedDecimalDetails.SnowflakeKind(), nil
	}

	switch kindDetails {
	case typing.Integer:
		return "NUMBER(38,0)", nil
	case typing.Float:
		return "FLOAT", nil
	case typing.Boolean:
		return "BOOLEAN", nil
	case typing.String:
		return "TEXT", nil
	case typing.TimestampTZ:
		return "TIMESTAMP_TZ", nil
	case typing.TimestampNTZ:
		return "TIMESTAMP_NTZ", nil
	case typing.Date:
		return "DATE", nil
	case typing.Time:
		return "TIME", nil
	case typing.Struct:
		// Snowflake doesn't recognize struct.
		// Must be either OBJECT or VARIANT. However, VARIANT is more versatile.
		return "VARIANT", nil
	case typing.Array:
		return "ARRAY", nil
	case typing.Binary:
		return "BINARY", nil
	}

	return "", fmt.Errorf("unsupported kind %q", kindDetails.Kind)
}

// parseDataType splits `NUMBER(38, 0)` into `number` and its parameters.
func parseDataType(value string) (string, []string, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	start := strings.Index(value, "(")
	if start < 0 {
		return value, nil, nil
	}

	if !strings.HasSuffix(value, ")") {
		return "", nil, fmt.Errorf("missing closing parenthesis in %q", value)
	}

	var parameters []string
	for _, part := range strings.Split(value[start+1:len(value)-1], ",") {
		parameters = append(parameters, strings.TrimSpace(part))
	}

	return strings.TrimSpace(value[:start]), parameters, nil
}

// KindForDataType converts a Snowflake type to a KindDetails.
// It accepts both the column types from `DESC TABLE` and the driver's result set types (FIXED, REAL, TEXT...).
// Type names: https://docs.snowflake.com/en/sql-reference/intro-summary-data-types.html
func (SnowflakeDialect) KindForDataType(snowflakeType string) (typing.KindDetails, error) {
	dataType, parameters, err := parseDataType(snowflakeType)
	if err != nil {
		return typing.Invalid, err
	}

	switch dataType {
	case "number", "numeric", "decimal", "fixed":
		if len(parameters) != 2 || parameters[1] == "0" {
			return typing.Integer, nil
		}

		precision, err := strconv.ParseInt(parameters[0], 10, 32)
		if err != nil {
			return typing.Invalid, fmt.Errorf("failed to parse precision of %q: %w", snowflakeType, err)
		}
		scale, err := strconv.ParseInt(parameters[1], 10, 32)
		if err != nil {
			return typing.Invalid, fmt.Errorf("failed to parse scale of %q: %w", snowflakeType, err)
		}
		return typing.NewDecimalKind(decimal.NewDetails(int32(precision), int32(scale))), nil
	case "int", "integer", "bigint", "smallint", "tinyint", "byteint":
		return typing.Integer, nil
	case "float", "float4", "float8", "double", "double precision", "real":
		return typing.Float, nil
	case "varchar", "char", "character", "string", "text":
		return typing.String, nil
	case "boolean":
		return typing.Boolean, nil
	case "variant", "object":
		return typing.Struct, nil
	case "array":
		return typing.Array, nil
	case "timestamp_ltz", "timestamp_tz":
		return typing.TimestampTZ, nil
	case "timestamp", "datetime", "timestamp_ntz":
		return typing.TimestampNTZ, nil
	case "time":
		return typing.Time, nil
	case "date":
		return typing.Date, nil
	case "binary", "varbinary":
		return typing.Binary, nil
	}

	return typing.Invalid, fmt.Errorf("unsupported data type %q", snowflakeType)
}

// KindForColumn maps a result set column. Unknown types are inferred from their values.
func (sd SnowflakeDialect) KindForColumn(colType *sql.ColumnType) typing.KindDetails {
	kind, err := sd.KindForDataType(colType.DatabaseTypeName())
	if err != nil {
		return typing.Invalid
	}

	if kind == typing.Integer {
		if precision, scale, ok := colType.DecimalSize(); ok && scale > 0 {
			return typing.NewDecimalKind(decimal.NewDetails(int32(precision), int32(scale)))
		}
	}

	return kind
}

// ConvertValue parses the textual values the driver returns for numbers, booleans and semi-structured columns.
func (SnowflakeDialect) ConvertValue(kind typing.KindDetails, val any) (any, error) {
	text, isString := val.(string)
	if !isString {
		return val, nil
	}

	if kind.IsDecimal() {
		return decimal.Parse(text)
	}

	switch kind {
	case typing.Integer:
		if i, err := strconv.ParseInt(text, 10, 64); err == nil {
			return i, nil
		}
		// NUMBER(38,0) can exceed int64.
		return decimal.Parse(text)
	case typing.Float:
		return strconv.ParseFloat(text, 64)
	case typing.Boolean:
		return strconv.ParseBool(text)
	case typing.Struct, typing.Array:
		var parsed any
		if err := json.Unmarshal([]byte(text), &parsed); err != nil {
			return nil, fmt.Errorf("failed to parse %q as JSON: %w", kind.Kind, err)
		}
		return parsed, nil
	}

	return text, nil
}
