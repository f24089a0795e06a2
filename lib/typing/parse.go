package typing

import (
	"encoding/json"
	"errors"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"

	"github.com/lepaya/data-snowflake-client/lib/typing/decimal"
)

// ParseValue returns the kind of a Go value as it would be stored in a frame.
func ParseValue(val any) KindDetails {
	switch castedVal := val.(type) {
	case nil:
		return Invalid
	case uint, int, uint8, uint16, uint32, uint64, int8, int16, int32, int64:
		return Integer
	case float32, float64:
		return Float
	case bool:
		return Boolean
	case string:
		return String
	case []byte:
		return Binary
	case time.Time, *time.Time:
		return TimestampTZ
	case json.RawMessage:
		return Struct
	case *apd.Decimal:
		if castedVal != nil {
			return NewDecimalKind(decimal.DetailsFromValue(castedVal))
		}
		return Invalid
	}

	switch reflect.TypeOf(val).Kind() {
	case reflect.Slice, reflect.Array:
		return Array
	case reflect.Map, reflect.Struct:
		return Struct
	case reflect.Pointer:
		rv := reflect.ValueOf(val)
		if rv.IsNil() {
			return Invalid
		}
		return ParseValue(rv.Elem().Interface())
	}

	return Invalid
}

// ParseString converts textual input (CSV cells, CLI arguments) into the narrowest Go value.
// Empty strings are treated as NULL.
func ParseString(val string) any {
	if val == "" {
		return nil
	}

	if i, err := strconv.ParseInt(val, 10, 64); err == nil {
		return i
	} else if errors.Is(err, strconv.ErrRange) {
		// Whole numbers beyond int64 are kept exact.
		if d, err := decimal.Parse(val); err == nil {
			return d
		}
	}

	if f, err := strconv.ParseFloat(val, 64); err == nil && !strings.ContainsAny(val, "xXpPnNiI") {
		return f
	}

	switch strings.ToLower(val) {
	case "true":
		return true
	case "false":
		return false
	}

	if ts, err := time.Parse(time.RFC3339Nano, val); err == nil {
		return ts
	}

	return val
}

// ParseValues infers the kind of a column from all of its values.
// Columns that only contain NULL values are typed as strings.
func ParseValues(vals []any) KindDetails {
	kd := Invalid
	for _, val := range vals {
		kd = Merge(kd, ParseValue(val))
	}

	if !kd.IsValid() {
		return String
	}

	return kd
}
