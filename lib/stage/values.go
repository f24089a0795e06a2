package stage

import (
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"

	"github.com/lepaya/data-snowflake-client/lib/frame"
	"github.com/lepaya/data-snowflake-client/lib/typing"
	"github.com/lepaya/data-snowflake-client/lib/typing/decimal"
)

const (
	timestampTZLayout  = "2006-01-02 15:04:05.999999999 Z07:00"
	timestampNTZLayout = "2006-01-02 15:04:05.999999999"
	dateLayout         = time.DateOnly
	timeLayout         = "15:04:05.999999999"
)

func toInt64(val any) (int64, error) {
	switch castedVal := val.(type) {
	case int:
		return int64(castedVal), nil
	case int8:
		return int64(castedVal), nil
	case int16:
		return int64(castedVal), nil
	case int32:
		return int64(castedVal), nil
	case int64:
		return castedVal, nil
	case uint8:
		return int64(castedVal), nil
	case uint16:
		return int64(castedVal), nil
	case uint32:
		return int64(castedVal), nil
	case uint:
		if uint64(castedVal) > math.MaxInt64 {
			return 0, fmt.Errorf("value %d overflows int64", castedVal)
		}
		return int64(castedVal), nil
	case uint64:
		if castedVal > math.MaxInt64 {
			return 0, fmt.Errorf("value %d overflows int64", castedVal)
		}
		return int64(castedVal), nil
	case float32:
		return toInt64(float64(castedVal))
	case float64:
		if castedVal != math.Trunc(castedVal) {
			return 0, fmt.Errorf("value %v is not a whole number", castedVal)
		}
		// float64(math.MaxInt64) rounds up to 2^63.
		if castedVal < math.MinInt64 || castedVal >= math.MaxInt64 {
			return 0, fmt.Errorf("value %v overflows int64", castedVal)
		}
		return int64(castedVal), nil
	case *apd.Decimal:
		i, err := castedVal.Int64()
		if err != nil {
			return 0, fmt.Errorf("value %s is not an int64: %w", castedVal.Text('f'), err)
		}
		return i, nil
	case string:
		return strconv.ParseInt(castedVal, 10, 64)
	}

	return 0, fmt.Errorf("expected an integer, got %T", val)
}

func toDecimal(val any) (*apd.Decimal, error) {
	switch castedVal := val.(type) {
	case *apd.Decimal:
		return castedVal, nil
	case string:
		return decimal.Parse(castedVal)
	case float32, float64:
		// Floats go through their shortest text form so 0.1 stays 0.1.
		text, err := frame.FormatValue(castedVal)
		if err != nil {
			return nil, err
		}
		return decimal.Parse(text)
	}

	i, err := toInt64(val)
	if err != nil {
		return nil, fmt.Errorf("expected a decimal, got %T", val)
	}
	return apd.New(i, 0), nil
}

func toFloat64(val any) (float64, error) {
	switch castedVal := val.(type) {
	case float32:
		return float64(castedVal), nil
	case float64:
		return castedVal, nil
	case *apd.Decimal:
		return castedVal.Float64()
	case string:
		return strconv.ParseFloat(castedVal, 64)
	}

	i, err := toInt64(val)
	if err != nil {
		return 0, fmt.Errorf("expected a float, got %T", val)
	}
	return float64(i), nil
}

func toBool(val any) (bool, error) {
	switch castedVal := val.(type) {
	case bool:
		return castedVal, nil
	case string:
		return strconv.ParseBool(castedVal)
	}

	return false, fmt.Errorf("expected a boolean, got %T", val)
}

func toTime(val any) (time.Time, error) {
	switch castedVal := val.(type) {
	case time.Time:
		return castedVal, nil
	case *time.Time:
		if castedVal != nil {
			return *castedVal, nil
		}
	case string:
		for _, layout := range []string{time.RFC3339Nano, timestampTZLayout, timestampNTZLayout, dateLayout, timeLayout} {
			if ts, err := time.Parse(layout, castedVal); err == nil {
				return ts, nil
			}
		}
		return time.Time{}, fmt.Errorf("failed to parse %q as a time", castedVal)
	}

	return time.Time{}, fmt.Errorf("expected a time, got %T", val)
}

func toBytes(val any) ([]byte, error) {
	switch castedVal := val.(type) {
	case []byte:
		return castedVal, nil
	case string:
		return []byte(castedVal), nil
	}

	return nil, fmt.Errorf("expected bytes, got %T", val)
}

// wallClock drops the location while keeping the clock reading, which is how TIMESTAMP_NTZ stores values.
func wallClock(ts time.Time) time.Time {
	return time.Date(ts.Year(), ts.Month(), ts.Day(), ts.Hour(), ts.Minute(), ts.Second(), ts.Nanosecond(), time.UTC)
}

// formatText renders a non-nil value the way Snowflake parses it out of a CSV stage file.
func formatText(kind typing.KindDetails, val any) (string, error) {
	if kind.IsDecimal() {
		dec, err := toDecimal(val)
		if err != nil {
			return "", err
		}

		if details := kind.ExtendedDecimalDetails; !details.NotSet() {
			if dec, err = decimal.WithScale(dec, details.Scale()); err != nil {
				return "", err
			}
		}
		return dec.Text('f'), nil
	}

	switch kind {
	case typing.TimestampTZ:
		ts, err := toTime(val)
		if err != nil {
			return "", err
		}
		return ts.Format(timestampTZLayout), nil
	case typing.TimestampNTZ:
		ts, err := toTime(val)
		if err != nil {
			return "", err
		}
		return ts.Format(timestampNTZLayout), nil
	case typing.Date:
		ts, err := toTime(val)
		if err != nil {
			return "", err
		}
		return ts.Format(dateLayout), nil
	case typing.Time:
		ts, err := toTime(val)
		if err != nil {
			return "", err
		}
		return ts.Format(timeLayout), nil
	case typing.Binary:
		bytes, err := toBytes(val)
		if err != nil {
			return "", err
		}
		return strings.ToUpper(hex.EncodeToString(bytes)), nil
	}

	return frame.FormatValue(val)
}
