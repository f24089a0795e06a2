package decimal

import "fmt"

// MaxPrecision is the widest NUMBER Snowflake can store, wider values are kept as text.
const MaxPrecision int32 = 38

type Details struct {
	precision int32
	scale     int32
}

func NewDetails(precision, scale int32) Details {
	if scale > precision {
		// A precision below the scale can't hold the leading zero.
		precision = scale + 1
	}

	return Details{
		precision: precision,
		scale:     scale,
	}
}

func (d Details) Precision() int32 {
	return d.precision
}

func (d Details) Scale() int32 {
	return d.scale
}

func (d Details) NotSet() bool {
	return d.precision == 0
}

// Fits returns whether NUMBER can hold values with these details.
func (d Details) Fits() bool {
	return d.precision <= MaxPrecision
}

// SnowflakeKind returns NUMBER(p,s), or TEXT when the precision goes beyond what NUMBER can hold.
func (d Details) SnowflakeKind() string {
	if d.NotSet() {
		return fmt.Sprintf("NUMBER(%d,%d)", MaxPrecision, d.scale)
	}

	if !d.Fits() {
		return "TEXT"
	}

	return fmt.Sprintf("NUMBER(%d,%d)", d.precision, d.scale)
}

// Merge returns details wide enough for values of both.
func Merge(a, b Details) Details {
	scale := max(a.scale, b.scale)
	integerDigits := max(a.precision-a.scale, b.precision-b.scale)
	return NewDetails(integerDigits+scale, scale)
}
