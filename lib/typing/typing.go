package typing

import "github.com/lepaya/data-snowflake-client/lib/typing/decimal"

type KindDetails struct {
	Kind                   string
	ExtendedDecimalDetails decimal.Details
}

// Summarized from the Snowflake data types that a frame column can map to.
var (
	Invalid = KindDetails{
		Kind: "invalid",
	}

	Float = KindDetails{
		Kind: "float",
	}

	Integer = KindDetails{
		Kind: "int",
	}

	// Decimal values are [*apd.Decimal], the precision and scale are set with [NewDecimalKind].
	Decimal = KindDetails{
		Kind: "decimal",
	}

	Boolean = KindDetails{
		Kind: "bool",
	}

	Array = KindDetails{
		Kind: "array",
	}

	Struct = KindDetails{
		Kind: "struct",
	}

	String = KindDetails{
		Kind: "string",
	}

	Binary = KindDetails{
		Kind: "binary",
	}

	// TimestampTZ is used for every [time.Time] value, the location is preserved as the offset.
	TimestampTZ = KindDetails{
		Kind: "timestamp_tz",
	}

	TimestampNTZ = KindDetails{
		Kind: "timestamp_ntz",
	}

	Date = KindDetails{
		Kind: "date",
	}

	Time = KindDetails{
		Kind: "time",
	}
)

func (k KindDetails) IsValid() bool {
	return k.Kind != "" && k != Invalid
}

func NewDecimalKind(details decimal.Details) KindDetails {
	kd := Decimal
	kd.ExtendedDecimalDetails = details
	return kd
}

func (k KindDetails) IsDecimal() bool {
	return k.Kind == Decimal.Kind
}

func (k KindDetails) IsTemporal() bool {
	switch k {
	case TimestampTZ, TimestampNTZ, Date, Time:
		return true
	}

	return false
}

// Merge returns the kind that can hold values of both kinds.
// Invalid is the identity, integers widen into decimals and floats, and any other mismatch falls back to a string.
func Merge(a, b KindDetails) KindDetails {
	switch {
	case !a.IsValid():
		return b
	case !b.IsValid():
		return a
	case a == b:
		return a
	case a.IsDecimal() || b.IsDecimal():
		return mergeDecimal(a, b)
	case (a == Integer && b == Float) || (a == Float && b == Integer):
		return Float
	case (a == TimestampTZ && b == TimestampNTZ) || (a == TimestampNTZ && b == TimestampTZ):
		return TimestampTZ
	}

	return String
}

func mergeDecimal(a, b KindDetails) KindDetails {
	if !a.IsDecimal() {
		a, b = b, a
	}

	switch {
	case b.IsDecimal():
		return NewDecimalKind(decimal.Merge(a.ExtendedDecimalDetails, b.ExtendedDecimalDetails))
	case b == Integer:
		// Integers are stored as NUMBER(38,0).
		return NewDecimalKind(decimal.NewDetails(decimal.MaxPrecision, a.ExtendedDecimalDetails.Scale()))
	case b == Float:
		return Float
	}

	return String
}
