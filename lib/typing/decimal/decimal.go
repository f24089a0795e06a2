package decimal

import (
	"fmt"
	"math/big"

	"github.com/cockroachdb/apd/v3"
)

// Parse reads a decimal number without rounding it.
func Parse(value string) (*apd.Decimal, error) {
	decimal, _, err := apd.NewFromString(value)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %q as a decimal: %w", value, err)
	}

	if decimal.Form != apd.Finite {
		return nil, fmt.Errorf("%q is not a finite decimal", value)
	}

	return decimal, nil
}

// DetailsFromValue returns the precision and scale needed to store [decimal] as is.
func DetailsFromValue(decimal *apd.Decimal) Details {
	scale := max(-decimal.Exponent, 0)
	integerDigits := max(int32(decimal.NumDigits())+decimal.Exponent, 1)
	return NewDetails(integerDigits+scale, scale)
}

// WithScale returns [decimal] with exactly [scale] digits after the point.
// Extra digits are rejected instead of being truncated.
func WithScale(decimal *apd.Decimal, scale int32) (*apd.Decimal, error) {
	newExponent := -scale
	exponentDelta := newExponent - decimal.Exponent
	if exponentDelta == 0 {
		return new(apd.Decimal).Set(decimal), nil
	}

	coefficient := new(apd.BigInt).Set(&decimal.Coeff)
	if exponentDelta < 0 {
		multiplier := new(apd.BigInt).Exp(apd.NewBigInt(10), apd.NewBigInt(int64(-exponentDelta)), nil)
		coefficient.Mul(coefficient, multiplier)
	} else {
		divisor := new(apd.BigInt).Exp(apd.NewBigInt(10), apd.NewBigInt(int64(exponentDelta)), nil)
		remainder := new(apd.BigInt)
		coefficient.QuoRem(coefficient, divisor, remainder)
		if remainder.Sign() != 0 {
			return nil, fmt.Errorf("value %s has more than %d digits after the point", decimal.Text('f'), scale)
		}
	}

	return &apd.Decimal{
		Form:     decimal.Form,
		Negative: decimal.Negative,
		Exponent: newExponent,
		Coeff:    *coefficient,
	}, nil
}

// UnscaledBigInt returns the coefficient of [decimal] at [scale], signed.
func UnscaledBigInt(decimal *apd.Decimal, scale int32) (*big.Int, error) {
	scaled, err := WithScale(decimal, scale)
	if err != nil {
		return nil, err
	}

	unscaled := scaled.Coeff.MathBigInt()
	if scaled.Negative {
		unscaled.Neg(unscaled)
	}
	return unscaled, nil
}
