package types

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// Native asset decimal scales per chain
const (
	EVMDecimals    = 18 // wei
	SolanaDecimals = 9  // lamports
	ICPDecimals    = 8  // e8s
)

// NativeDecimals returns the fixed decimal scale of a chain's native coin
func NativeDecimals(c Chain) int32 {
	switch c {
	case ChainSolana:
		return SolanaDecimals
	case ChainICP:
		return ICPDecimals
	default:
		return EVMDecimals
	}
}

// ToRawUnits converts a decimal-string amount to the token's smallest unit.
// The conversion is exact; amounts with more fractional digits than the token
// supports are rejected rather than truncated.
func ToRawUnits(amount string, decimals int32) (*big.Int, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	scaled := d.Shift(decimals)
	if !scaled.IsInteger() {
		return nil, fmt.Errorf("amount %s has more than %d decimal places", amount, decimals)
	}
	return scaled.BigInt(), nil
}

// FromRawUnits converts a smallest-unit integer back to a decimal string
func FromRawUnits(raw *big.Int, decimals int32) string {
	return decimal.NewFromBigInt(raw, -decimals).String()
}

// ApplyMargin scales a raw amount by the given factor, rounding up to the
// next smallest unit. Used for allowance safety margins.
func ApplyMargin(raw *big.Int, factor string) (*big.Int, error) {
	f, err := decimal.NewFromString(factor)
	if err != nil {
		return nil, fmt.Errorf("invalid margin factor %q: %w", factor, err)
	}
	return decimal.NewFromBigInt(raw, 0).Mul(f).Ceil().BigInt(), nil
}
