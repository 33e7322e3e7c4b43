package numbers

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// TokenDecimals is the fixed scaling shared by ETH and LPT.
const TokenDecimals = 18

// FromWei converts a smallest-unit integer amount into a whole-unit float.
func FromWei(amount *big.Int) float64 {
	if amount == nil {
		return 0
	}
	return decimal.NewFromBigInt(amount, -TokenDecimals).InexactFloat64()
}

// FromWeiString converts a smallest-unit decimal string into a whole-unit float.
func FromWeiString(amount string) (float64, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return 0, err
	}
	return d.Shift(-TokenDecimals).InexactFloat64(), nil
}

// ParseDecimal parses a decimal string that is already in whole units.
func ParseDecimal(amount string) (float64, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return 0, err
	}
	return d.InexactFloat64(), nil
}

// FiatValue multiplies a whole-unit asset amount by a fiat spot price.
func FiatValue(amount, price float64) float64 {
	return decimal.NewFromFloat(amount).Mul(decimal.NewFromFloat(price)).InexactFloat64()
}
