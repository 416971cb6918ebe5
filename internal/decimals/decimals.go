// Package decimals converts token amounts between precisions and prices
// contributions into 18-decimal project-token amounts. All functions are
// pure; everything that moves money depends on them.
package decimals

import (
	"errors"
	"math/big"
)

// ReferenceDecimals is the fixed precision of project tokens and of the
// tokenPrice fixed point.
const ReferenceDecimals uint8 = 18

// Calculation errors.
var (
	// ErrContributionTooSmall is returned when scaling down would truncate a
	// non-zero amount to zero.
	ErrContributionTooSmall = errors.New("contribution too small: truncates to zero")

	// ErrCalculationOverflow is returned when scaling up would push an
	// amount past the 256-bit range.
	ErrCalculationOverflow = errors.New("calculation overflow")

	// ErrTokenPriceTooLow is returned for prices below 1e12.
	ErrTokenPriceTooLow = errors.New("token price too low")

	// ErrTokenPriceTooHigh is returned for prices above 1e24.
	ErrTokenPriceTooHigh = errors.New("token price too high")

	// ErrNegativeAmount is returned for negative inputs; amounts are unsigned.
	ErrNegativeAmount = errors.New("negative amount")
)

var (
	// priceScale is 1e18, the fixed-point denominator for tokenPrice.
	priceScale = pow10(18)

	// minTokenPrice and maxTokenPrice bound acceptable prices to [1e12, 1e24].
	minTokenPrice = pow10(12)
	maxTokenPrice = pow10(24)

	// maxUint256 caps every intermediate to the 256-bit range the ledger's
	// balances live in.
	maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
)

func pow10(n uint) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}

// ValidateTokenPrice checks that an 18-decimal fixed-point price lies in the
// supported [1e12, 1e24] range.
func ValidateTokenPrice(price *big.Int) error {
	if price == nil || price.Cmp(minTokenPrice) < 0 {
		return ErrTokenPriceTooLow
	}
	if price.Cmp(maxTokenPrice) > 0 {
		return ErrTokenPriceTooHigh
	}
	return nil
}

// ScaleAmount converts amount from one decimal precision to another.
// Scaling up rejects inputs that would leave the 256-bit range before
// multiplying; scaling down rejects non-zero inputs that would truncate to
// zero. Zero scales to zero at any precision.
func ScaleAmount(amount *big.Int, fromDecimals, toDecimals uint8) (*big.Int, error) {
	if amount == nil {
		return new(big.Int), nil
	}
	if amount.Sign() < 0 {
		return nil, ErrNegativeAmount
	}
	if fromDecimals == toDecimals || amount.Sign() == 0 {
		return new(big.Int).Set(amount), nil
	}

	if toDecimals > fromDecimals {
		factor := pow10(uint(toDecimals - fromDecimals))
		limit := new(big.Int).Div(maxUint256, factor)
		if amount.Cmp(limit) > 0 {
			return nil, ErrCalculationOverflow
		}
		return new(big.Int).Mul(amount, factor), nil
	}

	factor := pow10(uint(fromDecimals - toDecimals))
	scaled := new(big.Int).Div(amount, factor)
	if scaled.Sign() == 0 {
		return nil, ErrContributionTooSmall
	}
	return scaled, nil
}

// TokensDue prices a contribution: given an amount in the contribution
// token's native precision and a tokenPrice at the 18-decimal reference
// scale, it returns the project tokens owed in 18-decimal precision.
// A zero contribution yields zero with no error.
func TokensDue(contribution, tokenPrice *big.Int, contributionDecimals uint8) (*big.Int, error) {
	if err := ValidateTokenPrice(tokenPrice); err != nil {
		return nil, err
	}
	if contribution == nil || contribution.Sign() == 0 {
		return new(big.Int), nil
	}

	c18, err := ScaleAmount(contribution, contributionDecimals, ReferenceDecimals)
	if err != nil {
		return nil, err
	}

	// tokens = contribution18 * 1e18 / price
	limit := new(big.Int).Div(maxUint256, priceScale)
	if c18.Cmp(limit) > 0 {
		return nil, ErrCalculationOverflow
	}
	tokens := new(big.Int).Mul(c18, priceScale)
	return tokens.Div(tokens, tokenPrice), nil
}

// TokensDueBatch prices many contributions against one price. Each element
// is validated independently: invalid elements yield zero in the result
// rather than aborting the batch. An out-of-range price fails the whole
// batch because no element could be priced.
func TokensDueBatch(contributions []*big.Int, tokenPrice *big.Int, contributionDecimals uint8) ([]*big.Int, error) {
	if err := ValidateTokenPrice(tokenPrice); err != nil {
		return nil, err
	}

	out := make([]*big.Int, len(contributions))
	for i, c := range contributions {
		due, err := TokensDue(c, tokenPrice, contributionDecimals)
		if err != nil {
			out[i] = new(big.Int)
			continue
		}
		out[i] = due
	}
	return out, nil
}
