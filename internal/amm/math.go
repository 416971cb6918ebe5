package amm

import (
	"errors"
	"math/big"
)

// bpDenominator scales basis-point fees and percentages.
const bpDenominator = 10000

// Swap and liquidity math errors.
var (
	// ErrInsufficientLiquidity is returned when a pool cannot supply the
	// requested output or has an empty reserve.
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")

	// ErrInvalidAmount is returned for zero, nil, or negative amounts.
	ErrInvalidAmount = errors.New("invalid amount")
)

// Sqrt returns the integer square root of value (Newton's method).
func Sqrt(value *big.Int) *big.Int {
	if value == nil || value.Sign() <= 0 {
		return new(big.Int)
	}
	if value.Cmp(big.NewInt(4)) < 0 {
		return big.NewInt(1)
	}

	x := new(big.Int).Set(value)
	y := new(big.Int).Add(value, big.NewInt(1))
	y.Rsh(y, 1)
	for y.Cmp(x) < 0 {
		x.Set(y)
		y.Div(value, x)
		y.Add(y, x)
		y.Rsh(y, 1)
	}
	return x
}

// MulDiv computes floor(x*y/denominator) without intermediate overflow.
func MulDiv(x, y, denominator *big.Int) (*big.Int, error) {
	if denominator == nil || denominator.Sign() == 0 {
		return nil, ErrInvalidAmount
	}
	out := new(big.Int).Mul(x, y)
	return out.Div(out, denominator), nil
}

// GetAmountOut prices a constant-product swap with the fee taken from the
// input amount:
//
//	amountOut = floor(amountIn*(1-fee)*reserveOut / (reserveIn + amountIn*(1-fee)))
func GetAmountOut(amountIn, reserveIn, reserveOut *big.Int, feeBp uint32) (*big.Int, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if reserveIn == nil || reserveOut == nil || reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		return nil, ErrInsufficientLiquidity
	}

	inWithFee := new(big.Int).Mul(amountIn, big.NewInt(int64(bpDenominator-feeBp)))
	numerator := new(big.Int).Mul(inWithFee, reserveOut)
	denominator := new(big.Int).Mul(reserveIn, big.NewInt(bpDenominator))
	denominator.Add(denominator, inWithFee)

	return numerator.Div(numerator, denominator), nil
}

// quoteOptimal returns the counterpart amount preserving the reserve ratio:
// amountB = amountA * reserveB / reserveA.
func quoteOptimal(amountA, reserveA, reserveB *big.Int) (*big.Int, error) {
	if amountA == nil || amountA.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if reserveA.Sign() <= 0 || reserveB.Sign() <= 0 {
		return nil, ErrInsufficientLiquidity
	}
	return MulDiv(amountA, reserveB, reserveA)
}
