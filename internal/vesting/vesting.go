// Package vesting computes how much of a contributor's token allocation is
// unlockable at a point in time. The release curve is continuous: an
// optional immediate slice at first claim, a cliff, then linear release
// until the duration elapses.
package vesting

import (
	"errors"
	"math/big"

	"token-launchpad/internal/domain"
)

// Vesting errors.
var (
	// ErrNoTokensVested is returned when the claimable delta is zero, so
	// callers can tell "nothing unlocked yet" from a plain zero result.
	ErrNoTokensVested = errors.New("no tokens currently vested")

	// ErrInvalidParams is returned for unusable vesting configurations.
	ErrInvalidParams = errors.New("invalid vesting parameters")

	// ErrReleasedExceedsTotal is returned when a vesting record claims more
	// released than was ever due; it indicates corrupted accounting.
	ErrReleasedExceedsTotal = errors.New("released amount exceeds total due")
)

const bpDenominator = 10000

// ValidateParams checks a vesting configuration at project creation.
// Disabled vesting ignores the remaining fields.
func ValidateParams(p domain.VestingParams) error {
	if !p.Enabled {
		return nil
	}
	if p.Duration <= 0 {
		return ErrInvalidParams
	}
	if p.Cliff < 0 || p.Cliff > p.Duration {
		return ErrInvalidParams
	}
	if p.Interval <= 0 || p.Interval > p.Duration {
		return ErrInvalidParams
	}
	if p.InitialReleaseBp > bpDenominator {
		return ErrInvalidParams
	}
	return nil
}

// AvailableToDate returns how much of totalDue is unlockable at now.
// Disabled vesting unlocks everything immediately. The result is always in
// [0, totalDue], non-decreasing in now, and exactly totalDue once
// projectStart+duration has passed. Interval does not quantize the curve.
func AvailableToDate(totalDue *big.Int, p domain.VestingParams, projectStart, now int64) *big.Int {
	if totalDue == nil || totalDue.Sign() <= 0 {
		return new(big.Int)
	}
	if !p.Enabled {
		return new(big.Int).Set(totalDue)
	}

	initial := new(big.Int).Mul(totalDue, big.NewInt(int64(p.InitialReleaseBp)))
	initial.Div(initial, big.NewInt(bpDenominator))

	cliffEnd := projectStart + p.Cliff
	vestEnd := projectStart + p.Duration

	switch {
	case now < cliffEnd:
		return initial
	case now >= vestEnd || p.Duration == p.Cliff:
		return new(big.Int).Set(totalDue)
	}

	// initial + (total - initial) * (now - cliffEnd) / (duration - cliff)
	remainder := new(big.Int).Sub(totalDue, initial)
	elapsed := big.NewInt(now - cliffEnd)
	span := big.NewInt(p.Duration - p.Cliff)

	vested := remainder.Mul(remainder, elapsed)
	vested.Div(vested, span)
	vested.Add(vested, initial)

	if vested.Cmp(totalDue) > 0 {
		return new(big.Int).Set(totalDue)
	}
	return vested
}

// Claimable returns the delta a contributor may claim now, i.e.
// AvailableToDate minus what was already released. A zero delta is an
// explicit ErrNoTokensVested.
func Claimable(totalDue, released *big.Int, p domain.VestingParams, projectStart, now int64) (*big.Int, error) {
	if released == nil {
		released = new(big.Int)
	}
	if totalDue != nil && released.Cmp(totalDue) > 0 {
		return nil, ErrReleasedExceedsTotal
	}

	available := AvailableToDate(totalDue, p, projectStart, now)
	delta := available.Sub(available, released)
	if delta.Sign() <= 0 {
		return nil, ErrNoTokensVested
	}
	return delta, nil
}
