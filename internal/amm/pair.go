package amm

import (
	"errors"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/storage"
)

// ErrIdenticalTokens is returned when a pair names the same token twice.
var ErrIdenticalTokens = errors.New("identical tokens")

// CanonicalPair orders two token addresses into the fixed (low, high) order
// every pool lookup uses. Ordering is lexicographic on the base58 address.
func CanonicalPair(tokenA, tokenB string) (low, high string, err error) {
	if err := domain.ValidateAddress(tokenA); err != nil {
		return "", "", err
	}
	if err := domain.ValidateAddress(tokenB); err != nil {
		return "", "", err
	}
	if tokenA == tokenB {
		return "", "", ErrIdenticalTokens
	}
	if tokenA < tokenB {
		return tokenA, tokenB, nil
	}
	return tokenB, tokenA, nil
}

// PairKeyFor returns the storage key for a token pair in either order.
func PairKeyFor(tokenA, tokenB string) (string, error) {
	low, high, err := CanonicalPair(tokenA, tokenB)
	if err != nil {
		return "", err
	}
	return storage.PairKey(low, high), nil
}
