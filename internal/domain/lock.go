package domain

import "math/big"

// LiquidityLock gates how much of an owner's LP balance may leave a pool
// before the unlock deadline. The lock does not custody shares separately:
// it constrains the owner's already-held balance, so deposits made after the
// lock raise the withdrawable surplus without moving the locked floor.
// Keyed by the composite (pair, owner), never nested maps.
type LiquidityLock struct {
	PairKey      string
	Owner        string   // base58 account address
	ProjectID    uint64   // launch that seeded the position, 0 for direct locks
	LockedAmount *big.Int // LP share units held below the withdrawal floor
	UnlockTime   int64    // unix seconds
	Active       bool     // flipped false exactly once by Unlock
	CreatedAt    int64    // unix seconds
}

// Clone returns a deep copy of the lock.
func (l *LiquidityLock) Clone() *LiquidityLock {
	if l == nil {
		return nil
	}
	c := *l
	c.LockedAmount = cloneBig(l.LockedAmount)
	return &c
}
