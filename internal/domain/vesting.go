package domain

import "math/big"

// VestingInfo tracks a contributor's release progress for one project.
// Created lazily on the contributor's first claim. TotalAmount is computed
// once and immutable thereafter; ReleasedAmount is monotonically
// non-decreasing and bounded by TotalAmount.
type VestingInfo struct {
	ProjectID      uint64
	Contributor    string   // base58 account address
	TotalAmount    *big.Int // 18-decimal project-token units owed in total
	ReleasedAmount *big.Int // 18-decimal project-token units already transferred
	LastClaimTime  int64    // unix seconds of most recent claim
}

// Clone returns a deep copy of the vesting record.
func (v *VestingInfo) Clone() *VestingInfo {
	if v == nil {
		return nil
	}
	c := *v
	c.TotalAmount = cloneBig(v.TotalAmount)
	c.ReleasedAmount = cloneBig(v.ReleasedAmount)
	return &c
}
