package domain

import "math/big"

// Contribution is one contributor's cumulative position in a project.
// Corresponds to contributions table in PostgreSQL, keyed (project_id, contributor).
type Contribution struct {
	ProjectID   uint64
	Contributor string   // base58 account address
	Amount      *big.Int // cumulative contribution-token units
	Refunded    bool     // set once, irreversible; excludes the entry from claims and refunds
	FirstAt     int64    // unix seconds of first contribution
	UpdatedAt   int64    // unix seconds of last change
}

// Clone returns a deep copy of the contribution.
func (c *Contribution) Clone() *Contribution {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Amount = cloneBig(c.Amount)
	return &cp
}
