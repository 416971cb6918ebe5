package domain

import "math/big"

// Phase is the lifecycle phase of a launch project.
// Transitions are monotonic and one-directional; a phase is never re-entered.
type Phase int

// Project lifecycle phases.
const (
	PhaseUpcoming Phase = iota
	PhaseActive
	PhaseSuccessful
	PhaseFailed
	PhaseClaimable
	PhaseRefundable
	PhaseCompleted
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseUpcoming:
		return "upcoming"
	case PhaseActive:
		return "active"
	case PhaseSuccessful:
		return "successful"
	case PhaseFailed:
		return "failed"
	case PhaseClaimable:
		return "claimable"
	case PhaseRefundable:
		return "refundable"
	case PhaseCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// validPhaseTransitions enumerates every permitted phase edge.
var validPhaseTransitions = map[Phase][]Phase{
	PhaseUpcoming:   {PhaseActive},
	PhaseActive:     {PhaseSuccessful, PhaseFailed},
	PhaseSuccessful: {PhaseClaimable, PhaseCompleted},
	PhaseFailed:     {PhaseRefundable},
	PhaseClaimable:  {PhaseCompleted},
}

// CanTransition reports whether moving from one phase to another is permitted.
func CanTransition(from, to Phase) bool {
	for _, next := range validPhaseTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// VestingParams configures the release schedule for claimed sale tokens.
// Interval is informational: it tells callers how often re-querying is
// worthwhile, the release formula itself is continuous.
type VestingParams struct {
	Enabled          bool
	Cliff            int64  // seconds after project start before linear release begins
	Duration         int64  // seconds after project start at which release completes
	Interval         int64  // suggested re-query cadence, seconds
	InitialReleaseBp uint32 // basis points released immediately on first claim
}

// Project is one token launch. Amounts denominated in the contribution token
// use its native precision; sale-token amounts use the fixed 18-decimal
// project-token precision. TokenPrice is the price of one whole project token
// in contribution tokens, expressed at the 18-decimal reference scale.
type Project struct {
	ID                uint64
	Owner             string // base58 account address
	ProjectToken      string // base58 token address, always 18 decimals
	ContributionToken string // base58 token address

	FundingGoal     *big.Int // hard cap, contribution-token units
	SoftCap         *big.Int // success threshold, contribution-token units
	MinContribution *big.Int // per-contributor cumulative floor
	MaxContribution *big.Int // per-contributor cumulative ceiling
	TokenPrice      *big.Int // 18-decimal fixed point

	StartTime int64 // unix seconds, inclusive
	EndTime   int64 // unix seconds, exclusive

	TokensForSale        *big.Int // 18-decimal allocation sold to contributors
	LiquidityPercentage  uint32   // basis points of net raised committed to the pool
	LockDuration         int64    // seconds the seeded LP position stays locked
	Vesting              VestingParams

	Phase          Phase
	TotalRaised    *big.Int // monotonically non-decreasing while Active
	LiquidityAdded bool

	SaleTokensDeposited      *big.Int // 18-decimal, escrow-held sale allocation
	LiquidityTokensDeposited *big.Int // 18-decimal, escrow-held pool allocation

	// Fee and liquidity percentages in force when the first liquidity
	// deposit was accepted. Finalization recomputes from these values so a
	// platform configuration change between deposit and finalize cannot make
	// the two required-amount computations disagree. Zero until snapshotted.
	DepositFeeBp        uint32
	DepositLiquidityBp  uint32
	LiquiditySnapshotAt int64

	CreatedAt int64 // unix seconds
}

// Clone returns a deep copy of the project.
func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}
	c := *p
	c.FundingGoal = cloneBig(p.FundingGoal)
	c.SoftCap = cloneBig(p.SoftCap)
	c.MinContribution = cloneBig(p.MinContribution)
	c.MaxContribution = cloneBig(p.MaxContribution)
	c.TokenPrice = cloneBig(p.TokenPrice)
	c.TokensForSale = cloneBig(p.TokensForSale)
	c.TotalRaised = cloneBig(p.TotalRaised)
	c.SaleTokensDeposited = cloneBig(p.SaleTokensDeposited)
	c.LiquidityTokensDeposited = cloneBig(p.LiquidityTokensDeposited)
	return &c
}

// cloneBig copies a big.Int, mapping nil to zero so stored records never
// share mutable integers with callers.
func cloneBig(x *big.Int) *big.Int {
	if x == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(x)
}
