package domain

import "math/big"

// LiquidityPool is the reserve state for one canonical token pair.
// TokenLow < TokenHigh lexicographically; every entry point canonicalizes
// before lookup so the ordering of caller arguments never matters.
//
// PriceCumLow/PriceCumHigh are the TWAP accumulators: time-weighted
// cumulative prices scaled by 1e18, advanced with the pre-update reserves
// before any reserve change.
type LiquidityPool struct {
	PairKey   string // "tokenLow|tokenHigh"
	TokenLow  string // base58 token address
	TokenHigh string // base58 token address

	ReserveLow    *big.Int // native-precision balance held for TokenLow
	ReserveHigh   *big.Int // native-precision balance held for TokenHigh
	TotalLPSupply *big.Int // virtual share units outstanding

	PriceCumLow    *big.Int // cumulative price of TokenLow in TokenHigh, 1e18-scaled seconds
	PriceCumHigh   *big.Int // cumulative price of TokenHigh in TokenLow, 1e18-scaled seconds
	LastUpdateTime int64    // unix seconds of last accumulator advance

	FeesLow  *big.Int // protocol sub-fee accrued in TokenLow, native precision
	FeesHigh *big.Int // protocol sub-fee accrued in TokenHigh, native precision

	CreatedAt int64 // unix seconds
}

// Clone returns a deep copy of the pool.
func (p *LiquidityPool) Clone() *LiquidityPool {
	if p == nil {
		return nil
	}
	c := *p
	c.ReserveLow = cloneBig(p.ReserveLow)
	c.ReserveHigh = cloneBig(p.ReserveHigh)
	c.TotalLPSupply = cloneBig(p.TotalLPSupply)
	c.PriceCumLow = cloneBig(p.PriceCumLow)
	c.PriceCumHigh = cloneBig(p.PriceCumHigh)
	c.FeesLow = cloneBig(p.FeesLow)
	c.FeesHigh = cloneBig(p.FeesHigh)
	return &c
}

// SwapRecord is one executed swap against a pool.
// Corresponds to swap_records timeseries in ClickHouse.
type SwapRecord struct {
	PairKey   string
	Trader    string   // base58 account address
	TokenIn   string   // base58 token address
	TokenOut  string   // base58 token address
	AmountIn  *big.Int // native precision of TokenIn
	AmountOut *big.Int // native precision of TokenOut
	FeePaid   *big.Int // trading fee retained, native precision of TokenIn
	Timestamp int64    // unix seconds
}

// Clone returns a deep copy of the swap record.
func (s *SwapRecord) Clone() *SwapRecord {
	if s == nil {
		return nil
	}
	c := *s
	c.AmountIn = cloneBig(s.AmountIn)
	c.AmountOut = cloneBig(s.AmountOut)
	c.FeePaid = cloneBig(s.FeePaid)
	return &c
}

// PriceObservation is a snapshot of a pool's TWAP accumulators at one
// reserve-changing call. GetTWAP answers window queries from these.
// Corresponds to price_observations timeseries in ClickHouse.
type PriceObservation struct {
	PairKey      string
	PriceCumLow  *big.Int // accumulator value after the advance
	PriceCumHigh *big.Int
	Timestamp    int64 // unix seconds
}

// Clone returns a deep copy of the observation.
func (o *PriceObservation) Clone() *PriceObservation {
	if o == nil {
		return nil
	}
	c := *o
	c.PriceCumLow = cloneBig(o.PriceCumLow)
	c.PriceCumHigh = cloneBig(o.PriceCumHigh)
	return &c
}
