// Package amm is the constant-product pool engine: reserve bookkeeping,
// swap pricing, LP share issuance, the TWAP accumulator, and enforcement of
// liquidity locks on withdrawal. One pool exists per canonical token pair;
// pool creation is irreversible.
package amm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/lockledger"
	"token-launchpad/internal/observability"
	"token-launchpad/internal/storage"
	"token-launchpad/internal/token"
)

// Engine errors.
var (
	// ErrZeroLiquidity is returned when a liquidity call would mint zero shares.
	ErrZeroLiquidity = errors.New("zero liquidity minted")

	// ErrSlippageTooHigh is returned when an output falls below the caller's minimum.
	ErrSlippageTooHigh = errors.New("slippage too high")

	// ErrPoolNotFound is returned for operations on a pair with no pool.
	ErrPoolNotFound = errors.New("pool not found")

	// ErrExpiredDeadline is returned when a call arrives past its deadline.
	ErrExpiredDeadline = errors.New("deadline expired")

	// ErrInsufficientLPBalance is returned when a removal exceeds the caller's shares.
	ErrInsufficientLPBalance = errors.New("insufficient LP balance")

	// ErrUnauthorized is returned for platform-only entry points.
	ErrUnauthorized = errors.New("unauthorized caller")

	// ErrTWAPWindowUncovered is returned when the requested averaging window
	// is not covered by accumulation history or is shorter than the time
	// elapsed since the last accumulator advance.
	ErrTWAPWindowUncovered = errors.New("TWAP window not covered by price history")

	// ErrInvalidTWAPWindow is returned for non-positive averaging windows.
	ErrInvalidTWAPWindow = errors.New("invalid TWAP window")
)

// burnAddress receives the permanent minimum-liquidity shares minted on pool
// creation. 32 zero bytes in base58.
var burnAddress = strings.Repeat("1", 32)

// minLiquidity is permanently burned on pool creation to keep later share
// math away from division instability.
var minLiquidity = big.NewInt(1000)

// priceScale is the 1e18 fixed-point scale of the TWAP accumulators.
var priceScale = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// Options configures an Engine.
type Options struct {
	Pools        storage.PoolStore
	Balances     storage.LPBalanceStore
	Swaps        storage.SwapRecordStore
	Observations storage.PriceObservationStore
	Locks        *lockledger.Ledger
	Tokens       token.Ledger

	Vault        string // custody account holding every pool's reserves
	Platform     string // identity allowed on platform-only entry points
	FeeRecipient string // receiver of collected protocol fees

	SwapFeeBp          uint32 // trading fee in basis points, default 30
	ProtocolFeeShareBp uint32 // share of the trading fee retained for the protocol

	Logger *log.Logger
	Now    func() int64 // unix seconds, defaults to time.Now
}

// Engine owns all pool state. Operations are strictly serialized: each runs
// to completion or aborts entirely before the next begins.
type Engine struct {
	mu sync.Mutex

	pools        storage.PoolStore
	balances     storage.LPBalanceStore
	swaps        storage.SwapRecordStore
	observations storage.PriceObservationStore
	locks        *lockledger.Ledger
	tokens       token.Ledger

	vault        string
	platform     string
	feeRecipient string

	swapFeeBp          uint32
	protocolFeeShareBp uint32

	logger *log.Logger
	now    func() int64
}

// NewEngine creates a pool engine.
func NewEngine(opts Options) *Engine {
	e := &Engine{
		pools:              opts.Pools,
		balances:           opts.Balances,
		swaps:              opts.Swaps,
		observations:       opts.Observations,
		locks:              opts.Locks,
		tokens:             opts.Tokens,
		vault:              opts.Vault,
		platform:           opts.Platform,
		feeRecipient:       opts.FeeRecipient,
		swapFeeBp:          opts.SwapFeeBp,
		protocolFeeShareBp: opts.ProtocolFeeShareBp,
		logger:             opts.Logger,
		now:                opts.Now,
	}
	if e.swapFeeBp == 0 {
		e.swapFeeBp = 30
	}
	if e.logger == nil {
		e.logger = log.Default()
	}
	if e.now == nil {
		e.now = func() int64 { return time.Now().Unix() }
	}
	return e
}

// AddLiquidityRequest carries the caller's declared amounts for a liquidity add.
type AddLiquidityRequest struct {
	TokenA, TokenB                 string
	AmountADesired, AmountBDesired *big.Int
	AmountAMin, AmountBMin         *big.Int
	To                             string
	Deadline                       int64 // unix seconds, checked at entry
}

// AddLiquidityResult reports the amounts actually taken and shares minted.
type AddLiquidityResult struct {
	AmountA, AmountB *big.Int
	Liquidity        *big.Int
}

// AddLiquidity deposits into a pair's pool, creating the pool on first use.
// For an existing pool the desired amounts are reduced to the largest pair
// preserving the reserve ratio and checked against the caller's minimums.
func (e *Engine) AddLiquidity(ctx context.Context, caller string, req AddLiquidityRequest) (*AddLiquidityResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer observeOp("add_liquidity")()

	res, err := e.addLiquidity(ctx, caller, req)
	if err != nil {
		return nil, err
	}
	observability.RecordLiquidityAdd()
	return res, nil
}

// AddLiquidityWithLock is the launch flow's seeding entry point: it adds
// liquidity on the recipient's behalf and registers a time lock over the
// minted shares. Platform-only.
func (e *Engine) AddLiquidityWithLock(ctx context.Context, caller string, req AddLiquidityRequest, projectID uint64, lockDuration int64) (*AddLiquidityResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer observeOp("add_liquidity_with_lock")()

	if caller != e.platform {
		return nil, ErrUnauthorized
	}

	res, err := e.addLiquidity(ctx, caller, req)
	if err != nil {
		return nil, err
	}
	observability.RecordLiquidityAdd()

	pairKey, err := PairKeyFor(req.TokenA, req.TokenB)
	if err != nil {
		return nil, err
	}
	if err := e.locks.CreateLock(ctx, pairKey, req.To, projectID, res.Liquidity, lockDuration); err != nil {
		return nil, fmt.Errorf("create liquidity lock: %w", err)
	}
	return res, nil
}

func (e *Engine) addLiquidity(ctx context.Context, caller string, req AddLiquidityRequest) (*AddLiquidityResult, error) {
	now := e.now()
	if req.Deadline > 0 && now > req.Deadline {
		return nil, ErrExpiredDeadline
	}
	if err := domain.ValidateAddress(req.To); err != nil {
		return nil, err
	}

	low, high, err := CanonicalPair(req.TokenA, req.TokenB)
	if err != nil {
		return nil, err
	}
	pairKey := storage.PairKey(low, high)

	// Orient desired/min amounts to canonical order.
	dLow, dHigh := req.AmountADesired, req.AmountBDesired
	mLow, mHigh := req.AmountAMin, req.AmountBMin
	if req.TokenA != low {
		dLow, dHigh = dHigh, dLow
		mLow, mHigh = mHigh, mLow
	}
	if dLow == nil || dLow.Sign() <= 0 || dHigh == nil || dHigh.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}

	pool, err := e.pools.Get(ctx, pairKey)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return e.createPool(ctx, caller, req, low, high, dLow, dHigh, now)
	case err != nil:
		return nil, fmt.Errorf("load pool: %w", err)
	}

	e.advanceCumulatives(pool, now)

	amtLow, amtHigh := new(big.Int).Set(dLow), new(big.Int).Set(dHigh)
	highOptimal, err := quoteOptimal(dLow, pool.ReserveLow, pool.ReserveHigh)
	if err != nil {
		return nil, err
	}
	if highOptimal.Cmp(dHigh) <= 0 {
		if mHigh != nil && highOptimal.Cmp(mHigh) < 0 {
			return nil, ErrSlippageTooHigh
		}
		amtHigh = highOptimal
	} else {
		lowOptimal, err := quoteOptimal(dHigh, pool.ReserveHigh, pool.ReserveLow)
		if err != nil {
			return nil, err
		}
		if lowOptimal.Cmp(dLow) > 0 {
			return nil, ErrInvalidAmount
		}
		if mLow != nil && lowOptimal.Cmp(mLow) < 0 {
			return nil, ErrSlippageTooHigh
		}
		amtLow = lowOptimal
	}

	// shares = min(amtLow*supply/reserveLow, amtHigh*supply/reserveHigh)
	byLow, err := MulDiv(amtLow, pool.TotalLPSupply, pool.ReserveLow)
	if err != nil {
		return nil, err
	}
	byHigh, err := MulDiv(amtHigh, pool.TotalLPSupply, pool.ReserveHigh)
	if err != nil {
		return nil, err
	}
	liquidity := byLow
	if byHigh.Cmp(byLow) < 0 {
		liquidity = byHigh
	}
	if liquidity.Sign() <= 0 {
		return nil, ErrZeroLiquidity
	}

	// The caller must be able to fund both legs before any state commits;
	// the stores have no transaction to revert shares minted against a
	// failed debit.
	if err := e.ensureBalance(ctx, low, caller, amtLow); err != nil {
		return nil, err
	}
	if err := e.ensureBalance(ctx, high, caller, amtHigh); err != nil {
		return nil, err
	}

	pool.ReserveLow.Add(pool.ReserveLow, amtLow)
	pool.ReserveHigh.Add(pool.ReserveHigh, amtHigh)
	pool.TotalLPSupply.Add(pool.TotalLPSupply, liquidity)

	if err := e.pools.Update(ctx, pool); err != nil {
		return nil, fmt.Errorf("store pool: %w", err)
	}
	if err := e.creditShares(ctx, pairKey, req.To, liquidity); err != nil {
		return nil, err
	}
	e.recordObservation(ctx, pool)

	// Interactions last: internal accounting above is already committed.
	if err := e.tokens.Transfer(ctx, low, caller, e.vault, amtLow); err != nil {
		return nil, fmt.Errorf("debit %s: %w", low, err)
	}
	if err := e.tokens.Transfer(ctx, high, caller, e.vault, amtHigh); err != nil {
		return nil, fmt.Errorf("debit %s: %w", high, err)
	}

	return e.orientResult(req.TokenA, low, amtLow, amtHigh, liquidity), nil
}

// createPool establishes the pair's pool on its first liquidity call.
func (e *Engine) createPool(ctx context.Context, caller string, req AddLiquidityRequest, low, high string, dLow, dHigh *big.Int, now int64) (*AddLiquidityResult, error) {
	product := new(big.Int).Mul(dLow, dHigh)
	total := Sqrt(product)
	liquidity := new(big.Int).Sub(total, minLiquidity)
	if liquidity.Sign() <= 0 {
		return nil, ErrZeroLiquidity
	}
	if err := e.ensureBalance(ctx, low, caller, dLow); err != nil {
		return nil, err
	}
	if err := e.ensureBalance(ctx, high, caller, dHigh); err != nil {
		return nil, err
	}

	pairKey := storage.PairKey(low, high)
	pool := &domain.LiquidityPool{
		PairKey:        pairKey,
		TokenLow:       low,
		TokenHigh:      high,
		ReserveLow:     new(big.Int).Set(dLow),
		ReserveHigh:    new(big.Int).Set(dHigh),
		TotalLPSupply:  total,
		PriceCumLow:    new(big.Int),
		PriceCumHigh:   new(big.Int),
		FeesLow:        new(big.Int),
		FeesHigh:       new(big.Int),
		LastUpdateTime: now,
		CreatedAt:      now,
	}
	if err := e.pools.Insert(ctx, pool); err != nil {
		return nil, fmt.Errorf("store pool: %w", err)
	}
	if err := e.creditShares(ctx, pairKey, burnAddress, minLiquidity); err != nil {
		return nil, err
	}
	if err := e.creditShares(ctx, pairKey, req.To, liquidity); err != nil {
		return nil, err
	}
	e.recordObservation(ctx, pool)
	observability.RecordPoolCreated()

	if err := e.tokens.Transfer(ctx, low, caller, e.vault, dLow); err != nil {
		return nil, fmt.Errorf("debit %s: %w", low, err)
	}
	if err := e.tokens.Transfer(ctx, high, caller, e.vault, dHigh); err != nil {
		return nil, fmt.Errorf("debit %s: %w", high, err)
	}

	return e.orientResult(req.TokenA, low, dLow, dHigh, liquidity), nil
}

// RemoveLiquidityRequest carries the caller's share redemption.
type RemoveLiquidityRequest struct {
	TokenA, TokenB         string
	LPAmount               *big.Int
	AmountAMin, AmountBMin *big.Int
	To                     string
	Deadline               int64
}

// RemoveLiquidity burns the caller's LP shares for a proportional cut of the
// reserves. The lock ledger is consulted before any reserve is touched.
func (e *Engine) RemoveLiquidity(ctx context.Context, caller string, req RemoveLiquidityRequest) (*AddLiquidityResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer observeOp("remove_liquidity")()

	now := e.now()
	if req.Deadline > 0 && now > req.Deadline {
		return nil, ErrExpiredDeadline
	}
	if err := domain.ValidateAddress(req.To); err != nil {
		return nil, err
	}
	if req.LPAmount == nil || req.LPAmount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}

	low, high, err := CanonicalPair(req.TokenA, req.TokenB)
	if err != nil {
		return nil, err
	}
	pairKey := storage.PairKey(low, high)

	pool, err := e.pools.Get(ctx, pairKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrPoolNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load pool: %w", err)
	}

	balance, err := e.balances.Balance(ctx, pairKey, caller)
	if err != nil {
		return nil, fmt.Errorf("load LP balance: %w", err)
	}
	if req.LPAmount.Cmp(balance) > 0 {
		return nil, ErrInsufficientLPBalance
	}
	if err := e.locks.CheckWithdrawable(ctx, pairKey, caller, req.LPAmount, balance); err != nil {
		return nil, err
	}

	e.advanceCumulatives(pool, now)

	amtLow, err := MulDiv(req.LPAmount, pool.ReserveLow, pool.TotalLPSupply)
	if err != nil {
		return nil, err
	}
	amtHigh, err := MulDiv(req.LPAmount, pool.ReserveHigh, pool.TotalLPSupply)
	if err != nil {
		return nil, err
	}
	if amtLow.Sign() <= 0 || amtHigh.Sign() <= 0 {
		return nil, ErrInsufficientLiquidity
	}

	mLow, mHigh := req.AmountAMin, req.AmountBMin
	if req.TokenA != low {
		mLow, mHigh = mHigh, mLow
	}
	if (mLow != nil && amtLow.Cmp(mLow) < 0) || (mHigh != nil && amtHigh.Cmp(mHigh) < 0) {
		return nil, ErrSlippageTooHigh
	}

	// Shares burn only against a vault that can actually pay out.
	if err := e.ensureBalance(ctx, low, e.vault, amtLow); err != nil {
		return nil, err
	}
	if err := e.ensureBalance(ctx, high, e.vault, amtHigh); err != nil {
		return nil, err
	}

	pool.ReserveLow.Sub(pool.ReserveLow, amtLow)
	pool.ReserveHigh.Sub(pool.ReserveHigh, amtHigh)
	pool.TotalLPSupply.Sub(pool.TotalLPSupply, req.LPAmount)

	if err := e.pools.Update(ctx, pool); err != nil {
		return nil, fmt.Errorf("store pool: %w", err)
	}
	newBalance := new(big.Int).Sub(balance, req.LPAmount)
	if err := e.balances.SetBalance(ctx, pairKey, caller, newBalance); err != nil {
		return nil, fmt.Errorf("store LP balance: %w", err)
	}
	e.recordObservation(ctx, pool)

	if err := e.tokens.Transfer(ctx, low, e.vault, req.To, amtLow); err != nil {
		return nil, fmt.Errorf("credit %s: %w", low, err)
	}
	if err := e.tokens.Transfer(ctx, high, e.vault, req.To, amtHigh); err != nil {
		return nil, fmt.Errorf("credit %s: %w", high, err)
	}

	observability.RecordLiquidityRemoval()
	return e.orientResult(req.TokenA, low, amtLow, amtHigh, new(big.Int).Set(req.LPAmount)), nil
}

// SwapRequest carries one exact-input swap.
type SwapRequest struct {
	TokenIn, TokenOut string
	AmountIn          *big.Int
	MinAmountOut      *big.Int
	To                string
	Deadline          int64
}

// SwapResult reports the output delivered and the fee retained.
type SwapResult struct {
	AmountOut *big.Int
	FeePaid   *big.Int
}

// Swap executes a constant-product swap with the fee taken from the input.
// A protocol sub-fee share of the trading fee accrues to the pool's fee
// balance rather than its reserves.
func (e *Engine) Swap(ctx context.Context, caller string, req SwapRequest) (*SwapResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer observeOp("swap")()

	res, err := e.swap(ctx, caller, req)
	if err != nil {
		observability.RecordSwapError(swapReasonFor(err))
		return nil, err
	}
	observability.RecordSwap()
	return res, nil
}

func (e *Engine) swap(ctx context.Context, caller string, req SwapRequest) (*SwapResult, error) {
	now := e.now()
	if req.Deadline > 0 && now > req.Deadline {
		return nil, ErrExpiredDeadline
	}
	if err := domain.ValidateAddress(req.To); err != nil {
		return nil, err
	}
	if req.AmountIn == nil || req.AmountIn.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}

	low, high, err := CanonicalPair(req.TokenIn, req.TokenOut)
	if err != nil {
		return nil, err
	}
	pairKey := storage.PairKey(low, high)

	pool, err := e.pools.Get(ctx, pairKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrPoolNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load pool: %w", err)
	}

	reserveIn, reserveOut := pool.ReserveLow, pool.ReserveHigh
	feesIn := pool.FeesLow
	if req.TokenIn == high {
		reserveIn, reserveOut = pool.ReserveHigh, pool.ReserveLow
		feesIn = pool.FeesHigh
	}
	if reserveIn.Sign() == 0 || reserveOut.Sign() == 0 {
		return nil, ErrInsufficientLiquidity
	}

	amountOut, err := GetAmountOut(req.AmountIn, reserveIn, reserveOut, e.swapFeeBp)
	if err != nil {
		return nil, err
	}
	if amountOut.Sign() == 0 || amountOut.Cmp(reserveOut) >= 0 {
		return nil, ErrInsufficientLiquidity
	}
	if req.MinAmountOut != nil && amountOut.Cmp(req.MinAmountOut) < 0 {
		return nil, ErrSlippageTooHigh
	}
	if err := e.ensureBalance(ctx, req.TokenIn, caller, req.AmountIn); err != nil {
		return nil, err
	}

	// Accumulate TWAP with the pre-swap reserves, then apply the swap.
	e.advanceCumulatives(pool, now)

	fee := new(big.Int).Mul(req.AmountIn, big.NewInt(int64(e.swapFeeBp)))
	fee.Div(fee, big.NewInt(bpDenominator))
	protocolCut := new(big.Int).Mul(fee, big.NewInt(int64(e.protocolFeeShareBp)))
	protocolCut.Div(protocolCut, big.NewInt(bpDenominator))

	reserveIn.Add(reserveIn, new(big.Int).Sub(req.AmountIn, protocolCut))
	reserveOut.Sub(reserveOut, amountOut)
	feesIn.Add(feesIn, protocolCut)

	if err := e.pools.Update(ctx, pool); err != nil {
		return nil, fmt.Errorf("store pool: %w", err)
	}
	e.recordObservation(ctx, pool)

	record := &domain.SwapRecord{
		PairKey:   pairKey,
		Trader:    caller,
		TokenIn:   req.TokenIn,
		TokenOut:  req.TokenOut,
		AmountIn:  new(big.Int).Set(req.AmountIn),
		AmountOut: new(big.Int).Set(amountOut),
		FeePaid:   fee,
		Timestamp: now,
	}
	if err := e.swaps.Insert(ctx, record); err != nil {
		// Trade history is auxiliary; the swap itself is already committed.
		e.logger.Printf("swap record insert failed for %s: %v", pairKey, err)
	}

	if err := e.tokens.Transfer(ctx, req.TokenIn, caller, e.vault, req.AmountIn); err != nil {
		return nil, fmt.Errorf("debit %s: %w", req.TokenIn, err)
	}
	if err := e.tokens.Transfer(ctx, req.TokenOut, e.vault, req.To, amountOut); err != nil {
		return nil, fmt.Errorf("credit %s: %w", req.TokenOut, err)
	}

	return &SwapResult{AmountOut: amountOut, FeePaid: fee}, nil
}

// Quote prices an input amount against the pair's current reserves without
// executing a swap.
func (e *Engine) Quote(ctx context.Context, tokenIn, tokenOut string, amountIn *big.Int) (*big.Int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}

	low, high, err := CanonicalPair(tokenIn, tokenOut)
	if err != nil {
		return nil, err
	}
	pool, err := e.pools.Get(ctx, storage.PairKey(low, high))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrPoolNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load pool: %w", err)
	}

	reserveIn, reserveOut := pool.ReserveLow, pool.ReserveHigh
	if tokenIn == high {
		reserveIn, reserveOut = pool.ReserveHigh, pool.ReserveLow
	}
	if reserveIn.Sign() == 0 || reserveOut.Sign() == 0 {
		return nil, ErrInsufficientLiquidity
	}

	return GetAmountOut(amountIn, reserveIn, reserveOut, e.swapFeeBp)
}

// CollectProtocolFees transfers a pool's accrued protocol fees to the fee
// recipient. Platform-only.
func (e *Engine) CollectProtocolFees(ctx context.Context, caller, tokenA, tokenB string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer observeOp("collect_protocol_fees")()

	if caller != e.platform {
		return ErrUnauthorized
	}

	low, high, err := CanonicalPair(tokenA, tokenB)
	if err != nil {
		return err
	}
	pool, err := e.pools.Get(ctx, storage.PairKey(low, high))
	if errors.Is(err, storage.ErrNotFound) {
		return ErrPoolNotFound
	}
	if err != nil {
		return fmt.Errorf("load pool: %w", err)
	}

	feesLow := new(big.Int).Set(pool.FeesLow)
	feesHigh := new(big.Int).Set(pool.FeesHigh)
	pool.FeesLow.SetInt64(0)
	pool.FeesHigh.SetInt64(0)
	if err := e.pools.Update(ctx, pool); err != nil {
		return fmt.Errorf("store pool: %w", err)
	}

	if feesLow.Sign() > 0 {
		if err := e.tokens.Transfer(ctx, low, e.vault, e.feeRecipient, feesLow); err != nil {
			return fmt.Errorf("credit %s: %w", low, err)
		}
	}
	if feesHigh.Sign() > 0 {
		if err := e.tokens.Transfer(ctx, high, e.vault, e.feeRecipient, feesHigh); err != nil {
			return fmt.Errorf("credit %s: %w", high, err)
		}
	}
	observability.RecordProtocolFeeSweep()
	return nil
}

// GetReserves returns the pair's reserves oriented to the argument order.
func (e *Engine) GetReserves(ctx context.Context, tokenA, tokenB string) (*big.Int, *big.Int, error) {
	low, high, err := CanonicalPair(tokenA, tokenB)
	if err != nil {
		return nil, nil, err
	}
	pool, err := e.pools.Get(ctx, storage.PairKey(low, high))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil, ErrPoolNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load pool: %w", err)
	}
	if tokenA == low {
		return pool.ReserveLow, pool.ReserveHigh, nil
	}
	return pool.ReserveHigh, pool.ReserveLow, nil
}

// LPBalance returns an owner's share balance for a pair.
func (e *Engine) LPBalance(ctx context.Context, tokenA, tokenB, owner string) (*big.Int, error) {
	pairKey, err := PairKeyFor(tokenA, tokenB)
	if err != nil {
		return nil, err
	}
	return e.balances.Balance(ctx, pairKey, owner)
}

// UnlockLiquidity releases the caller's expired liquidity lock for a pair.
func (e *Engine) UnlockLiquidity(ctx context.Context, caller, tokenA, tokenB string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	pairKey, err := PairKeyFor(tokenA, tokenB)
	if err != nil {
		return err
	}
	return e.locks.Unlock(ctx, pairKey, caller)
}

// GetTWAP returns the time-weighted average price of tokenA in tokenB over
// the trailing window of `period` seconds. The window must be fully covered
// by accumulation history or the query fails rather than returning a
// misleadingly short average.
func (e *Engine) GetTWAP(ctx context.Context, tokenA, tokenB string, period int64) (decimal.Decimal, error) {
	if period <= 0 {
		return decimal.Zero, ErrInvalidTWAPWindow
	}

	low, high, err := CanonicalPair(tokenA, tokenB)
	if err != nil {
		return decimal.Zero, err
	}
	pairKey := storage.PairKey(low, high)

	pool, err := e.pools.Get(ctx, pairKey)
	if errors.Is(err, storage.ErrNotFound) {
		return decimal.Zero, ErrPoolNotFound
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("load pool: %w", err)
	}

	now := e.now()
	windowStart := now - period
	if pool.LastUpdateTime <= windowStart {
		// No accumulator tick inside the window: the elapsed accumulation
		// period exceeds the requested window.
		return decimal.Zero, ErrTWAPWindowUncovered
	}

	anchor, err := e.observations.LatestBefore(ctx, pairKey, windowStart)
	if errors.Is(err, storage.ErrNotFound) {
		return decimal.Zero, ErrTWAPWindowUncovered
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("load observation: %w", err)
	}

	// Project the accumulators from the last update to now at the spot price.
	cumLow := new(big.Int).Set(pool.PriceCumLow)
	cumHigh := new(big.Int).Set(pool.PriceCumHigh)
	if elapsed := now - pool.LastUpdateTime; elapsed > 0 && pool.ReserveLow.Sign() > 0 && pool.ReserveHigh.Sign() > 0 {
		cumLow.Add(cumLow, spotContribution(pool.ReserveHigh, pool.ReserveLow, elapsed))
		cumHigh.Add(cumHigh, spotContribution(pool.ReserveLow, pool.ReserveHigh, elapsed))
	}

	span := now - anchor.Timestamp
	if span <= 0 {
		return decimal.Zero, ErrTWAPWindowUncovered
	}

	cumNow, cumThen := cumLow, anchor.PriceCumLow
	if tokenA == high {
		cumNow, cumThen = cumHigh, anchor.PriceCumHigh
	}
	avg := new(big.Int).Sub(cumNow, cumThen)
	avg.Div(avg, big.NewInt(span))

	return decimal.NewFromBigInt(avg, -18), nil
}

// advanceCumulatives accumulates time-weighted prices using the pre-update
// reserves, then stamps the new timestamp. Must run before any reserve change.
func (e *Engine) advanceCumulatives(pool *domain.LiquidityPool, now int64) {
	elapsed := now - pool.LastUpdateTime
	if elapsed <= 0 {
		return
	}
	if pool.ReserveLow.Sign() > 0 && pool.ReserveHigh.Sign() > 0 {
		pool.PriceCumLow.Add(pool.PriceCumLow, spotContribution(pool.ReserveHigh, pool.ReserveLow, elapsed))
		pool.PriceCumHigh.Add(pool.PriceCumHigh, spotContribution(pool.ReserveLow, pool.ReserveHigh, elapsed))
	}
	pool.LastUpdateTime = now
}

// spotContribution is reserveNum*1e18*elapsed/reserveDen, the accumulator
// increment for one direction.
func spotContribution(reserveNum, reserveDen *big.Int, elapsed int64) *big.Int {
	out := new(big.Int).Mul(reserveNum, priceScale)
	out.Mul(out, big.NewInt(elapsed))
	return out.Div(out, reserveDen)
}

// creditShares adds LP shares to an owner's balance.
func (e *Engine) creditShares(ctx context.Context, pairKey, owner string, amount *big.Int) error {
	balance, err := e.balances.Balance(ctx, pairKey, owner)
	if err != nil {
		return fmt.Errorf("load LP balance: %w", err)
	}
	balance.Add(balance, amount)
	if err := e.balances.SetBalance(ctx, pairKey, owner, balance); err != nil {
		return fmt.Errorf("store LP balance: %w", err)
	}
	return nil
}

// recordObservation persists the pool's accumulator state for TWAP queries.
// History writes are best-effort: pool state is already committed.
func (e *Engine) recordObservation(ctx context.Context, pool *domain.LiquidityPool) {
	obs := &domain.PriceObservation{
		PairKey:      pool.PairKey,
		PriceCumLow:  new(big.Int).Set(pool.PriceCumLow),
		PriceCumHigh: new(big.Int).Set(pool.PriceCumHigh),
		Timestamp:    pool.LastUpdateTime,
	}
	if err := e.observations.Insert(ctx, obs); err != nil {
		e.logger.Printf("price observation insert failed for %s: %v", pool.PairKey, err)
	}
}

// ensureBalance verifies an account can cover a debit before pool state is
// committed; the stores have no transaction to revert.
func (e *Engine) ensureBalance(ctx context.Context, tok, account string, amount *big.Int) error {
	balance, err := e.tokens.BalanceOf(ctx, tok, account)
	if err != nil {
		return fmt.Errorf("check balance %s: %w", tok, err)
	}
	if balance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s on %s", token.ErrInsufficientBalance, account, tok)
	}
	return nil
}

// observeOp times one engine operation for the duration histogram.
func observeOp(name string) func() {
	start := time.Now()
	return func() {
		observability.RecordOperation(name, time.Since(start).Seconds())
	}
}

// swapReasonFor maps a rejection to a stable metric label.
func swapReasonFor(err error) string {
	switch {
	case errors.Is(err, ErrPoolNotFound):
		return "no_pool"
	case errors.Is(err, ErrInsufficientLiquidity):
		return "liquidity"
	case errors.Is(err, ErrSlippageTooHigh):
		return "slippage"
	case errors.Is(err, ErrExpiredDeadline):
		return "deadline"
	case errors.Is(err, ErrInvalidAmount):
		return "amount"
	case errors.Is(err, token.ErrInsufficientBalance):
		return "balance"
	default:
		return "other"
	}
}

// orientResult maps canonical-order amounts back to the caller's argument order.
func (e *Engine) orientResult(tokenA, low string, amtLow, amtHigh, liquidity *big.Int) *AddLiquidityResult {
	if tokenA == low {
		return &AddLiquidityResult{AmountA: amtLow, AmountB: amtHigh, Liquidity: liquidity}
	}
	return &AddLiquidityResult{AmountA: amtHigh, AmountB: amtLow, Liquidity: liquidity}
}
