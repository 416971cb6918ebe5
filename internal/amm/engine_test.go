package amm

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/lockledger"
	"token-launchpad/internal/observability"
	"token-launchpad/internal/storage"
	"token-launchpad/internal/storage/memory"
	"token-launchpad/internal/token"
)

type engineEnv struct {
	now    int64
	engine *Engine
	tokens *token.MemoryLedger
	locks  *lockledger.Ledger

	tokA, tokB   string
	user         string
	trader       string
	platform     string
	vault        string
	feeRecipient string
}

func newEngineEnv(t *testing.T) *engineEnv {
	t.Helper()

	env := &engineEnv{
		now:          1_000_000,
		tokA:         domain.DeriveCustodyAddress("engine-test/token-a"),
		tokB:         domain.DeriveCustodyAddress("engine-test/token-b"),
		user:         domain.DeriveCustodyAddress("engine-test/user"),
		trader:       domain.DeriveCustodyAddress("engine-test/trader"),
		platform:     domain.DeriveCustodyAddress("engine-test/platform"),
		vault:        domain.DeriveCustodyAddress("engine-test/vault"),
		feeRecipient: domain.DeriveCustodyAddress("engine-test/fee-recipient"),
	}

	env.tokens = token.NewMemoryLedger(env.platform)
	env.tokens.Register(env.tokA, "Token A", "TKA", 18)
	env.tokens.Register(env.tokB, "Token B", "TKB", 18)
	supply := big.NewInt(1_000_000_000)
	for _, account := range []string{env.user, env.trader, env.platform} {
		for _, tok := range []string{env.tokA, env.tokB} {
			if err := env.tokens.Mint(tok, account, supply); err != nil {
				t.Fatalf("mint failed: %v", err)
			}
		}
	}

	clock := func() int64 { return env.now }
	env.locks = lockledger.New(memory.NewLockStore(), lockledger.WithClock(clock))
	env.engine = NewEngine(Options{
		Pools:              memory.NewPoolStore(),
		Balances:           memory.NewLPBalanceStore(),
		Swaps:              memory.NewSwapRecordStore(),
		Observations:       memory.NewPriceObservationStore(),
		Locks:              env.locks,
		Tokens:             env.tokens,
		Vault:              env.vault,
		Platform:           env.platform,
		FeeRecipient:       env.feeRecipient,
		SwapFeeBp:          30,
		ProtocolFeeShareBp: 2000,
		Now:                clock,
	})
	return env
}

func (env *engineEnv) addLiquidity(t *testing.T, caller string, amountA, amountB int64) *AddLiquidityResult {
	t.Helper()
	res, err := env.engine.AddLiquidity(context.Background(), caller, AddLiquidityRequest{
		TokenA:         env.tokA,
		TokenB:         env.tokB,
		AmountADesired: big.NewInt(amountA),
		AmountBDesired: big.NewInt(amountB),
		To:             caller,
	})
	if err != nil {
		t.Fatalf("AddLiquidity(%d, %d) failed: %v", amountA, amountB, err)
	}
	return res
}

func TestAddLiquidity_CreatesPool(t *testing.T) {
	env := newEngineEnv(t)
	ctx := context.Background()

	res := env.addLiquidity(t, env.user, 1_000_000, 4_000_000)

	// sqrt(1e6 * 4e6) = 2e6 shares total, 1000 burned.
	wantShares := big.NewInt(2_000_000 - 1000)
	if res.Liquidity.Cmp(wantShares) != 0 {
		t.Errorf("minted shares = %s, want %s", res.Liquidity, wantShares)
	}

	balance, err := env.engine.LPBalance(ctx, env.tokA, env.tokB, env.user)
	if err != nil {
		t.Fatalf("LPBalance failed: %v", err)
	}
	if balance.Cmp(wantShares) != 0 {
		t.Errorf("LP balance = %s, want %s", balance, wantShares)
	}

	burned, err := env.engine.LPBalance(ctx, env.tokA, env.tokB, burnAddress)
	if err != nil {
		t.Fatalf("LPBalance(burn) failed: %v", err)
	}
	if burned.Cmp(minLiquidity) != 0 {
		t.Errorf("burned shares = %s, want %s", burned, minLiquidity)
	}

	rA, rB, err := env.engine.GetReserves(ctx, env.tokA, env.tokB)
	if err != nil {
		t.Fatalf("GetReserves failed: %v", err)
	}
	if rA.Int64() != 1_000_000 || rB.Int64() != 4_000_000 {
		t.Errorf("reserves = (%s, %s), want (1000000, 4000000)", rA, rB)
	}

	vaultA, _ := env.tokens.BalanceOf(ctx, env.tokA, env.vault)
	vaultB, _ := env.tokens.BalanceOf(ctx, env.tokB, env.vault)
	if vaultA.Int64() != 1_000_000 || vaultB.Int64() != 4_000_000 {
		t.Errorf("vault holds (%s, %s), want (1000000, 4000000)", vaultA, vaultB)
	}
}

func TestAddLiquidity_TinyDepositRejected(t *testing.T) {
	env := newEngineEnv(t)

	_, err := env.engine.AddLiquidity(context.Background(), env.user, AddLiquidityRequest{
		TokenA:         env.tokA,
		TokenB:         env.tokB,
		AmountADesired: big.NewInt(10),
		AmountBDesired: big.NewInt(10),
		To:             env.user,
	})
	if !errors.Is(err, ErrZeroLiquidity) {
		t.Fatalf("expected ErrZeroLiquidity, got %v", err)
	}
}

func TestAddLiquidity_ProportionalShares(t *testing.T) {
	env := newEngineEnv(t)
	ctx := context.Background()

	env.addLiquidity(t, env.user, 1_000_000, 4_000_000)

	// Second deposit at the same ratio doubles the pool.
	res := env.addLiquidity(t, env.trader, 1_000_000, 4_000_000)
	if res.Liquidity.Int64() != 2_000_000 {
		t.Errorf("second deposit shares = %s, want 2000000", res.Liquidity)
	}
	if res.AmountA.Int64() != 1_000_000 || res.AmountB.Int64() != 4_000_000 {
		t.Errorf("amounts taken = (%s, %s)", res.AmountA, res.AmountB)
	}

	rA, rB, err := env.engine.GetReserves(ctx, env.tokA, env.tokB)
	if err != nil {
		t.Fatalf("GetReserves failed: %v", err)
	}
	if rA.Int64() != 2_000_000 || rB.Int64() != 8_000_000 {
		t.Errorf("reserves = (%s, %s)", rA, rB)
	}
}

func TestAddLiquidity_ExcessCounterpartReduced(t *testing.T) {
	env := newEngineEnv(t)

	env.addLiquidity(t, env.user, 1_000_000, 4_000_000)

	// Deposit offers too much B: only the ratio-matching amount is taken.
	res := env.addLiquidity(t, env.trader, 500_000, 3_000_000)
	if res.AmountA.Int64() != 500_000 || res.AmountB.Int64() != 2_000_000 {
		t.Errorf("amounts taken = (%s, %s), want (500000, 2000000)", res.AmountA, res.AmountB)
	}
}

func TestAddLiquidity_SlippageMin(t *testing.T) {
	env := newEngineEnv(t)

	env.addLiquidity(t, env.user, 1_000_000, 4_000_000)

	_, err := env.engine.AddLiquidity(context.Background(), env.trader, AddLiquidityRequest{
		TokenA:         env.tokA,
		TokenB:         env.tokB,
		AmountADesired: big.NewInt(500_000),
		AmountBDesired: big.NewInt(3_000_000),
		AmountBMin:     big.NewInt(2_500_000), // optimal is 2_000_000
		To:             env.trader,
	})
	if !errors.Is(err, ErrSlippageTooHigh) {
		t.Fatalf("expected ErrSlippageTooHigh, got %v", err)
	}
}

func TestAddLiquidity_ExpiredDeadline(t *testing.T) {
	env := newEngineEnv(t)

	_, err := env.engine.AddLiquidity(context.Background(), env.user, AddLiquidityRequest{
		TokenA:         env.tokA,
		TokenB:         env.tokB,
		AmountADesired: big.NewInt(1_000_000),
		AmountBDesired: big.NewInt(1_000_000),
		To:             env.user,
		Deadline:       env.now - 1,
	})
	if !errors.Is(err, ErrExpiredDeadline) {
		t.Fatalf("expected ErrExpiredDeadline, got %v", err)
	}
}

func TestAddLiquidity_UnfundedCallerRejected(t *testing.T) {
	env := newEngineEnv(t)
	ctx := context.Background()

	// An unfunded caller must not create a pool on credit.
	broke := domain.DeriveCustodyAddress("engine-test/broke")
	_, err := env.engine.AddLiquidity(ctx, broke, AddLiquidityRequest{
		TokenA:         env.tokA,
		TokenB:         env.tokB,
		AmountADesired: big.NewInt(1_000_000),
		AmountBDesired: big.NewInt(1_000_000),
		To:             broke,
	})
	if !errors.Is(err, token.ErrInsufficientBalance) {
		t.Fatalf("unfunded pool creation: got %v", err)
	}
	if _, _, err := env.engine.GetReserves(ctx, env.tokA, env.tokB); !errors.Is(err, ErrPoolNotFound) {
		t.Errorf("pool after failed creation: got %v", err)
	}

	// Nor mint shares against an existing pool it cannot pay into.
	env.addLiquidity(t, env.user, 1_000_000, 4_000_000)
	_, err = env.engine.AddLiquidity(ctx, broke, AddLiquidityRequest{
		TokenA:         env.tokA,
		TokenB:         env.tokB,
		AmountADesired: big.NewInt(500_000),
		AmountBDesired: big.NewInt(2_000_000),
		To:             broke,
	})
	if !errors.Is(err, token.ErrInsufficientBalance) {
		t.Fatalf("unfunded deposit: got %v", err)
	}
	shares, err := env.engine.LPBalance(ctx, env.tokA, env.tokB, broke)
	if err != nil {
		t.Fatalf("LPBalance failed: %v", err)
	}
	if shares.Sign() != 0 {
		t.Errorf("unfunded caller holds %s shares, want 0", shares)
	}
	rA, rB, err := env.engine.GetReserves(ctx, env.tokA, env.tokB)
	if err != nil {
		t.Fatalf("GetReserves failed: %v", err)
	}
	if rA.Int64() != 1_000_000 || rB.Int64() != 4_000_000 {
		t.Errorf("reserves = (%s, %s), want (1000000, 4000000)", rA, rB)
	}
}

func TestSwap_UnfundedCallerRejected(t *testing.T) {
	env := newEngineEnv(t)
	ctx := context.Background()

	env.addLiquidity(t, env.user, 1_000_000, 1_000_000)

	broke := domain.DeriveCustodyAddress("engine-test/broke")
	_, err := env.engine.Swap(ctx, broke, SwapRequest{
		TokenIn:  env.tokA,
		TokenOut: env.tokB,
		AmountIn: big.NewInt(10_000),
		To:       broke,
	})
	if !errors.Is(err, token.ErrInsufficientBalance) {
		t.Fatalf("unfunded swap: got %v", err)
	}

	rA, rB, err := env.engine.GetReserves(ctx, env.tokA, env.tokB)
	if err != nil {
		t.Fatalf("GetReserves failed: %v", err)
	}
	if rA.Int64() != 1_000_000 || rB.Int64() != 1_000_000 {
		t.Errorf("reserves moved to (%s, %s) on a failed swap", rA, rB)
	}
}

func TestSwap(t *testing.T) {
	env := newEngineEnv(t)
	ctx := context.Background()

	env.addLiquidity(t, env.user, 1_000_000, 1_000_000)

	res, err := env.engine.Swap(ctx, env.trader, SwapRequest{
		TokenIn:   env.tokA,
		TokenOut:  env.tokB,
		AmountIn:  big.NewInt(10_000),
		To:        env.trader,
	})
	if err != nil {
		t.Fatalf("Swap failed: %v", err)
	}

	wantOut, err := GetAmountOut(big.NewInt(10_000), big.NewInt(1_000_000), big.NewInt(1_000_000), 30)
	if err != nil {
		t.Fatalf("GetAmountOut failed: %v", err)
	}
	if res.AmountOut.Cmp(wantOut) != 0 {
		t.Errorf("amountOut = %s, want %s", res.AmountOut, wantOut)
	}
	if res.FeePaid.Int64() != 30 { // 10000 * 30bp
		t.Errorf("feePaid = %s, want 30", res.FeePaid)
	}

	// Protocol keeps 20% of the fee outside the reserves.
	rA, rB, err := env.engine.GetReserves(ctx, env.tokA, env.tokB)
	if err != nil {
		t.Fatalf("GetReserves failed: %v", err)
	}
	wantReserveA := int64(1_000_000 + 10_000 - 6)
	if rA.Int64() != wantReserveA {
		t.Errorf("reserveA = %s, want %d", rA, wantReserveA)
	}
	wantReserveB := 1_000_000 - wantOut.Int64()
	if rB.Int64() != wantReserveB {
		t.Errorf("reserveB = %s, want %d", rB, wantReserveB)
	}

	traderB, _ := env.tokens.BalanceOf(ctx, env.tokB, env.trader)
	wantBalance := 1_000_000_000 + wantOut.Int64()
	if traderB.Int64() != wantBalance {
		t.Errorf("trader balance = %s, want %d", traderB, wantBalance)
	}
}

func TestSwap_Errors(t *testing.T) {
	env := newEngineEnv(t)
	ctx := context.Background()

	_, err := env.engine.Swap(ctx, env.trader, SwapRequest{
		TokenIn:  env.tokA,
		TokenOut: env.tokB,
		AmountIn: big.NewInt(100),
		To:       env.trader,
	})
	if !errors.Is(err, ErrPoolNotFound) {
		t.Errorf("missing pool: got %v", err)
	}

	env.addLiquidity(t, env.user, 1_000_000, 1_000_000)

	_, err = env.engine.Swap(ctx, env.trader, SwapRequest{
		TokenIn:      env.tokA,
		TokenOut:     env.tokB,
		AmountIn:     big.NewInt(10_000),
		MinAmountOut: big.NewInt(10_000), // impossible after fee
		To:           env.trader,
	})
	if !errors.Is(err, ErrSlippageTooHigh) {
		t.Errorf("min out: got %v", err)
	}

	_, err = env.engine.Swap(ctx, env.trader, SwapRequest{
		TokenIn:  env.tokA,
		TokenOut: env.tokB,
		AmountIn: big.NewInt(0),
		To:       env.trader,
	})
	if !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("zero in: got %v", err)
	}
}

func TestQuote(t *testing.T) {
	env := newEngineEnv(t)
	ctx := context.Background()

	_, err := env.engine.Quote(ctx, env.tokA, env.tokB, big.NewInt(10_000))
	if !errors.Is(err, ErrPoolNotFound) {
		t.Errorf("missing pool: got %v", err)
	}

	env.addLiquidity(t, env.user, 1_000_000, 1_000_000)

	quoted, err := env.engine.Quote(ctx, env.tokA, env.tokB, big.NewInt(10_000))
	if err != nil {
		t.Fatalf("Quote failed: %v", err)
	}

	// The quote must match what an immediate swap delivers.
	res, err := env.engine.Swap(ctx, env.trader, SwapRequest{
		TokenIn:  env.tokA,
		TokenOut: env.tokB,
		AmountIn: big.NewInt(10_000),
		To:       env.trader,
	})
	if err != nil {
		t.Fatalf("Swap failed: %v", err)
	}
	if res.AmountOut.Cmp(quoted) != 0 {
		t.Errorf("swap out = %s, quoted %s", res.AmountOut, quoted)
	}

	_, err = env.engine.Quote(ctx, env.tokA, env.tokB, big.NewInt(0))
	if !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("zero in: got %v", err)
	}
}

func TestRemoveLiquidity(t *testing.T) {
	env := newEngineEnv(t)
	ctx := context.Background()

	res := env.addLiquidity(t, env.user, 1_000_000, 4_000_000)

	half := new(big.Int).Rsh(res.Liquidity, 1)
	out, err := env.engine.RemoveLiquidity(ctx, env.user, RemoveLiquidityRequest{
		TokenA:   env.tokA,
		TokenB:   env.tokB,
		LPAmount: half,
		To:       env.user,
	})
	if err != nil {
		t.Fatalf("RemoveLiquidity failed: %v", err)
	}

	// half of 1999000 shares against a 2000000 supply.
	wantA := new(big.Int).Mul(half, big.NewInt(1_000_000))
	wantA.Div(wantA, big.NewInt(2_000_000))
	wantB := new(big.Int).Mul(half, big.NewInt(4_000_000))
	wantB.Div(wantB, big.NewInt(2_000_000))
	if out.AmountA.Cmp(wantA) != 0 || out.AmountB.Cmp(wantB) != 0 {
		t.Errorf("returned (%s, %s), want (%s, %s)", out.AmountA, out.AmountB, wantA, wantB)
	}

	balance, err := env.engine.LPBalance(ctx, env.tokA, env.tokB, env.user)
	if err != nil {
		t.Fatalf("LPBalance failed: %v", err)
	}
	want := new(big.Int).Sub(res.Liquidity, half)
	if balance.Cmp(want) != 0 {
		t.Errorf("remaining shares = %s, want %s", balance, want)
	}
}

func TestRemoveLiquidity_InsufficientShares(t *testing.T) {
	env := newEngineEnv(t)

	res := env.addLiquidity(t, env.user, 1_000_000, 4_000_000)

	over := new(big.Int).Add(res.Liquidity, big.NewInt(1))
	_, err := env.engine.RemoveLiquidity(context.Background(), env.user, RemoveLiquidityRequest{
		TokenA:   env.tokA,
		TokenB:   env.tokB,
		LPAmount: over,
		To:       env.user,
	})
	if !errors.Is(err, ErrInsufficientLPBalance) {
		t.Fatalf("expected ErrInsufficientLPBalance, got %v", err)
	}
}

func TestAddLiquidityWithLock(t *testing.T) {
	env := newEngineEnv(t)
	ctx := context.Background()

	req := AddLiquidityRequest{
		TokenA:         env.tokA,
		TokenB:         env.tokB,
		AmountADesired: big.NewInt(1_000_000),
		AmountBDesired: big.NewInt(1_000_000),
		To:             env.user,
	}

	if _, err := env.engine.AddLiquidityWithLock(ctx, env.user, req, 1, 3600); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("non-platform caller: got %v", err)
	}

	res, err := env.engine.AddLiquidityWithLock(ctx, env.platform, req, 1, 3600)
	if err != nil {
		t.Fatalf("AddLiquidityWithLock failed: %v", err)
	}

	// Shares are credited to the recipient but frozen until the lock expires.
	_, err = env.engine.RemoveLiquidity(ctx, env.user, RemoveLiquidityRequest{
		TokenA:   env.tokA,
		TokenB:   env.tokB,
		LPAmount: res.Liquidity,
		To:       env.user,
	})
	if !errors.Is(err, lockledger.ErrLiquidityLocked) {
		t.Fatalf("locked removal: got %v", err)
	}

	// Early unlock attempts fail too.
	if err := env.engine.UnlockLiquidity(ctx, env.user, env.tokA, env.tokB); !errors.Is(err, lockledger.ErrLockNotExpired) {
		t.Fatalf("early unlock: got %v", err)
	}

	env.now += 3601
	if err := env.engine.UnlockLiquidity(ctx, env.user, env.tokA, env.tokB); err != nil {
		t.Fatalf("unlock failed: %v", err)
	}
	if _, err := env.engine.RemoveLiquidity(ctx, env.user, RemoveLiquidityRequest{
		TokenA:   env.tokA,
		TokenB:   env.tokB,
		LPAmount: res.Liquidity,
		To:       env.user,
	}); err != nil {
		t.Fatalf("post-unlock removal failed: %v", err)
	}
}

func TestCollectProtocolFees(t *testing.T) {
	env := newEngineEnv(t)
	ctx := context.Background()

	env.addLiquidity(t, env.user, 1_000_000, 1_000_000)

	if _, err := env.engine.Swap(ctx, env.trader, SwapRequest{
		TokenIn:  env.tokA,
		TokenOut: env.tokB,
		AmountIn: big.NewInt(10_000),
		To:       env.trader,
	}); err != nil {
		t.Fatalf("Swap failed: %v", err)
	}

	if err := env.engine.CollectProtocolFees(ctx, env.trader, env.tokA, env.tokB); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("non-platform collect: got %v", err)
	}

	if err := env.engine.CollectProtocolFees(ctx, env.platform, env.tokA, env.tokB); err != nil {
		t.Fatalf("CollectProtocolFees failed: %v", err)
	}

	// 20% of the 30-unit fee.
	got, _ := env.tokens.BalanceOf(ctx, env.tokA, env.feeRecipient)
	if got.Int64() != 6 {
		t.Errorf("fee recipient received %s, want 6", got)
	}

	// Second collection is a no-op.
	if err := env.engine.CollectProtocolFees(ctx, env.platform, env.tokA, env.tokB); err != nil {
		t.Fatalf("repeat collect failed: %v", err)
	}
	got, _ = env.tokens.BalanceOf(ctx, env.tokA, env.feeRecipient)
	if got.Int64() != 6 {
		t.Errorf("fee recipient after repeat = %s, want 6", got)
	}
}

func TestEngineCounters(t *testing.T) {
	env := newEngineEnv(t)
	ctx := context.Background()

	pools0 := testutil.ToFloat64(observability.DefaultMetrics.PoolsCreated)
	adds0 := testutil.ToFloat64(observability.DefaultMetrics.LiquidityAdds)
	swaps0 := testutil.ToFloat64(observability.DefaultMetrics.SwapsExecuted)
	locks0 := testutil.ToFloat64(observability.DefaultMetrics.LocksCreated)

	env.addLiquidity(t, env.user, 1_000_000, 1_000_000)
	if _, err := env.engine.Swap(ctx, env.trader, SwapRequest{
		TokenIn:  env.tokA,
		TokenOut: env.tokB,
		AmountIn: big.NewInt(10_000),
		To:       env.trader,
	}); err != nil {
		t.Fatalf("Swap failed: %v", err)
	}
	if _, err := env.engine.AddLiquidityWithLock(ctx, env.platform, AddLiquidityRequest{
		TokenA:         env.tokA,
		TokenB:         env.tokB,
		AmountADesired: big.NewInt(100_000),
		AmountBDesired: big.NewInt(100_000),
		To:             env.platform,
	}, 1, 3600); err != nil {
		t.Fatalf("AddLiquidityWithLock failed: %v", err)
	}

	if got := testutil.ToFloat64(observability.DefaultMetrics.PoolsCreated) - pools0; got != 1 {
		t.Errorf("pools created delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(observability.DefaultMetrics.LiquidityAdds) - adds0; got != 2 {
		t.Errorf("liquidity adds delta = %v, want 2", got)
	}
	if got := testutil.ToFloat64(observability.DefaultMetrics.SwapsExecuted) - swaps0; got != 1 {
		t.Errorf("swaps delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(observability.DefaultMetrics.LocksCreated) - locks0; got != 1 {
		t.Errorf("locks created delta = %v, want 1", got)
	}
}

// failingObservationStore rejects every insert while delegating reads.
type failingObservationStore struct {
	storage.PriceObservationStore
}

func (s *failingObservationStore) Insert(ctx context.Context, o *domain.PriceObservation) error {
	return errors.New("history store unavailable")
}

func TestSwap_HistoryWriteFailureTolerated(t *testing.T) {
	env := newEngineEnv(t)
	ctx := context.Background()

	// Rebuild the engine with an observation store that always fails. State
	// changes must still commit; only the TWAP history is lost.
	clock := func() int64 { return env.now }
	engine := NewEngine(Options{
		Pools:              memory.NewPoolStore(),
		Balances:           memory.NewLPBalanceStore(),
		Swaps:              memory.NewSwapRecordStore(),
		Observations:       &failingObservationStore{memory.NewPriceObservationStore()},
		Locks:              env.locks,
		Tokens:             env.tokens,
		Vault:              env.vault,
		Platform:           env.platform,
		FeeRecipient:       env.feeRecipient,
		SwapFeeBp:          30,
		ProtocolFeeShareBp: 2000,
		Now:                clock,
	})

	if _, err := engine.AddLiquidity(ctx, env.user, AddLiquidityRequest{
		TokenA:         env.tokA,
		TokenB:         env.tokB,
		AmountADesired: big.NewInt(1_000_000),
		AmountBDesired: big.NewInt(1_000_000),
		To:             env.user,
	}); err != nil {
		t.Fatalf("AddLiquidity failed: %v", err)
	}
	res, err := engine.Swap(ctx, env.trader, SwapRequest{
		TokenIn:  env.tokA,
		TokenOut: env.tokB,
		AmountIn: big.NewInt(10_000),
		To:       env.trader,
	})
	if err != nil {
		t.Fatalf("Swap failed: %v", err)
	}
	if res.AmountOut.Sign() <= 0 {
		t.Error("swap delivered nothing")
	}

	rA, _, err := engine.GetReserves(ctx, env.tokA, env.tokB)
	if err != nil {
		t.Fatalf("GetReserves failed: %v", err)
	}
	if rA.Int64() != 1_000_000+10_000-6 {
		t.Errorf("reserveA = %s after swap", rA)
	}
}
