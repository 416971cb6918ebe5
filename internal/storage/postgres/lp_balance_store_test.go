package postgres

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/storage"
)

func TestLPBalanceStore_AbsentReadsZero(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewLPBalanceStore(pool)

	bal, err := store.Balance(ctx, "low|high", domain.DeriveCustodyAddress("lp-test-nobody"))
	require.NoError(t, err)
	assert.Zero(t, bal.Sign())
}

func TestLPBalanceStore_SetAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewLPBalanceStore(pool)

	low, high := testPair("lp-test-token-a", "lp-test-token-b")
	pairKey := storage.PairKey(low, high)
	owner := domain.DeriveCustodyAddress("lp-test-alice")

	require.NoError(t, store.SetBalance(ctx, pairKey, owner, big.NewInt(1_999_000)))

	bal, err := store.Balance(ctx, pairKey, owner)
	require.NoError(t, err)
	assert.Zero(t, bal.Cmp(big.NewInt(1_999_000)))

	// Overwrite, not accumulate.
	require.NoError(t, store.SetBalance(ctx, pairKey, owner, big.NewInt(999_500)))

	bal, err = store.Balance(ctx, pairKey, owner)
	require.NoError(t, err)
	assert.Zero(t, bal.Cmp(big.NewInt(999_500)))

	// Other owners remain at zero.
	other, err := store.Balance(ctx, pairKey, domain.DeriveCustodyAddress("lp-test-bob"))
	require.NoError(t, err)
	assert.Zero(t, other.Sign())
}
