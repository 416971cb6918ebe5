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

func TestVestingStore_UpsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	projectID := createTestProject(t, ctx, pool, "vesting-test-owner")
	store := NewVestingStore(pool)

	contributor := domain.DeriveCustodyAddress("vesting-test-alice")
	total := new(big.Int).Mul(big.NewInt(250), big.NewInt(1e18))

	v := &domain.VestingInfo{
		ProjectID:      projectID,
		Contributor:    contributor,
		TotalAmount:    total,
		ReleasedAmount: big.NewInt(0),
		LastClaimTime:  0,
	}
	require.NoError(t, store.Upsert(ctx, v))

	got, err := store.Get(ctx, projectID, contributor)
	require.NoError(t, err)
	assert.Zero(t, got.TotalAmount.Cmp(total))
	assert.Zero(t, got.ReleasedAmount.Sign())

	// A claim advances the released amount in place.
	v.ReleasedAmount = new(big.Int).Mul(big.NewInt(100), big.NewInt(1e18))
	v.LastClaimTime = 1_700_000_900
	require.NoError(t, store.Upsert(ctx, v))

	got, err = store.Get(ctx, projectID, contributor)
	require.NoError(t, err)
	assert.Zero(t, got.ReleasedAmount.Cmp(v.ReleasedAmount))
	assert.Equal(t, int64(1_700_000_900), got.LastClaimTime)
}

func TestVestingStore_GetNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewVestingStore(pool)

	_, err := store.Get(ctx, 1, domain.DeriveCustodyAddress("vesting-test-nobody"))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
