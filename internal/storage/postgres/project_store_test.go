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

// testProject builds a project fixture with distinct values in every column.
func testProject(owner string) *domain.Project {
	return &domain.Project{
		Owner:               owner,
		ProjectToken:        domain.DeriveCustodyAddress("store-test-project-token"),
		ContributionToken:   domain.DeriveCustodyAddress("store-test-usdc"),
		FundingGoal:         big.NewInt(1_000_000_000),
		SoftCap:             big.NewInt(500_000_000),
		MinContribution:     big.NewInt(10_000_000),
		MaxContribution:     big.NewInt(500_000_000),
		TokenPrice:          big.NewInt(1_000_000_000_000_000_000),
		StartTime:           1_700_000_100,
		EndTime:             1_700_001_000,
		TokensForSale:       new(big.Int).Mul(big.NewInt(1000), big.NewInt(1e18)),
		LiquidityPercentage: 6000,
		LockDuration:        86400,
		Vesting: domain.VestingParams{
			Enabled:          true,
			Cliff:            100,
			Duration:         1000,
			Interval:         60,
			InitialReleaseBp: 1000,
		},
		Phase:                    domain.PhaseUpcoming,
		TotalRaised:              big.NewInt(0),
		SaleTokensDeposited:      big.NewInt(0),
		LiquidityTokensDeposited: big.NewInt(0),
		CreatedAt:                1_700_000_000,
	}
}

func TestProjectStore_InsertAndGetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewProjectStore(pool)

	p := testProject(domain.DeriveCustodyAddress("store-test-owner-1"))

	err := store.Insert(ctx, p)
	require.NoError(t, err)
	assert.NotZero(t, p.ID)

	got, err := store.GetByID(ctx, p.ID)
	require.NoError(t, err)

	assert.Equal(t, p.Owner, got.Owner)
	assert.Equal(t, p.ProjectToken, got.ProjectToken)
	assert.Equal(t, p.ContributionToken, got.ContributionToken)
	assert.Zero(t, p.FundingGoal.Cmp(got.FundingGoal))
	assert.Zero(t, p.SoftCap.Cmp(got.SoftCap))
	assert.Zero(t, p.MinContribution.Cmp(got.MinContribution))
	assert.Zero(t, p.MaxContribution.Cmp(got.MaxContribution))
	assert.Zero(t, p.TokenPrice.Cmp(got.TokenPrice))
	assert.Equal(t, p.StartTime, got.StartTime)
	assert.Equal(t, p.EndTime, got.EndTime)
	assert.Zero(t, p.TokensForSale.Cmp(got.TokensForSale))
	assert.Equal(t, p.LiquidityPercentage, got.LiquidityPercentage)
	assert.Equal(t, p.LockDuration, got.LockDuration)
	assert.Equal(t, p.Vesting, got.Vesting)
	assert.Equal(t, domain.PhaseUpcoming, got.Phase)
	assert.Zero(t, got.TotalRaised.Sign())
	assert.False(t, got.LiquidityAdded)
	assert.Equal(t, p.CreatedAt, got.CreatedAt)
}

func TestProjectStore_GetByIDNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewProjectStore(pool)

	_, err := store.GetByID(ctx, 99999)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestProjectStore_Update(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewProjectStore(pool)

	p := testProject(domain.DeriveCustodyAddress("store-test-owner-2"))
	require.NoError(t, store.Insert(ctx, p))

	p.Phase = domain.PhaseActive
	p.TotalRaised = big.NewInt(123_456_789)
	p.SaleTokensDeposited = new(big.Int).Mul(big.NewInt(1000), big.NewInt(1e18))
	p.DepositFeeBp = 500
	p.DepositLiquidityBp = 6000
	p.LiquiditySnapshotAt = 1_700_000_500

	require.NoError(t, store.Update(ctx, p))

	got, err := store.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseActive, got.Phase)
	assert.Zero(t, got.TotalRaised.Cmp(big.NewInt(123_456_789)))
	assert.Zero(t, got.SaleTokensDeposited.Cmp(p.SaleTokensDeposited))
	assert.Equal(t, uint32(500), got.DepositFeeBp)
	assert.Equal(t, uint32(6000), got.DepositLiquidityBp)
	assert.Equal(t, int64(1_700_000_500), got.LiquiditySnapshotAt)
}

func TestProjectStore_UpdateNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewProjectStore(pool)

	p := testProject(domain.DeriveCustodyAddress("store-test-owner-3"))
	p.ID = 99999

	err := store.Update(ctx, p)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestProjectStore_GetByOwnerAndPhase(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewProjectStore(pool)

	ownerA := domain.DeriveCustodyAddress("store-test-owner-a")
	ownerB := domain.DeriveCustodyAddress("store-test-owner-b")

	first := testProject(ownerA)
	second := testProject(ownerA)
	third := testProject(ownerB)
	third.Phase = domain.PhaseActive

	require.NoError(t, store.Insert(ctx, first))
	require.NoError(t, store.Insert(ctx, second))
	require.NoError(t, store.Insert(ctx, third))

	byOwner, err := store.GetByOwner(ctx, ownerA)
	require.NoError(t, err)
	require.Len(t, byOwner, 2)
	assert.Equal(t, first.ID, byOwner[0].ID)
	assert.Equal(t, second.ID, byOwner[1].ID)

	active, err := store.GetByPhase(ctx, domain.PhaseActive)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, third.ID, active[0].ID)

	none, err := store.GetByPhase(ctx, domain.PhaseCompleted)
	require.NoError(t, err)
	assert.Empty(t, none)
}
