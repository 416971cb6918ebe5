package storage

import (
	"context"
	"math/big"

	"token-launchpad/internal/domain"
)

// PairKey builds the composite key for a canonical token pair record.
func PairKey(tokenLow, tokenHigh string) string {
	return tokenLow + "|" + tokenHigh
}

// ProjectStore provides access to the project registry.
type ProjectStore interface {
	// Insert adds a new project and assigns its ID.
	Insert(ctx context.Context, p *domain.Project) error

	// GetByID retrieves a project. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id uint64) (*domain.Project, error)

	// Update replaces a project record. Returns ErrNotFound if not exists.
	Update(ctx context.Context, p *domain.Project) error

	// GetByOwner retrieves all projects created by an owner, ordered by ID ASC.
	GetByOwner(ctx context.Context, owner string) ([]*domain.Project, error)

	// GetByPhase retrieves all projects in a phase, ordered by ID ASC.
	GetByPhase(ctx context.Context, phase domain.Phase) ([]*domain.Project, error)
}

// ContributionStore provides access to the per-contributor ledger.
type ContributionStore interface {
	// Get retrieves one contributor's entry. Returns ErrNotFound if not exists.
	Get(ctx context.Context, projectID uint64, contributor string) (*domain.Contribution, error)

	// Upsert inserts or replaces a contributor's entry.
	Upsert(ctx context.Context, c *domain.Contribution) error

	// GetByProject retrieves all entries for a project, ordered by first
	// contribution time ASC.
	GetByProject(ctx context.Context, projectID uint64) ([]*domain.Contribution, error)
}

// VestingStore provides access to vesting records.
type VestingStore interface {
	// Get retrieves a vesting record. Returns ErrNotFound if not exists.
	Get(ctx context.Context, projectID uint64, contributor string) (*domain.VestingInfo, error)

	// Upsert inserts or replaces a vesting record.
	Upsert(ctx context.Context, v *domain.VestingInfo) error
}

// PoolStore provides access to pool reserve state.
type PoolStore interface {
	// Insert adds a new pool. Returns ErrDuplicateKey if the pair exists.
	Insert(ctx context.Context, p *domain.LiquidityPool) error

	// Get retrieves a pool by pair key. Returns ErrNotFound if not exists.
	Get(ctx context.Context, pairKey string) (*domain.LiquidityPool, error)

	// Update replaces a pool record. Returns ErrNotFound if not exists.
	Update(ctx context.Context, p *domain.LiquidityPool) error

	// GetAll retrieves every pool, ordered by pair key ASC.
	GetAll(ctx context.Context) ([]*domain.LiquidityPool, error)
}

// LPBalanceStore tracks LP share balances per (pair, owner).
// Absent entries read as zero; balances are not append-only.
type LPBalanceStore interface {
	// Balance returns the owner's LP share balance, zero when absent.
	Balance(ctx context.Context, pairKey, owner string) (*big.Int, error)

	// SetBalance inserts or replaces the owner's LP share balance.
	SetBalance(ctx context.Context, pairKey, owner string, amount *big.Int) error
}

// LockStore provides access to liquidity lock records.
type LockStore interface {
	// Get retrieves a lock. Returns ErrNotFound if not exists.
	Get(ctx context.Context, pairKey, owner string) (*domain.LiquidityLock, error)

	// Upsert inserts or replaces a lock record.
	Upsert(ctx context.Context, l *domain.LiquidityLock) error
}

// SwapRecordStore provides access to the swap history timeseries.
type SwapRecordStore interface {
	// Insert appends a swap record.
	Insert(ctx context.Context, s *domain.SwapRecord) error

	// GetByPair retrieves all swaps for a pair, ordered by timestamp ASC.
	GetByPair(ctx context.Context, pairKey string) ([]*domain.SwapRecord, error)

	// GetByTimeRange retrieves swaps for a pair within [start, end] (inclusive).
	GetByTimeRange(ctx context.Context, pairKey string, start, end int64) ([]*domain.SwapRecord, error)
}

// PriceObservationStore provides access to the TWAP observation timeseries.
type PriceObservationStore interface {
	// Insert appends an observation.
	Insert(ctx context.Context, o *domain.PriceObservation) error

	// GetByPair retrieves all observations for a pair, ordered by timestamp ASC.
	GetByPair(ctx context.Context, pairKey string) ([]*domain.PriceObservation, error)

	// LatestBefore retrieves the most recent observation at or before ts.
	// Returns ErrNotFound when none exists.
	LatestBefore(ctx context.Context, pairKey string, ts int64) (*domain.PriceObservation, error)
}
