package postgres

import (
	"context"
	"fmt"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/storage"
)

// LockStore implements storage.LockStore using PostgreSQL.
type LockStore struct {
	pool *Pool
}

// NewLockStore creates a new LockStore.
func NewLockStore(pool *Pool) *LockStore {
	return &LockStore{pool: pool}
}

// Compile-time interface check.
var _ storage.LockStore = (*LockStore)(nil)

// Get retrieves a lock. Returns ErrNotFound if not exists.
func (s *LockStore) Get(ctx context.Context, pairKey, owner string) (*domain.LiquidityLock, error) {
	query := `
		SELECT pair_key, owner, project_id, locked_amount, unlock_time, active, created_at
		FROM liquidity_locks
		WHERE pair_key = $1 AND owner = $2
	`

	var l domain.LiquidityLock
	var amount string
	err := s.pool.QueryRow(ctx, query, pairKey, owner).Scan(
		&l.PairKey,
		&l.Owner,
		&l.ProjectID,
		&amount,
		&l.UnlockTime,
		&l.Active,
		&l.CreatedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get lock: %w", err)
	}
	if l.LockedAmount, err = bigFromText(amount); err != nil {
		return nil, err
	}
	return &l, nil
}

// Upsert inserts or replaces a lock record.
func (s *LockStore) Upsert(ctx context.Context, l *domain.LiquidityLock) error {
	if l == nil || l.PairKey == "" || l.Owner == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO liquidity_locks (pair_key, owner, project_id, locked_amount, unlock_time, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (pair_key, owner) DO UPDATE SET
			project_id = EXCLUDED.project_id,
			locked_amount = EXCLUDED.locked_amount,
			unlock_time = EXCLUDED.unlock_time,
			active = EXCLUDED.active
	`

	_, err := s.pool.Exec(ctx, query,
		l.PairKey,
		l.Owner,
		l.ProjectID,
		bigToText(l.LockedAmount),
		l.UnlockTime,
		l.Active,
		l.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert lock: %w", err)
	}
	return nil
}
