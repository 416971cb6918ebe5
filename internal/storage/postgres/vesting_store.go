package postgres

import (
	"context"
	"fmt"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/storage"
)

// VestingStore implements storage.VestingStore using PostgreSQL.
type VestingStore struct {
	pool *Pool
}

// NewVestingStore creates a new VestingStore.
func NewVestingStore(pool *Pool) *VestingStore {
	return &VestingStore{pool: pool}
}

// Compile-time interface check.
var _ storage.VestingStore = (*VestingStore)(nil)

// Get retrieves a vesting record. Returns ErrNotFound if not exists.
func (s *VestingStore) Get(ctx context.Context, projectID uint64, contributor string) (*domain.VestingInfo, error) {
	query := `
		SELECT project_id, contributor, total_amount, released_amount, last_claim_time
		FROM vesting_records
		WHERE project_id = $1 AND contributor = $2
	`

	var v domain.VestingInfo
	var total, released string
	err := s.pool.QueryRow(ctx, query, projectID, contributor).Scan(
		&v.ProjectID,
		&v.Contributor,
		&total,
		&released,
		&v.LastClaimTime,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get vesting record: %w", err)
	}
	if v.TotalAmount, err = bigFromText(total); err != nil {
		return nil, err
	}
	if v.ReleasedAmount, err = bigFromText(released); err != nil {
		return nil, err
	}
	return &v, nil
}

// Upsert inserts or replaces a vesting record.
func (s *VestingStore) Upsert(ctx context.Context, v *domain.VestingInfo) error {
	if v == nil || v.ProjectID == 0 || v.Contributor == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO vesting_records (project_id, contributor, total_amount, released_amount, last_claim_time)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (project_id, contributor) DO UPDATE SET
			total_amount = EXCLUDED.total_amount,
			released_amount = EXCLUDED.released_amount,
			last_claim_time = EXCLUDED.last_claim_time
	`

	_, err := s.pool.Exec(ctx, query,
		v.ProjectID,
		v.Contributor,
		bigToText(v.TotalAmount),
		bigToText(v.ReleasedAmount),
		v.LastClaimTime,
	)
	if err != nil {
		return fmt.Errorf("upsert vesting record: %w", err)
	}
	return nil
}
