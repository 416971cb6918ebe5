package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/storage"
)

// ContributionStore implements storage.ContributionStore using PostgreSQL.
type ContributionStore struct {
	pool *Pool
}

// NewContributionStore creates a new ContributionStore.
func NewContributionStore(pool *Pool) *ContributionStore {
	return &ContributionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ContributionStore = (*ContributionStore)(nil)

// Get retrieves one contributor's entry. Returns ErrNotFound if not exists.
func (s *ContributionStore) Get(ctx context.Context, projectID uint64, contributor string) (*domain.Contribution, error) {
	query := `
		SELECT project_id, contributor, amount, refunded, first_at, updated_at
		FROM contributions
		WHERE project_id = $1 AND contributor = $2
	`

	row := s.pool.QueryRow(ctx, query, projectID, contributor)
	c, err := scanContribution(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get contribution: %w", err)
	}
	return c, nil
}

// Upsert inserts or replaces a contributor's entry.
func (s *ContributionStore) Upsert(ctx context.Context, c *domain.Contribution) error {
	if c == nil || c.ProjectID == 0 || c.Contributor == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO contributions (project_id, contributor, amount, refunded, first_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (project_id, contributor) DO UPDATE SET
			amount = EXCLUDED.amount,
			refunded = EXCLUDED.refunded,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.pool.Exec(ctx, query,
		c.ProjectID,
		c.Contributor,
		bigToText(c.Amount),
		c.Refunded,
		c.FirstAt,
		c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert contribution: %w", err)
	}
	return nil
}

// GetByProject retrieves all entries for a project, ordered by first
// contribution time ASC.
func (s *ContributionStore) GetByProject(ctx context.Context, projectID uint64) ([]*domain.Contribution, error) {
	query := `
		SELECT project_id, contributor, amount, refunded, first_at, updated_at
		FROM contributions
		WHERE project_id = $1
		ORDER BY first_at ASC, contributor ASC
	`

	rows, err := s.pool.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("get contributions by project: %w", err)
	}
	defer rows.Close()

	var out []*domain.Contribution
	for rows.Next() {
		c, err := scanContribution(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contribution row: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contribution rows: %w", err)
	}
	return out, nil
}

// scanContribution scans a single row into a Contribution.
func scanContribution(row pgx.Row) (*domain.Contribution, error) {
	var c domain.Contribution
	var amount string

	err := row.Scan(
		&c.ProjectID,
		&c.Contributor,
		&amount,
		&c.Refunded,
		&c.FirstAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if c.Amount, err = bigFromText(amount); err != nil {
		return nil, err
	}
	return &c, nil
}
