package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/storage"
)

// ProjectStore implements storage.ProjectStore using PostgreSQL.
type ProjectStore struct {
	pool *Pool
}

// NewProjectStore creates a new ProjectStore.
func NewProjectStore(pool *Pool) *ProjectStore {
	return &ProjectStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ProjectStore = (*ProjectStore)(nil)

const projectColumns = `
	id, owner, project_token, contribution_token,
	funding_goal, soft_cap, min_contribution, max_contribution, token_price,
	start_time, end_time, tokens_for_sale, liquidity_percentage, lock_duration,
	vesting_enabled, vesting_cliff, vesting_duration, vesting_interval, vesting_initial_release_bp,
	phase, total_raised, liquidity_added,
	sale_tokens_deposited, liquidity_tokens_deposited,
	deposit_fee_bp, deposit_liquidity_bp, liquidity_snapshot_at, created_at
`

// Insert adds a new project and assigns its ID.
func (s *ProjectStore) Insert(ctx context.Context, p *domain.Project) error {
	if p == nil || p.Owner == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO projects (
			owner, project_token, contribution_token,
			funding_goal, soft_cap, min_contribution, max_contribution, token_price,
			start_time, end_time, tokens_for_sale, liquidity_percentage, lock_duration,
			vesting_enabled, vesting_cliff, vesting_duration, vesting_interval, vesting_initial_release_bp,
			phase, total_raised, liquidity_added,
			sale_tokens_deposited, liquidity_tokens_deposited,
			deposit_fee_bp, deposit_liquidity_bp, liquidity_snapshot_at, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27
		)
		RETURNING id
	`

	err := s.pool.QueryRow(ctx, query,
		p.Owner,
		p.ProjectToken,
		p.ContributionToken,
		bigToText(p.FundingGoal),
		bigToText(p.SoftCap),
		bigToText(p.MinContribution),
		bigToText(p.MaxContribution),
		bigToText(p.TokenPrice),
		p.StartTime,
		p.EndTime,
		bigToText(p.TokensForSale),
		p.LiquidityPercentage,
		p.LockDuration,
		p.Vesting.Enabled,
		p.Vesting.Cliff,
		p.Vesting.Duration,
		p.Vesting.Interval,
		p.Vesting.InitialReleaseBp,
		int(p.Phase),
		bigToText(p.TotalRaised),
		p.LiquidityAdded,
		bigToText(p.SaleTokensDeposited),
		bigToText(p.LiquidityTokensDeposited),
		p.DepositFeeBp,
		p.DepositLiquidityBp,
		p.LiquiditySnapshotAt,
		p.CreatedAt,
	).Scan(&p.ID)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

// GetByID retrieves a project. Returns ErrNotFound if not exists.
func (s *ProjectStore) GetByID(ctx context.Context, id uint64) (*domain.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`

	row := s.pool.QueryRow(ctx, query, id)
	p, err := scanProject(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get project by id: %w", err)
	}
	return p, nil
}

// Update replaces a project record. Returns ErrNotFound if not exists.
func (s *ProjectStore) Update(ctx context.Context, p *domain.Project) error {
	if p == nil || p.ID == 0 {
		return storage.ErrInvalidInput
	}

	query := `
		UPDATE projects SET
			phase = $2,
			total_raised = $3,
			liquidity_added = $4,
			sale_tokens_deposited = $5,
			liquidity_tokens_deposited = $6,
			deposit_fee_bp = $7,
			deposit_liquidity_bp = $8,
			liquidity_snapshot_at = $9
		WHERE id = $1
	`

	tag, err := s.pool.Exec(ctx, query,
		p.ID,
		int(p.Phase),
		bigToText(p.TotalRaised),
		p.LiquidityAdded,
		bigToText(p.SaleTokensDeposited),
		bigToText(p.LiquidityTokensDeposited),
		p.DepositFeeBp,
		p.DepositLiquidityBp,
		p.LiquiditySnapshotAt,
	)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetByOwner retrieves all projects created by an owner, ordered by ID ASC.
func (s *ProjectStore) GetByOwner(ctx context.Context, owner string) ([]*domain.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE owner = $1 ORDER BY id ASC`

	rows, err := s.pool.Query(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("get projects by owner: %w", err)
	}
	defer rows.Close()

	return scanProjects(rows)
}

// GetByPhase retrieves all projects in a phase, ordered by ID ASC.
func (s *ProjectStore) GetByPhase(ctx context.Context, phase domain.Phase) ([]*domain.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE phase = $1 ORDER BY id ASC`

	rows, err := s.pool.Query(ctx, query, int(phase))
	if err != nil {
		return nil, fmt.Errorf("get projects by phase: %w", err)
	}
	defer rows.Close()

	return scanProjects(rows)
}

// scanProject scans a single row into a Project.
func scanProject(row pgx.Row) (*domain.Project, error) {
	var p domain.Project
	var phase int
	var fundingGoal, softCap, minC, maxC, price string
	var forSale, raised, saleDep, liqDep string

	err := row.Scan(
		&p.ID,
		&p.Owner,
		&p.ProjectToken,
		&p.ContributionToken,
		&fundingGoal,
		&softCap,
		&minC,
		&maxC,
		&price,
		&p.StartTime,
		&p.EndTime,
		&forSale,
		&p.LiquidityPercentage,
		&p.LockDuration,
		&p.Vesting.Enabled,
		&p.Vesting.Cliff,
		&p.Vesting.Duration,
		&p.Vesting.Interval,
		&p.Vesting.InitialReleaseBp,
		&phase,
		&raised,
		&p.LiquidityAdded,
		&saleDep,
		&liqDep,
		&p.DepositFeeBp,
		&p.DepositLiquidityBp,
		&p.LiquiditySnapshotAt,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Phase = domain.Phase(phase)
	if p.FundingGoal, err = bigFromText(fundingGoal); err != nil {
		return nil, err
	}
	if p.SoftCap, err = bigFromText(softCap); err != nil {
		return nil, err
	}
	if p.MinContribution, err = bigFromText(minC); err != nil {
		return nil, err
	}
	if p.MaxContribution, err = bigFromText(maxC); err != nil {
		return nil, err
	}
	if p.TokenPrice, err = bigFromText(price); err != nil {
		return nil, err
	}
	if p.TokensForSale, err = bigFromText(forSale); err != nil {
		return nil, err
	}
	if p.TotalRaised, err = bigFromText(raised); err != nil {
		return nil, err
	}
	if p.SaleTokensDeposited, err = bigFromText(saleDep); err != nil {
		return nil, err
	}
	if p.LiquidityTokensDeposited, err = bigFromText(liqDep); err != nil {
		return nil, err
	}
	return &p, nil
}

// scanProjects scans multiple rows into a slice of Project.
func scanProjects(rows pgx.Rows) ([]*domain.Project, error) {
	var projects []*domain.Project

	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project row: %w", err)
		}
		projects = append(projects, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate project rows: %w", err)
	}
	return projects, nil
}
