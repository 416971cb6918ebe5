package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/storage"
)

// PoolStore implements storage.PoolStore using PostgreSQL.
type PoolStore struct {
	pool *Pool
}

// NewPoolStore creates a new PoolStore.
func NewPoolStore(pool *Pool) *PoolStore {
	return &PoolStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PoolStore = (*PoolStore)(nil)

const poolColumns = `
	pair_key, token_low, token_high, reserve_low, reserve_high,
	total_lp_supply, price_cum_low, price_cum_high, last_update_time,
	fees_low, fees_high, created_at
`

// Insert adds a new pool. Returns ErrDuplicateKey if the pair exists.
func (s *PoolStore) Insert(ctx context.Context, p *domain.LiquidityPool) error {
	if p == nil || p.PairKey == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO liquidity_pools (
			pair_key, token_low, token_high, reserve_low, reserve_high,
			total_lp_supply, price_cum_low, price_cum_high, last_update_time,
			fees_low, fees_high, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := s.pool.Exec(ctx, query,
		p.PairKey,
		p.TokenLow,
		p.TokenHigh,
		bigToText(p.ReserveLow),
		bigToText(p.ReserveHigh),
		bigToText(p.TotalLPSupply),
		bigToText(p.PriceCumLow),
		bigToText(p.PriceCumHigh),
		p.LastUpdateTime,
		bigToText(p.FeesLow),
		bigToText(p.FeesHigh),
		p.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert pool: %w", err)
	}
	return nil
}

// Get retrieves a pool by pair key. Returns ErrNotFound if not exists.
func (s *PoolStore) Get(ctx context.Context, pairKey string) (*domain.LiquidityPool, error) {
	query := `SELECT ` + poolColumns + ` FROM liquidity_pools WHERE pair_key = $1`

	row := s.pool.QueryRow(ctx, query, pairKey)
	p, err := scanPool(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get pool: %w", err)
	}
	return p, nil
}

// Update replaces a pool record. Returns ErrNotFound if not exists.
func (s *PoolStore) Update(ctx context.Context, p *domain.LiquidityPool) error {
	if p == nil || p.PairKey == "" {
		return storage.ErrInvalidInput
	}

	query := `
		UPDATE liquidity_pools SET
			reserve_low = $2,
			reserve_high = $3,
			total_lp_supply = $4,
			price_cum_low = $5,
			price_cum_high = $6,
			last_update_time = $7,
			fees_low = $8,
			fees_high = $9
		WHERE pair_key = $1
	`

	tag, err := s.pool.Exec(ctx, query,
		p.PairKey,
		bigToText(p.ReserveLow),
		bigToText(p.ReserveHigh),
		bigToText(p.TotalLPSupply),
		bigToText(p.PriceCumLow),
		bigToText(p.PriceCumHigh),
		p.LastUpdateTime,
		bigToText(p.FeesLow),
		bigToText(p.FeesHigh),
	)
	if err != nil {
		return fmt.Errorf("update pool: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetAll retrieves every pool, ordered by pair key ASC.
func (s *PoolStore) GetAll(ctx context.Context) ([]*domain.LiquidityPool, error) {
	query := `SELECT ` + poolColumns + ` FROM liquidity_pools ORDER BY pair_key ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all pools: %w", err)
	}
	defer rows.Close()

	var pools []*domain.LiquidityPool
	for rows.Next() {
		p, err := scanPool(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pool row: %w", err)
		}
		pools = append(pools, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pool rows: %w", err)
	}
	return pools, nil
}

// scanPool scans a single row into a LiquidityPool.
func scanPool(row pgx.Row) (*domain.LiquidityPool, error) {
	var p domain.LiquidityPool
	var reserveLow, reserveHigh, supply, cumLow, cumHigh, feesLow, feesHigh string

	err := row.Scan(
		&p.PairKey,
		&p.TokenLow,
		&p.TokenHigh,
		&reserveLow,
		&reserveHigh,
		&supply,
		&cumLow,
		&cumHigh,
		&p.LastUpdateTime,
		&feesLow,
		&feesHigh,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if p.ReserveLow, err = bigFromText(reserveLow); err != nil {
		return nil, err
	}
	if p.ReserveHigh, err = bigFromText(reserveHigh); err != nil {
		return nil, err
	}
	if p.TotalLPSupply, err = bigFromText(supply); err != nil {
		return nil, err
	}
	if p.PriceCumLow, err = bigFromText(cumLow); err != nil {
		return nil, err
	}
	if p.PriceCumHigh, err = bigFromText(cumHigh); err != nil {
		return nil, err
	}
	if p.FeesLow, err = bigFromText(feesLow); err != nil {
		return nil, err
	}
	if p.FeesHigh, err = bigFromText(feesHigh); err != nil {
		return nil, err
	}
	return &p, nil
}
