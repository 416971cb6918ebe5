package postgres

import (
	"context"
	"fmt"
	"math/big"

	"token-launchpad/internal/storage"
)

// LPBalanceStore implements storage.LPBalanceStore using PostgreSQL.
type LPBalanceStore struct {
	pool *Pool
}

// NewLPBalanceStore creates a new LPBalanceStore.
func NewLPBalanceStore(pool *Pool) *LPBalanceStore {
	return &LPBalanceStore{pool: pool}
}

// Compile-time interface check.
var _ storage.LPBalanceStore = (*LPBalanceStore)(nil)

// Balance returns the owner's LP share balance, zero when absent.
func (s *LPBalanceStore) Balance(ctx context.Context, pairKey, owner string) (*big.Int, error) {
	query := `SELECT balance FROM lp_balances WHERE pair_key = $1 AND owner = $2`

	var balance string
	err := s.pool.QueryRow(ctx, query, pairKey, owner).Scan(&balance)
	if err != nil {
		if isNotFoundError(err) {
			return new(big.Int), nil
		}
		return nil, fmt.Errorf("get lp balance: %w", err)
	}
	return bigFromText(balance)
}

// SetBalance inserts or replaces the owner's LP share balance.
func (s *LPBalanceStore) SetBalance(ctx context.Context, pairKey, owner string, amount *big.Int) error {
	if pairKey == "" || owner == "" || amount == nil || amount.Sign() < 0 {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO lp_balances (pair_key, owner, balance)
		VALUES ($1, $2, $3)
		ON CONFLICT (pair_key, owner) DO UPDATE SET balance = EXCLUDED.balance
	`

	_, err := s.pool.Exec(ctx, query, pairKey, owner, bigToText(amount))
	if err != nil {
		return fmt.Errorf("set lp balance: %w", err)
	}
	return nil
}
