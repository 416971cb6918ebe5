package clickhouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/storage"
)

// PriceObservationStore implements storage.PriceObservationStore backed by ClickHouse.
type PriceObservationStore struct {
	conn *Conn
}

// NewPriceObservationStore creates a price observation store.
func NewPriceObservationStore(conn *Conn) *PriceObservationStore {
	return &PriceObservationStore{conn: conn}
}

var _ storage.PriceObservationStore = (*PriceObservationStore)(nil)

const priceObservationColumns = `pair_key, price_cum_low, price_cum_high, timestamp`

// Insert appends an observation.
func (s *PriceObservationStore) Insert(ctx context.Context, o *domain.PriceObservation) error {
	if o == nil {
		return fmt.Errorf("%w: observation is nil", storage.ErrInvalidInput)
	}

	query := `INSERT INTO price_observations (` + priceObservationColumns + `) VALUES (?, ?, ?, ?)`

	err := s.conn.Exec(ctx, query,
		o.PairKey,
		bigToString(o.PriceCumLow),
		bigToString(o.PriceCumHigh),
		o.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert price observation: %w", err)
	}

	return nil
}

// GetByPair retrieves all observations for a pair, ordered by timestamp ASC.
func (s *PriceObservationStore) GetByPair(ctx context.Context, pairKey string) ([]*domain.PriceObservation, error) {
	query := `SELECT ` + priceObservationColumns + `
		FROM price_observations
		WHERE pair_key = ?
		ORDER BY timestamp ASC`

	rows, err := s.conn.Query(ctx, query, pairKey)
	if err != nil {
		return nil, fmt.Errorf("query observations by pair: %w", err)
	}
	defer rows.Close()

	var obs []*domain.PriceObservation
	for rows.Next() {
		o, err := scanPriceObservation(rows)
		if err != nil {
			return nil, err
		}
		obs = append(obs, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate observations: %w", err)
	}

	return obs, nil
}

// LatestBefore retrieves the most recent observation at or before ts.
func (s *PriceObservationStore) LatestBefore(ctx context.Context, pairKey string, ts int64) (*domain.PriceObservation, error) {
	query := `SELECT ` + priceObservationColumns + `
		FROM price_observations
		WHERE pair_key = ? AND timestamp <= ?
		ORDER BY timestamp DESC
		LIMIT 1`

	row := s.conn.QueryRow(ctx, query, pairKey, ts)
	o, err := scanPriceObservation(row)
	if err != nil {
		// The driver reports an empty QueryRow result as sql.ErrNoRows.
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}

	return o, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPriceObservation(row rowScanner) (*domain.PriceObservation, error) {
	var (
		o         domain.PriceObservation
		low, high string
	)
	err := row.Scan(&o.PairKey, &low, &high, &o.Timestamp)
	if err != nil {
		return nil, err
	}
	if o.PriceCumLow, err = bigFromString(low); err != nil {
		return nil, fmt.Errorf("scan observation: %w", err)
	}
	if o.PriceCumHigh, err = bigFromString(high); err != nil {
		return nil, fmt.Errorf("scan observation: %w", err)
	}
	return &o, nil
}
