package clickhouse

import (
	"context"
	"fmt"
	"math/big"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/storage"
)

// SwapRecordStore implements storage.SwapRecordStore backed by ClickHouse.
type SwapRecordStore struct {
	conn *Conn
}

// NewSwapRecordStore creates a swap record store.
func NewSwapRecordStore(conn *Conn) *SwapRecordStore {
	return &SwapRecordStore{conn: conn}
}

var _ storage.SwapRecordStore = (*SwapRecordStore)(nil)

const swapRecordColumns = `pair_key, trader, token_in, token_out, amount_in, amount_out, fee_paid, timestamp`

// Insert appends a swap record.
func (s *SwapRecordStore) Insert(ctx context.Context, rec *domain.SwapRecord) error {
	if rec == nil {
		return fmt.Errorf("%w: swap record is nil", storage.ErrInvalidInput)
	}

	query := `INSERT INTO swap_records (` + swapRecordColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	err := s.conn.Exec(ctx, query,
		rec.PairKey,
		rec.Trader,
		rec.TokenIn,
		rec.TokenOut,
		bigToString(rec.AmountIn),
		bigToString(rec.AmountOut),
		bigToString(rec.FeePaid),
		rec.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert swap record: %w", err)
	}

	return nil
}

// InsertBatch appends multiple swap records in one round trip.
func (s *SwapRecordStore) InsertBatch(ctx context.Context, recs []*domain.SwapRecord) error {
	if len(recs) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `INSERT INTO swap_records (`+swapRecordColumns+`)`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, rec := range recs {
		if rec == nil {
			return fmt.Errorf("%w: swap record is nil", storage.ErrInvalidInput)
		}
		err := batch.Append(
			rec.PairKey,
			rec.Trader,
			rec.TokenIn,
			rec.TokenOut,
			bigToString(rec.AmountIn),
			bigToString(rec.AmountOut),
			bigToString(rec.FeePaid),
			rec.Timestamp,
		)
		if err != nil {
			return fmt.Errorf("append swap record: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByPair retrieves all swaps for a pair, ordered by timestamp ASC.
func (s *SwapRecordStore) GetByPair(ctx context.Context, pairKey string) ([]*domain.SwapRecord, error) {
	query := `SELECT ` + swapRecordColumns + `
		FROM swap_records
		WHERE pair_key = ?
		ORDER BY timestamp ASC`

	rows, err := s.conn.Query(ctx, query, pairKey)
	if err != nil {
		return nil, fmt.Errorf("query swaps by pair: %w", err)
	}
	defer rows.Close()

	return scanSwapRecords(rows)
}

// GetByTimeRange retrieves swaps for a pair within [start, end] inclusive.
func (s *SwapRecordStore) GetByTimeRange(ctx context.Context, pairKey string, start, end int64) ([]*domain.SwapRecord, error) {
	query := `SELECT ` + swapRecordColumns + `
		FROM swap_records
		WHERE pair_key = ? AND timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp ASC`

	rows, err := s.conn.Query(ctx, query, pairKey, start, end)
	if err != nil {
		return nil, fmt.Errorf("query swaps by time range: %w", err)
	}
	defer rows.Close()

	return scanSwapRecords(rows)
}

type chRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanSwapRecords(rows chRows) ([]*domain.SwapRecord, error) {
	var recs []*domain.SwapRecord
	for rows.Next() {
		var (
			rec          domain.SwapRecord
			in, out, fee string
		)
		err := rows.Scan(
			&rec.PairKey,
			&rec.Trader,
			&rec.TokenIn,
			&rec.TokenOut,
			&in,
			&out,
			&fee,
			&rec.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("scan swap record: %w", err)
		}
		if rec.AmountIn, err = bigFromString(in); err != nil {
			return nil, fmt.Errorf("scan swap record: %w", err)
		}
		if rec.AmountOut, err = bigFromString(out); err != nil {
			return nil, fmt.Errorf("scan swap record: %w", err)
		}
		if rec.FeePaid, err = bigFromString(fee); err != nil {
			return nil, fmt.Errorf("scan swap record: %w", err)
		}
		recs = append(recs, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate swap records: %w", err)
	}
	return recs, nil
}

// bigToString encodes an amount for a String column. Nil reads as zero.
func bigToString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func bigFromString(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	return v, nil
}
