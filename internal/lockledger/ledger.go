// Package lockledger enforces per-owner liquidity time locks. A lock does
// not custody LP shares: it fixes a floor under the owner's already-held
// balance, so the pool engine consults CheckWithdrawable before letting any
// shares leave.
package lockledger

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/observability"
	"token-launchpad/internal/storage"
)

// Lock errors.
var (
	// ErrLiquidityLocked is returned when a withdrawal would dip below the
	// locked floor while the lock is active and unexpired.
	ErrLiquidityLocked = errors.New("liquidity is locked")

	// ErrInvalidLockData is returned for unlock calls with no active lock,
	// including repeat unlocks after the first.
	ErrInvalidLockData = errors.New("invalid lock data")

	// ErrLockNotExpired is returned for unlock calls before the deadline.
	ErrLockNotExpired = errors.New("lock not expired")

	// ErrInvalidLockParams is returned for unusable lock creation arguments.
	ErrInvalidLockParams = errors.New("invalid lock parameters")
)

// Ledger owns the (pair, owner) lock records. Creation is reserved for the
// liquidity finalization path via the pool engine; unlock is owner-initiated.
type Ledger struct {
	locks storage.LockStore
	now   func() int64
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides the time source, unix seconds.
func WithClock(now func() int64) Option {
	return func(l *Ledger) { l.now = now }
}

// New creates a lock ledger backed by the given store.
func New(locks storage.LockStore, opts ...Option) *Ledger {
	l := &Ledger{
		locks: locks,
		now:   func() int64 { return time.Now().Unix() },
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// CreateLock creates or overwrites the (pair, owner) lock with
// unlockTime = now + duration and the full locked amount.
func (l *Ledger) CreateLock(ctx context.Context, pairKey, owner string, projectID uint64, amount *big.Int, duration int64) error {
	if pairKey == "" || owner == "" || duration <= 0 {
		return ErrInvalidLockParams
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidLockParams
	}

	now := l.now()
	lock := &domain.LiquidityLock{
		PairKey:      pairKey,
		Owner:        owner,
		ProjectID:    projectID,
		LockedAmount: new(big.Int).Set(amount),
		UnlockTime:   now + duration,
		Active:       true,
		CreatedAt:    now,
	}
	if err := l.locks.Upsert(ctx, lock); err != nil {
		return fmt.Errorf("store lock: %w", err)
	}
	observability.RecordLockCreated()
	return nil
}

// CheckWithdrawable verifies that requested LP shares may leave the owner's
// balance. With no active lock, or past the deadline, withdrawal is
// unconstrained. Otherwise the withdrawable surplus is
// max(0, currentBalance - lockedAmount).
func (l *Ledger) CheckWithdrawable(ctx context.Context, pairKey, owner string, requested, currentBalance *big.Int) error {
	lock, err := l.locks.Get(ctx, pairKey, owner)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("load lock: %w", err)
	}
	if !lock.Active || l.now() >= lock.UnlockTime {
		return nil
	}

	withdrawable := new(big.Int).Sub(currentBalance, lock.LockedAmount)
	if withdrawable.Sign() < 0 {
		withdrawable.SetInt64(0)
	}
	if requested.Cmp(withdrawable) > 0 {
		return fmt.Errorf("%w: requested %s, withdrawable %s until %d",
			ErrLiquidityLocked, requested, withdrawable, lock.UnlockTime)
	}
	return nil
}

// Unlock deactivates the owner's lock after its deadline. It is one-shot:
// a second call finds no active lock and fails with ErrInvalidLockData.
func (l *Ledger) Unlock(ctx context.Context, pairKey, owner string) error {
	lock, err := l.locks.Get(ctx, pairKey, owner)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrInvalidLockData
		}
		return fmt.Errorf("load lock: %w", err)
	}
	if !lock.Active {
		return ErrInvalidLockData
	}
	if l.now() < lock.UnlockTime {
		return ErrLockNotExpired
	}

	lock.Active = false
	lock.LockedAmount = new(big.Int)
	if err := l.locks.Upsert(ctx, lock); err != nil {
		return fmt.Errorf("store unlock: %w", err)
	}
	observability.RecordLockReleased()
	return nil
}

// Get returns the current lock record, ErrInvalidLockData when none exists.
func (l *Ledger) Get(ctx context.Context, pairKey, owner string) (*domain.LiquidityLock, error) {
	lock, err := l.locks.Get(ctx, pairKey, owner)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrInvalidLockData
		}
		return nil, fmt.Errorf("load lock: %w", err)
	}
	return lock, nil
}
