package vesting

import (
	"errors"
	"math/big"
	"testing"

	"token-launchpad/internal/domain"
)

func linearParams(cliff, duration int64, initialBp uint32) domain.VestingParams {
	return domain.VestingParams{
		Enabled:          true,
		Cliff:            cliff,
		Duration:         duration,
		Interval:         1,
		InitialReleaseBp: initialBp,
	}
}

func TestAvailableToDate_Disabled(t *testing.T) {
	total := big.NewInt(1000)
	got := AvailableToDate(total, domain.VestingParams{Enabled: false}, 0, 0)
	if got.Cmp(total) != 0 {
		t.Errorf("disabled vesting should unlock everything, got %s", got)
	}
}

func TestAvailableToDate_LinearMidpoint(t *testing.T) {
	// cliff=0, duration=100, no initial release: at start+50, half unlocked.
	total := big.NewInt(1000)
	p := linearParams(0, 100, 0)

	got := AvailableToDate(total, p, 0, 50)
	if got.Int64() != 500 {
		t.Errorf("expected 500 at midpoint, got %s", got)
	}
}

func TestAvailableToDate_Cliff(t *testing.T) {
	total := big.NewInt(1000)
	p := linearParams(20, 100, 1000) // 10% initial release

	// Before cliff: only the initial slice.
	if got := AvailableToDate(total, p, 0, 19); got.Int64() != 100 {
		t.Errorf("before cliff: expected 100, got %s", got)
	}
	// At cliff boundary linear release begins from the initial slice.
	if got := AvailableToDate(total, p, 0, 20); got.Int64() != 100 {
		t.Errorf("at cliff: expected 100, got %s", got)
	}
	// Midway through the post-cliff span: 100 + 900*40/80 = 550.
	if got := AvailableToDate(total, p, 0, 60); got.Int64() != 550 {
		t.Errorf("mid-span: expected 550, got %s", got)
	}
}

func TestAvailableToDate_CompletesExactly(t *testing.T) {
	total := big.NewInt(999) // awkward divisor on purpose
	p := linearParams(10, 100, 250)

	if got := AvailableToDate(total, p, 1000, 1100); got.Cmp(total) != 0 {
		t.Errorf("at projectStart+duration: expected %s, got %s", total, got)
	}
	if got := AvailableToDate(total, p, 1000, 5000); got.Cmp(total) != 0 {
		t.Errorf("long after end: expected %s, got %s", total, got)
	}
}

func TestAvailableToDate_Bounds(t *testing.T) {
	total := big.NewInt(1_000_000)
	p := linearParams(7, 93, 500)

	prev := new(big.Int)
	for now := int64(-10); now <= 120; now++ {
		got := AvailableToDate(total, p, 0, now)
		if got.Sign() < 0 || got.Cmp(total) > 0 {
			t.Fatalf("now=%d: %s outside [0, total]", now, got)
		}
		if got.Cmp(prev) < 0 {
			t.Fatalf("now=%d: available decreased %s -> %s", now, prev, got)
		}
		prev = got
	}
}

func TestClaimable(t *testing.T) {
	total := big.NewInt(1000)
	p := linearParams(0, 100, 0)

	delta, err := Claimable(total, big.NewInt(300), p, 0, 50)
	if err != nil {
		t.Fatalf("Claimable failed: %v", err)
	}
	if delta.Int64() != 200 {
		t.Errorf("expected claimable 200, got %s", delta)
	}
}

func TestClaimable_NothingVested(t *testing.T) {
	total := big.NewInt(1000)
	p := linearParams(50, 100, 0)

	// Before the cliff with no initial release: explicit error, not zero.
	_, err := Claimable(total, new(big.Int), p, 0, 10)
	if !errors.Is(err, ErrNoTokensVested) {
		t.Errorf("expected ErrNoTokensVested, got %v", err)
	}

	// Fully claimed: also an explicit error.
	_, err = Claimable(total, big.NewInt(1000), p, 0, 500)
	if !errors.Is(err, ErrNoTokensVested) {
		t.Errorf("expected ErrNoTokensVested after full claim, got %v", err)
	}
}

func TestClaimable_ReleasedExceedsTotal(t *testing.T) {
	_, err := Claimable(big.NewInt(100), big.NewInt(101), linearParams(0, 10, 0), 0, 5)
	if !errors.Is(err, ErrReleasedExceedsTotal) {
		t.Errorf("expected ErrReleasedExceedsTotal, got %v", err)
	}
}

func TestValidateParams(t *testing.T) {
	if err := ValidateParams(domain.VestingParams{Enabled: false}); err != nil {
		t.Errorf("disabled params should validate: %v", err)
	}
	if err := ValidateParams(linearParams(10, 100, 500)); err != nil {
		t.Errorf("valid params rejected: %v", err)
	}

	bad := []domain.VestingParams{
		{Enabled: true, Duration: 0, Interval: 1},
		{Enabled: true, Duration: 100, Cliff: 101, Interval: 1},
		{Enabled: true, Duration: 100, Cliff: -1, Interval: 1},
		{Enabled: true, Duration: 100, Interval: 0},
		{Enabled: true, Duration: 100, Interval: 101},
		{Enabled: true, Duration: 100, Interval: 1, InitialReleaseBp: 10001},
	}
	for i, p := range bad {
		if err := ValidateParams(p); !errors.Is(err, ErrInvalidParams) {
			t.Errorf("case %d: expected ErrInvalidParams, got %v", i, err)
		}
	}
}
