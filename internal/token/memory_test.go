package token

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"token-launchpad/internal/domain"
)

func TestMemoryLedger_TransferAndBalance(t *testing.T) {
	l := NewMemoryLedger("platform")
	ctx := context.Background()

	l.Register("tok", "Test Token", "TST", 6)
	if err := l.Mint("tok", "alice", big.NewInt(1000)); err != nil {
		t.Fatalf("Mint failed: %v", err)
	}

	if err := l.Transfer(ctx, "tok", "alice", "bob", big.NewInt(400)); err != nil {
		t.Fatalf("Transfer failed: %v", err)
	}

	aliceBal, _ := l.BalanceOf(ctx, "tok", "alice")
	bobBal, _ := l.BalanceOf(ctx, "tok", "bob")
	if aliceBal.Int64() != 600 || bobBal.Int64() != 400 {
		t.Errorf("balances wrong: alice=%s bob=%s", aliceBal, bobBal)
	}

	if err := l.Transfer(ctx, "tok", "alice", "bob", big.NewInt(601)); !errors.Is(err, ErrInsufficientBalance) {
		t.Errorf("expected ErrInsufficientBalance, got %v", err)
	}
	if err := l.Transfer(ctx, "nope", "alice", "bob", big.NewInt(1)); !errors.Is(err, ErrUnknownToken) {
		t.Errorf("expected ErrUnknownToken, got %v", err)
	}
}

func TestMemoryLedger_TransferFromRequiresAllowance(t *testing.T) {
	l := NewMemoryLedger("platform")
	ctx := context.Background()

	l.Register("tok", "Test Token", "TST", 18)
	if err := l.Mint("tok", "alice", big.NewInt(1000)); err != nil {
		t.Fatalf("Mint failed: %v", err)
	}

	err := l.TransferFrom(ctx, "tok", "platform", "alice", "escrow", big.NewInt(100))
	if !errors.Is(err, ErrInsufficientAllowance) {
		t.Fatalf("expected ErrInsufficientAllowance, got %v", err)
	}

	if err := l.Approve(ctx, "tok", "alice", "platform", big.NewInt(250)); err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	if err := l.TransferFrom(ctx, "tok", "platform", "alice", "escrow", big.NewInt(100)); err != nil {
		t.Fatalf("TransferFrom failed: %v", err)
	}

	// Allowance is consumed.
	err = l.TransferFrom(ctx, "tok", "platform", "alice", "escrow", big.NewInt(200))
	if !errors.Is(err, ErrInsufficientAllowance) {
		t.Errorf("expected allowance consumption, got %v", err)
	}
}

func TestMemoryLedger_CreateToken(t *testing.T) {
	l := NewMemoryLedger("platform")
	ctx := context.Background()

	if _, err := l.CreateToken(ctx, "mallory", "Evil", "EVL", big.NewInt(1), "", "mallory"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	addr, err := l.CreateToken(ctx, "platform", "Launch Token", "LNCH", big.NewInt(1_000_000), "https://example.com/logo.png", "owner")
	if err != nil {
		t.Fatalf("CreateToken failed: %v", err)
	}
	if err := domain.ValidateAddress(addr); err != nil {
		t.Errorf("created token address invalid: %v", err)
	}

	bal, _ := l.BalanceOf(ctx, addr, "owner")
	if bal.Int64() != 1_000_000 {
		t.Errorf("initial supply not minted: %s", bal)
	}
	decimals, _ := l.Decimals(ctx, addr)
	if decimals != 18 {
		t.Errorf("created tokens are 18-decimal, got %d", decimals)
	}
}

func TestMetadata_Defaults(t *testing.T) {
	l := NewMemoryLedger("platform")
	ctx := context.Background()

	meta, complete := Metadata(ctx, l, "unregistered")
	if complete {
		t.Error("unresolved metadata reported complete")
	}
	if meta.Symbol != domain.DefaultTokenSymbol || meta.Decimals != domain.DefaultTokenDecimals || meta.Name != domain.DefaultTokenName {
		t.Errorf("defaults not applied: %+v", meta)
	}

	l.Register("tok", "Real Token", "RT", 9)
	meta, complete = Metadata(ctx, l, "tok")
	if !complete {
		t.Error("resolved metadata reported incomplete")
	}
	if meta.Symbol != "RT" || meta.Decimals != 9 {
		t.Errorf("metadata not resolved: %+v", meta)
	}

	if got := DecimalsOrDefault(ctx, l, "missing"); got != 18 {
		t.Errorf("expected default 18, got %d", got)
	}
	if got := DecimalsOrDefault(ctx, l, "tok"); got != 9 {
		t.Errorf("expected 9, got %d", got)
	}
}
