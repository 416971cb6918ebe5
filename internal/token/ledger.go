// Package token abstracts the external token ledgers the launchpad moves
// funds on. The core never holds tokens itself: it instructs a Ledger and
// trusts the serialized execution environment for atomicity.
package token

import (
	"context"
	"errors"
	"math/big"
)

// Ledger errors.
var (
	// ErrUnknownToken is returned for operations on an unregistered token.
	ErrUnknownToken = errors.New("unknown token")

	// ErrInsufficientBalance is returned when a debit exceeds the balance.
	ErrInsufficientBalance = errors.New("insufficient token balance")

	// ErrInsufficientAllowance is returned when a TransferFrom exceeds the
	// spender's approved allowance.
	ErrInsufficientAllowance = errors.New("insufficient allowance")

	// ErrInvalidTransfer is returned for malformed transfer arguments.
	ErrInvalidTransfer = errors.New("invalid transfer")

	// ErrUnauthorized is returned when a factory call comes from an
	// identity other than the platform.
	ErrUnauthorized = errors.New("unauthorized")
)

// Ledger is the per-token balance ledger the platform debits and credits.
// Transfer moves funds the core already custodies; TransferFrom pulls user
// funds under a prior approval. Metadata lookups (Decimals, Symbol, Name)
// are best-effort: callers go through Metadata for defaulted results.
type Ledger interface {
	Transfer(ctx context.Context, token, from, to string, amount *big.Int) error
	TransferFrom(ctx context.Context, token, spender, from, to string, amount *big.Int) error
	Approve(ctx context.Context, token, owner, spender string, amount *big.Int) error
	Allowance(ctx context.Context, token, owner, spender string) (*big.Int, error)
	BalanceOf(ctx context.Context, token, account string) (*big.Int, error)
	Decimals(ctx context.Context, token string) (uint8, error)
	Symbol(ctx context.Context, token string) (string, error)
	Name(ctx context.Context, token string) (string, error)
}

// Factory deploys new tokens. Only the platform identity may call it.
type Factory interface {
	CreateToken(ctx context.Context, caller, name, symbol string, initialSupply *big.Int, logoURI, owner string) (string, error)
}
