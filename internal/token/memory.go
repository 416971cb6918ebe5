package token

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"token-launchpad/internal/domain"
)

// tokenState is one registered token's ledger state.
type tokenState struct {
	name       string
	symbol     string
	decimals   uint8
	logoURI    string
	balances   map[string]*big.Int
	allowances map[string]*big.Int // keyed "owner|spender"
}

// MemoryLedger is an in-memory token ledger and factory, used by the memory
// deployment mode and by tests.
type MemoryLedger struct {
	mu       sync.RWMutex
	platform string // identity allowed to call the factory
	tokens   map[string]*tokenState
	created  uint64
}

// Compile-time interface checks.
var (
	_ Ledger  = (*MemoryLedger)(nil)
	_ Factory = (*MemoryLedger)(nil)
)

// NewMemoryLedger creates an empty ledger. platform is the only identity the
// factory accepts.
func NewMemoryLedger(platform string) *MemoryLedger {
	return &MemoryLedger{
		platform: platform,
		tokens:   make(map[string]*tokenState),
	}
}

// Register adds an externally minted token with a fixed decimal count.
func (l *MemoryLedger) Register(addr, name, symbol string, decimals uint8) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.tokens[addr] = &tokenState{
		name:       name,
		symbol:     symbol,
		decimals:   decimals,
		balances:   make(map[string]*big.Int),
		allowances: make(map[string]*big.Int),
	}
}

// Mint credits amount to an account, creating supply.
func (l *MemoryLedger) Mint(addr, account string, amount *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	t, ok := l.tokens[addr]
	if !ok {
		return ErrUnknownToken
	}
	bal, ok := t.balances[account]
	if !ok {
		bal = new(big.Int)
		t.balances[account] = bal
	}
	bal.Add(bal, amount)
	return nil
}

// CreateToken deploys a new 18-decimal token and mints the initial supply to
// the owner. Callable only by the platform identity.
func (l *MemoryLedger) CreateToken(_ context.Context, caller, name, symbol string, initialSupply *big.Int, logoURI, owner string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if caller != l.platform {
		return "", ErrUnauthorized
	}

	l.created++
	addr := domain.DeriveCustodyAddress(fmt.Sprintf("token/%s/%s/%d", symbol, name, l.created))

	t := &tokenState{
		name:       name,
		symbol:     symbol,
		decimals:   domain.DefaultTokenDecimals,
		logoURI:    logoURI,
		balances:   make(map[string]*big.Int),
		allowances: make(map[string]*big.Int),
	}
	if initialSupply != nil && initialSupply.Sign() > 0 {
		t.balances[owner] = new(big.Int).Set(initialSupply)
	}
	l.tokens[addr] = t
	return addr, nil
}

// Transfer moves amount between accounts.
func (l *MemoryLedger) Transfer(_ context.Context, token, from, to string, amount *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.move(token, from, to, amount)
}

// TransferFrom moves amount from an account under the spender's allowance.
func (l *MemoryLedger) TransferFrom(_ context.Context, token, spender, from, to string, amount *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	t, ok := l.tokens[token]
	if !ok {
		return ErrUnknownToken
	}
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidTransfer
	}

	key := from + "|" + spender
	allowance, ok := t.allowances[key]
	if !ok || allowance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: spender %s on %s", ErrInsufficientAllowance, spender, token)
	}

	if err := l.move(token, from, to, amount); err != nil {
		return err
	}
	allowance.Sub(allowance, amount)
	return nil
}

// Approve sets the spender's allowance over the owner's balance.
func (l *MemoryLedger) Approve(_ context.Context, token, owner, spender string, amount *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	t, ok := l.tokens[token]
	if !ok {
		return ErrUnknownToken
	}
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidTransfer
	}
	t.allowances[owner+"|"+spender] = new(big.Int).Set(amount)
	return nil
}

// Allowance returns the spender's remaining allowance, zero when absent.
func (l *MemoryLedger) Allowance(_ context.Context, token, owner, spender string) (*big.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	t, ok := l.tokens[token]
	if !ok {
		return nil, ErrUnknownToken
	}
	allowance, ok := t.allowances[owner+"|"+spender]
	if !ok {
		return new(big.Int), nil
	}
	return new(big.Int).Set(allowance), nil
}

// BalanceOf returns the account balance, zero when absent.
func (l *MemoryLedger) BalanceOf(_ context.Context, token, account string) (*big.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	t, ok := l.tokens[token]
	if !ok {
		return nil, ErrUnknownToken
	}
	bal, ok := t.balances[account]
	if !ok {
		return new(big.Int), nil
	}
	return new(big.Int).Set(bal), nil
}

// Decimals returns the token's decimal count.
func (l *MemoryLedger) Decimals(_ context.Context, token string) (uint8, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	t, ok := l.tokens[token]
	if !ok {
		return 0, ErrUnknownToken
	}
	return t.decimals, nil
}

// Symbol returns the token's symbol.
func (l *MemoryLedger) Symbol(_ context.Context, token string) (string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	t, ok := l.tokens[token]
	if !ok {
		return "", ErrUnknownToken
	}
	return t.symbol, nil
}

// Name returns the token's name.
func (l *MemoryLedger) Name(_ context.Context, token string) (string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	t, ok := l.tokens[token]
	if !ok {
		return "", ErrUnknownToken
	}
	return t.name, nil
}

// move transfers balance without allowance checks. Callers hold the lock.
func (l *MemoryLedger) move(token, from, to string, amount *big.Int) error {
	t, ok := l.tokens[token]
	if !ok {
		return ErrUnknownToken
	}
	if from == "" || to == "" || amount == nil || amount.Sign() < 0 {
		return ErrInvalidTransfer
	}
	if amount.Sign() == 0 {
		return nil
	}

	fromBal, ok := t.balances[from]
	if !ok || fromBal.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s on %s", ErrInsufficientBalance, from, token)
	}

	toBal, ok := t.balances[to]
	if !ok {
		toBal = new(big.Int)
		t.balances[to] = toBal
	}
	fromBal.Sub(fromBal, amount)
	toBal.Add(toBal, amount)
	return nil
}
