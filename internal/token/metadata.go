package token

import (
	"context"

	"token-launchpad/internal/domain"
)

// Metadata resolves a token's descriptive fields best-effort. Lookup
// failures fall back to fixed defaults instead of failing the caller; the
// second return reports whether every field resolved.
func Metadata(ctx context.Context, ledger Ledger, addr string) (domain.TokenMetadata, bool) {
	meta := domain.TokenMetadata{
		Address:  addr,
		Name:     domain.DefaultTokenName,
		Symbol:   domain.DefaultTokenSymbol,
		Decimals: domain.DefaultTokenDecimals,
	}

	complete := true
	if name, err := ledger.Name(ctx, addr); err == nil && name != "" {
		meta.Name = name
	} else {
		complete = false
	}
	if symbol, err := ledger.Symbol(ctx, addr); err == nil && symbol != "" {
		meta.Symbol = symbol
	} else {
		complete = false
	}
	if decimals, err := ledger.Decimals(ctx, addr); err == nil {
		meta.Decimals = decimals
	} else {
		complete = false
	}
	return meta, complete
}

// DecimalsOrDefault returns the token's decimal count, defaulting to 18 when
// the ledger cannot answer.
func DecimalsOrDefault(ctx context.Context, ledger Ledger, addr string) uint8 {
	decimals, err := ledger.Decimals(ctx, addr)
	if err != nil {
		return domain.DefaultTokenDecimals
	}
	return decimals
}
