package domain

// Default metadata used when a token ledger cannot answer a best-effort
// lookup. Lookup failures fall back to these rather than failing the call.
const (
	DefaultTokenDecimals uint8 = 18
	DefaultTokenSymbol         = "UNKNOWN"
	DefaultTokenName           = "Unknown Token"
)

// TokenMetadata is the resolved best-effort description of a token.
type TokenMetadata struct {
	Address  string // base58 token address
	Name     string
	Symbol   string
	Decimals uint8
}
