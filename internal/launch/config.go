package launch

import (
	"errors"
	"math/big"
	"sync"

	"token-launchpad/internal/domain"
)

// Configuration errors.
var (
	// ErrUnauthorized is returned for owner- or platform-only entry points.
	ErrUnauthorized = errors.New("unauthorized caller")

	// ErrInvalidConfig is returned for unusable platform settings.
	ErrInvalidConfig = errors.New("invalid platform configuration")
)

// maxPlatformFeeBp caps the platform fee at 10%.
const maxPlatformFeeBp = 1000

// Config holds the mutable platform-level settings shared by every project.
// All accessors are safe for concurrent use.
type Config struct {
	mu sync.RWMutex

	owner              string
	feeBp              uint32
	feeRecipient       string
	protocolFeeShareBp uint32
	withdrawalDelay    int64 // seconds after sale end before unsold-token withdrawal
	approvedTokens     map[string]bool
}

// ConfigOptions seeds a Config.
type ConfigOptions struct {
	Owner              string
	FeeBp              uint32
	FeeRecipient       string
	ProtocolFeeShareBp uint32
	WithdrawalDelay    int64
	ContributionTokens []string
}

// NewConfig creates the platform configuration.
func NewConfig(opts ConfigOptions) (*Config, error) {
	if err := domain.ValidateAddress(opts.Owner); err != nil {
		return nil, err
	}
	if err := domain.ValidateAddress(opts.FeeRecipient); err != nil {
		return nil, err
	}
	if opts.FeeBp > maxPlatformFeeBp || opts.ProtocolFeeShareBp > bpDenominator {
		return nil, ErrInvalidConfig
	}
	if opts.WithdrawalDelay < 0 {
		return nil, ErrInvalidConfig
	}

	c := &Config{
		owner:              opts.Owner,
		feeBp:              opts.FeeBp,
		feeRecipient:       opts.FeeRecipient,
		protocolFeeShareBp: opts.ProtocolFeeShareBp,
		withdrawalDelay:    opts.WithdrawalDelay,
		approvedTokens:     make(map[string]bool),
	}
	for _, tok := range opts.ContributionTokens {
		if err := domain.ValidateAddress(tok); err != nil {
			return nil, err
		}
		c.approvedTokens[tok] = true
	}
	return c, nil
}

// Owner returns the platform owner identity.
func (c *Config) Owner() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.owner
}

// FeeBp returns the platform fee in basis points.
func (c *Config) FeeBp() uint32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.feeBp
}

// FeeRecipient returns the platform fee destination.
func (c *Config) FeeRecipient() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.feeRecipient
}

// ProtocolFeeShareBp returns the protocol's share of pool trading fees.
func (c *Config) ProtocolFeeShareBp() uint32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.protocolFeeShareBp
}

// WithdrawalDelay returns the post-sale delay before unsold-token withdrawal.
func (c *Config) WithdrawalDelay() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.withdrawalDelay
}

// IsApprovedContributionToken reports whether a token may denominate sales.
func (c *Config) IsApprovedContributionToken(token string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.approvedTokens[token]
}

// SetFeeBp updates the platform fee. Owner-only.
func (c *Config) SetFeeBp(caller string, feeBp uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if caller != c.owner {
		return ErrUnauthorized
	}
	if feeBp > maxPlatformFeeBp {
		return ErrInvalidConfig
	}
	c.feeBp = feeBp
	return nil
}

// SetFeeRecipient updates the fee destination. Owner-only.
func (c *Config) SetFeeRecipient(caller, recipient string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if caller != c.owner {
		return ErrUnauthorized
	}
	if err := domain.ValidateAddress(recipient); err != nil {
		return err
	}
	c.feeRecipient = recipient
	return nil
}

// ApproveContributionToken allows a token to denominate sales. Owner-only.
func (c *Config) ApproveContributionToken(caller, token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if caller != c.owner {
		return ErrUnauthorized
	}
	if err := domain.ValidateAddress(token); err != nil {
		return err
	}
	c.approvedTokens[token] = true
	return nil
}

// RevokeContributionToken disallows a token for new sales. Owner-only.
// Existing projects keep their configured token.
func (c *Config) RevokeContributionToken(caller, token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if caller != c.owner {
		return ErrUnauthorized
	}
	delete(c.approvedTokens, token)
	return nil
}

// applyBp computes amount*bp/10000 in a fresh integer.
func applyBp(amount *big.Int, bp uint32) *big.Int {
	out := new(big.Int).Mul(amount, big.NewInt(int64(bp)))
	return out.Div(out, big.NewInt(bpDenominator))
}
