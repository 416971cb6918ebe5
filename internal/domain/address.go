package domain

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// Account and token identities are base58-encoded 32-byte values
// (Bitcoin alphabet). Wallet addresses are ed25519 points; custody accounts
// derived by the platform are deliberately off-curve so no key can sign for
// them.

// ErrInvalidAddress is returned for identities that are not 32 bytes of
// valid base58.
var ErrInvalidAddress = errors.New("invalid address")

// ValidateAddress checks that addr decodes to exactly 32 bytes of base58.
func ValidateAddress(addr string) error {
	if addr == "" {
		return ErrInvalidAddress
	}
	decoded, err := base58.Decode(addr)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAddress, addr)
	}
	if len(decoded) != 32 {
		return fmt.Errorf("%w: decoded length %d", ErrInvalidAddress, len(decoded))
	}
	return nil
}

// IsOnCurve reports whether addr decodes to a valid ed25519 point, i.e. a
// key-controlled wallet rather than a derived custody account.
func IsOnCurve(addr string) bool {
	decoded, err := base58.Decode(addr)
	if err != nil || len(decoded) != 32 {
		return false
	}
	_, err = (&edwards25519.Point{}).SetBytes(decoded)
	return err == nil
}

// DeriveCustodyAddress deterministically derives an off-curve address from a
// seed string, bumping a nonce byte until the hash leaves the curve.
func DeriveCustodyAddress(seed string) string {
	for bump := byte(0); ; bump++ {
		sum := sha256.Sum256(append([]byte(seed), bump))
		if _, err := (&edwards25519.Point{}).SetBytes(sum[:]); err != nil {
			return base58.Encode(sum[:])
		}
	}
}
