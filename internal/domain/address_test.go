package domain

import (
	"testing"

	"github.com/mr-tron/base58"
)

func TestValidateAddress(t *testing.T) {
	valid := base58.Encode(make([]byte, 32))
	if err := ValidateAddress(valid); err != nil {
		t.Errorf("ValidateAddress(%q) failed: %v", valid, err)
	}

	cases := []string{
		"",
		"not-base58-0OIl",
		base58.Encode(make([]byte, 31)),
		base58.Encode(make([]byte, 33)),
	}
	for _, addr := range cases {
		if err := ValidateAddress(addr); err == nil {
			t.Errorf("ValidateAddress(%q) should fail", addr)
		}
	}
}

func TestDeriveCustodyAddress(t *testing.T) {
	a := DeriveCustodyAddress("launchpad/escrow")
	b := DeriveCustodyAddress("launchpad/escrow")
	if a != b {
		t.Errorf("derivation not deterministic: %s vs %s", a, b)
	}

	if err := ValidateAddress(a); err != nil {
		t.Errorf("derived address invalid: %v", err)
	}

	if IsOnCurve(a) {
		t.Errorf("custody address %s should be off-curve", a)
	}

	if DeriveCustodyAddress("launchpad/vault") == a {
		t.Error("distinct seeds produced the same address")
	}
}
