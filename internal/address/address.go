// Package address validates Solana account addresses.
package address

import (
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// Validate checks that s is a well-formed Solana wallet address: base58
// text decoding to exactly 32 bytes on the ed25519 curve. Program-derived
// addresses fail the curve check; a victim wallet is always a keypair.
func Validate(s string) error {
	if s == "" {
		return fmt.Errorf("empty address")
	}
	decoded, err := base58.Decode(s)
	if err != nil {
		return fmt.Errorf("decode base58: %w", err)
	}
	if len(decoded) != 32 {
		return fmt.Errorf("address is %d bytes, want 32", len(decoded))
	}
	if _, err := new(edwards25519.Point).SetBytes(decoded); err != nil {
		return fmt.Errorf("address is not an ed25519 point: %w", err)
	}
	return nil
}

// IsOnCurve reports whether the address decodes to a valid ed25519 curve
// point. Wallet addresses are on-curve; program-derived addresses are not.
func IsOnCurve(s string) bool {
	decoded, err := base58.Decode(s)
	if err != nil || len(decoded) != 32 {
		return false
	}
	_, err = new(edwards25519.Point).SetBytes(decoded)
	return err == nil
}
