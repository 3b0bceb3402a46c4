package domain

import "fmt"

// AssetClass distinguishes native SOL movements from SPL token movements.
type AssetClass string

const (
	AssetNative AssetClass = "NATIVE"
	AssetToken  AssetClass = "TOKEN"
)

// String returns the string representation of AssetClass.
func (c AssetClass) String() string {
	return string(c)
}

// IsValid checks if the asset class is a valid value.
func (c AssetClass) IsValid() bool {
	return c == AssetNative || c == AssetToken
}

// AssetKind is a tagged selector for the asset being traced.
// For AssetToken the Mint field carries the SPL mint address;
// for AssetNative the Mint field is empty.
type AssetKind struct {
	Class AssetClass
	Mint  string
}

// NativeAsset returns the native SOL asset kind.
func NativeAsset() AssetKind {
	return AssetKind{Class: AssetNative}
}

// TokenAsset returns the asset kind for a specific SPL mint.
func TokenAsset(mint string) AssetKind {
	return AssetKind{Class: AssetToken, Mint: mint}
}

// Symbol returns a display symbol for the asset.
func (k AssetKind) Symbol() string {
	if k.Class == AssetNative {
		return "SOL"
	}
	if len(k.Mint) > 8 {
		return k.Mint[:8]
	}
	return k.Mint
}

// Equal reports whether two asset kinds select the same asset.
func (k AssetKind) Equal(other AssetKind) bool {
	return k.Class == other.Class && k.Mint == other.Mint
}

// String returns a human-readable representation.
func (k AssetKind) String() string {
	if k.Class == AssetNative {
		return "NATIVE"
	}
	return fmt.Sprintf("TOKEN(%s)", k.Mint)
}
