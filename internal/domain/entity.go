package domain

// EntityCategory classifies a known on-chain counterparty.
type EntityCategory string

const (
	CategoryExchange       EntityCategory = "EXCHANGE"
	CategorySwapVenue      EntityCategory = "SWAP_VENUE"
	CategoryBridge         EntityCategory = "BRIDGE"
	CategoryPrivacyService EntityCategory = "PRIVACY_SERVICE"
)

// String returns the string representation of EntityCategory.
func (c EntityCategory) String() string {
	return string(c)
}

// IsValid checks if the category is a valid value.
func (c EntityCategory) IsValid() bool {
	switch c {
	case CategoryExchange, CategorySwapVenue, CategoryBridge, CategoryPrivacyService:
		return true
	}
	return false
}

// IsTerminal reports whether taint tracing stops at this category.
// Exchanges hold funds off-chain and bridges move them cross-chain, so
// neither has a meaningful downstream graph to expand.
func (c EntityCategory) IsTerminal() bool {
	return c == CategoryExchange || c == CategoryBridge
}

// EntityRef identifies a registered counterparty an address resolved to.
type EntityRef struct {
	Name     string
	Category EntityCategory
	// Heuristic is true when the classification came from the swap-program
	// inference rather than an exact registry hit.
	Heuristic bool
}
