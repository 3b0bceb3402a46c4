package trace

import "errors"

// Engine errors. Input errors fail fast with no partial result; a root
// fetch failure is fatal because no meaningful trace is possible without
// the victim's own transfers.
var (
	// ErrInvalidAddress is returned for a malformed source address.
	ErrInvalidAddress = errors.New("invalid source address")

	// ErrInvalidHops is returned when max hops is outside [1, 10].
	ErrInvalidHops = errors.New("max hops out of range")

	// ErrRootUnavailable is returned when the transaction source fails for
	// the victim address itself.
	ErrRootUnavailable = errors.New("transaction source unavailable for root address")

	// ErrNoSource is returned when the tracer is constructed without a
	// transfer source.
	ErrNoSource = errors.New("transfer source is required")
)
