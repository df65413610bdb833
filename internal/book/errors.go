package book

import "errors"

// Sentinel error kinds (spec §7 Error Handling Design). Checked with
// errors.Is; wrapped with fmt.Errorf("...: %w", ...) where a kind
// needs additional context, following the teacher's
// internal/engine/orderbook.go and internal/net/messages.go style.
var (
	// ErrInvalidPrice: price not a positive multiple of tick_size, or
	// missing on a limit order.
	ErrInvalidPrice = errors.New("book: invalid price")

	// ErrInvalidVolume: zero volume.
	ErrInvalidVolume = errors.New("book: invalid volume")

	// ErrUnknownOrderID: cancel/modify references an id the book never
	// issued.
	ErrUnknownOrderID = errors.New("book: unknown order id")

	// ErrStaleOrderID: modify references a terminal order. Cancel
	// treats the same situation as a non-fatal no-op (returns nil,
	// emits EventCancelNoop) per §7; Modify instead fails atomically
	// and returns this error, since §4.2 describes Modify as failing
	// rather than no-op-ing.
	ErrStaleOrderID = errors.New("book: stale order id")

	// ErrConfigError: invalid book configuration (e.g. tick_size == 0).
	ErrConfigError = errors.New("book: invalid configuration")
)
