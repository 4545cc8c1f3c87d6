package domain

import "errors"

// Sentinel errors used across all layers.
var (
	ErrNotFound    = errors.New("not found")
	ErrValidation  = errors.New("validation error")
	ErrUnknownKind = errors.New("unknown entity kind")
	// ErrVendorUnavailable marks a total inability to reach the vendor API.
	// Partial per-kind failures are reported in summaries, never as errors.
	ErrVendorUnavailable = errors.New("vendor unavailable")
	// ErrStoreUnavailable marks a total inability to reach the local store.
	ErrStoreUnavailable = errors.New("store unavailable")
)
