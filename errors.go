package strata

import (
	"fmt"

	"github.com/hupe1980/strata/layer"
)

// ErrConstruction indicates a malformed layer descriptor (empty key range,
// empty or inverted LSN range). It is detected at insertion, rejected
// immediately and never retried.
//
// The underlying validation error can be accessed via errors.Unwrap.
type ErrConstruction struct {
	ShortID string
	cause   error
}

func (e *ErrConstruction) Error() string {
	return fmt.Sprintf("layer construction: %v", e.cause)
}

func (e *ErrConstruction) Unwrap() error { return e.cause }

// ErrInvariantViolation indicates a corruption-class condition: the layer
// inventory or the compiled index contradicts its own invariants, e.g. two
// distinct image layers over the same key range and LSN. Operations abort
// loudly on it; returning a plausible-but-wrong layer would be worse.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrInvariantViolation struct {
	Reason string
	cause  error
}

func (e *ErrInvariantViolation) Error() string {
	return fmt.Sprintf("layer map invariant violation: %s", e.Reason)
}

func (e *ErrInvariantViolation) Unwrap() error { return e.cause }

func constructionError(err error) error {
	if err == nil {
		return nil
	}
	if ce, ok := err.(*layer.ErrConstruction); ok {
		return &ErrConstruction{ShortID: ce.ShortID, cause: err}
	}
	return &ErrConstruction{cause: err}
}
