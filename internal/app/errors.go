package service

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	// ErrValidation marks malformed or out-of-range input.
	ErrValidation = errors.New("validation failed")
	// ErrEligibility marks a well-formed request the player's state does
	// not permit, e.g. spending a token with none held.
	ErrEligibility = errors.New("not eligible")
	// ErrConflict marks an operation raced by another writer or repeated
	// after it already took effect.
	ErrConflict = errors.New("conflict")
	// ErrConsistency marks a result submission whose outcome contradicts
	// its scores.
	ErrConsistency = errors.New("inconsistent result")
)
