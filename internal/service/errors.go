package service

import "errors"

// Expected rule violations are returned as wrapped sentinel errors so the
// controllers can map them to status codes with errors.Is; anything else is
// an unexpected failure and becomes a 500.
var (
	// ErrNotFound: the resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden: the resource exists but belongs to another user. Kept
	// distinct from ErrNotFound to preserve least-privilege semantics.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation: the request data is invalid (bad plan code, duplicate
	// email, malformed callback).
	ErrValidation = errors.New("validation failed")

	// ErrInvalidState: a state-transition precondition does not hold.
	ErrInvalidState = errors.New("invalid state transition")

	// ErrGateway: the payment provider call failed or the provider is not
	// provisioned; raw transport errors never leave the service layer.
	ErrGateway = errors.New("payment gateway error")
)
