package domain

import "errors"

// Domain errors (no external dependencies). All of them abort the
// operation in progress; nothing is retried internally.
var (
	// ErrInvalidInput marks malformed or missing caller input, detected
	// before any remote call is issued.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound marks a lookup that returned zero matches for a
	// business key.
	ErrNotFound = errors.New("record not found")

	// ErrAmbiguous marks a lookup that returned more than one match.
	// Business keys are assumed unique in the remote catalog; picking
	// one silently would risk booking against the wrong record.
	ErrAmbiguous = errors.New("more than one record matched")

	// ErrRemoteInvariant marks a remote result that violates an assumed
	// invariant (tax recomputation reporting failure, an invoice with no
	// tax lines after recomputation, an unexpected tax code).
	ErrRemoteInvariant = errors.New("remote system violated an expected invariant")

	// ErrTransport marks a network or authentication failure, propagated
	// unchanged from the gateway.
	ErrTransport = errors.New("transport failure")
)
