package csml

import "errors"

var (
	// ErrNotDispatchResponse is returned when a DISPATCH response does not
	// carry the proprietary response template.
	ErrNotDispatchResponse = errors.New("csml: missing dispatch response template")

	// ErrMissingStatus is returned when a dispatch response has no status object.
	ErrMissingStatus = errors.New("csml: dispatch response without status")

	// ErrInvalidControleeInfo is returned when controlee info cannot be decoded.
	ErrInvalidControleeInfo = errors.New("csml: invalid controlee info")

	// ErrEmptyObjectIdentifier is returned for a zero-length object identifier.
	ErrEmptyObjectIdentifier = errors.New("csml: empty object identifier")
)
