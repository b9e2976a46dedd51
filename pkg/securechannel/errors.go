package securechannel

import "errors"

// Session errors.
var (
	// ErrIllegalState is returned when an operation is not allowed in the
	// current status.
	ErrIllegalState = errors.New("securechannel: operation not allowed in current state")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("securechannel: session closed")

	// ErrAlreadyInitialized is returned when Init is called twice.
	ErrAlreadyInitialized = errors.New("securechannel: already initialized")

	// ErrNotInitialized is returned when an operation requires Init first.
	ErrNotInitialized = errors.New("securechannel: not initialized")

	// ErrWrongRole is returned when an operation is not available to the
	// session's role.
	ErrWrongRole = errors.New("securechannel: operation not supported by role")

	// ErrTunnelBusy is returned to a tunnel callback while another tunnel
	// request awaits its answer.
	ErrTunnelBusy = errors.New("securechannel: tunnel request already pending")
)

// Configuration errors.
var (
	ErrNoChannel     = errors.New("securechannel: no SE channel configured")
	ErrNoTransport   = errors.New("securechannel: no transport configured")
	ErrNoSessionInfo = errors.New("securechannel: no session info configured")
	ErrNoCapability  = errors.New("securechannel: session info has no capability")
	ErrNoADF         = errors.New("securechannel: session info has no ADF object identifier")
)
