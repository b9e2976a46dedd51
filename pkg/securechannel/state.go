package securechannel

import "fmt"

// Status is the setup state of a secure channel session.
type Status uint8

const (
	// StatusUninitialized is the state before Init.
	StatusUninitialized Status = iota
	// StatusInitialized means the session is ready and the SE channel is closed.
	StatusInitialized
	// StatusChannelOpened means the FiRa applet is selected on the SE channel.
	StatusChannelOpened
	// StatusADFSelected means the expected ADF is selected.
	StatusADFSelected
	// StatusEstablished means the applet reported a secure channel with the peer.
	StatusEstablished
	// StatusTerminated means the session is closed.
	StatusTerminated
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusUninitialized:
		return "UNINITIALIZED"
	case StatusInitialized:
		return "INITIALIZED"
	case StatusChannelOpened:
		return "CHANNEL_OPENED"
	case StatusADFSelected:
		return "ADF_SELECTED"
	case StatusEstablished:
		return "ESTABLISHED"
	case StatusTerminated:
		return "TERMINATED"
	default:
		return fmt.Sprintf("Status(%d)", uint8(s))
	}
}

// channelOpened reports whether the SE channel is usable in state s.
func (s Status) channelOpened() bool {
	return s >= StatusChannelOpened && s <= StatusEstablished
}

// SetupError identifies the step at which secure channel setup failed.
// It is reported through Callbacks.OnSetupError.
type SetupError uint8

const (
	// SetupErrorOpenSEChannel: the SE channel could not be opened, or the
	// ADF swap-in failed.
	SetupErrorOpenSEChannel SetupError = iota + 1
	// SetupErrorADFNotMatched: the peer selected a different ADF.
	SetupErrorADFNotMatched
	// SetupErrorSelectADF: the local SELECT ADF failed.
	SetupErrorSelectADF
	// SetupErrorInitiateTransaction: INITIATE TRANSACTION failed.
	SetupErrorInitiateTransaction
	// SetupErrorDispatch: the applet rejected a forwarded message.
	SetupErrorDispatch
)

// String returns the setup error name.
func (e SetupError) String() string {
	switch e {
	case SetupErrorOpenSEChannel:
		return "OPEN_SE_CHANNEL"
	case SetupErrorADFNotMatched:
		return "ADF_NOT_MATCHED"
	case SetupErrorSelectADF:
		return "SELECT_ADF"
	case SetupErrorInitiateTransaction:
		return "INITIATE_TRANSACTION"
	case SetupErrorDispatch:
		return "DISPATCH"
	default:
		return fmt.Sprintf("SetupError(%d)", uint8(e))
	}
}

// Error implements error.
func (e SetupError) Error() string {
	return "securechannel: setup failed: " + e.String()
}

// Role is the part a device plays in secure channel setup.
type Role uint8

const (
	// RoleResponder answers the peer's SELECT and forwards its commands.
	RoleResponder Role = iota
	// RoleInitiator starts setup with OpenSecureChannel.
	RoleInitiator
)

// String returns the role name.
func (r Role) String() string {
	switch r {
	case RoleResponder:
		return "responder"
	case RoleInitiator:
		return "initiator"
	default:
		return fmt.Sprintf("Role(%d)", uint8(r))
	}
}
