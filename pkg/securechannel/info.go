package securechannel

import (
	"fmt"

	"github.com/backkem/uwb/pkg/capability"
	"github.com/backkem/uwb/pkg/csml"
)

// SessionInfo describes the profile a session sets up: the local
// capability, the ADF both sides must select and, for an ADF that is not
// resident on the secure element, the provisioning data to swap it in.
type SessionInfo struct {
	// Capability is the local capability set. Required.
	Capability *capability.Capability

	// OID identifies the expected ADF. Required.
	OID csml.ObjectIdentifier

	// SecureBlob is the swap-in payload. A non-nil value, even empty,
	// means the ADF must be swapped in after the channel opens.
	SecureBlob []byte

	// ControleeInfo is sent along with the secure blob.
	ControleeInfo *csml.ControleeInfo

	// Multicast selects a one-to-many transaction.
	Multicast bool
}

// NewSessionInfo validates info and returns a copy of it.
func NewSessionInfo(info SessionInfo) (*SessionInfo, error) {
	if info.Capability == nil {
		return nil, ErrNoCapability
	}
	if len(info.OID) == 0 {
		return nil, ErrNoADF
	}
	out := info
	out.OID = append(csml.ObjectIdentifier(nil), info.OID...)
	if info.SecureBlob != nil {
		out.SecureBlob = append([]byte{}, info.SecureBlob...)
	}
	return &out, nil
}

// SwapInRequired reports whether the ADF must be swapped in.
func (i *SessionInfo) SwapInRequired() bool {
	return i.SecureBlob != nil
}

// String returns a short description.
func (i *SessionInfo) String() string {
	return fmt.Sprintf("SessionInfo{ADF=%s, swapIn=%v, multicast=%v}", i.OID, i.SwapInRequired(), i.Multicast)
}
