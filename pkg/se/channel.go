// Package se provides access to the FiRa applet on a secure element.
//
// A Channel is the exclusive, per-session link to the applet. The
// LogicalChannel implementation opens an ISO 7816 logical channel on a raw
// Terminal, selects the applet on it and takes care of response chaining.
package se

import (
	"context"

	"github.com/backkem/uwb/pkg/iso7816"
)

// Channel is an open or openable session with the FiRa applet.
type Channel interface {
	// Open opens the channel and selects the applet. A non-success status
	// word is reported through the response, not as an error; errors are
	// reserved for I/O failures.
	Open(ctx context.Context) (*iso7816.ResponseAPDU, error)

	// Transmit sends cmd to the applet and returns its complete response.
	Transmit(ctx context.Context, cmd *iso7816.CommandAPDU) (*iso7816.ResponseAPDU, error)

	// IsOpen reports whether the channel is open.
	IsOpen() bool

	// Close closes the channel. Closing a closed channel is a no-op.
	Close(ctx context.Context) error
}

// Terminal exchanges raw APDUs with a secure element, for example through a
// PC/SC reader or an embedded SE driver.
type Terminal interface {
	Transmit(ctx context.Context, apdu []byte) ([]byte, error)
}

// TerminalFunc adapts a function to the Terminal interface.
type TerminalFunc func(ctx context.Context, apdu []byte) ([]byte, error)

// Transmit calls f.
func (f TerminalFunc) Transmit(ctx context.Context, apdu []byte) ([]byte, error) {
	return f(ctx, apdu)
}
