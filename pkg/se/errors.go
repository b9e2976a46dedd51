package se

import "errors"

var (
	// ErrNoTerminal is returned when a channel is configured without a terminal.
	ErrNoTerminal = errors.New("se: no terminal configured")

	// ErrNotOpen is returned when transmitting on a channel that is not open.
	ErrNotOpen = errors.New("se: channel not open")

	// ErrAlreadyOpen is returned when opening a channel twice.
	ErrAlreadyOpen = errors.New("se: channel already open")

	// ErrInvalidChannel is returned when MANAGE CHANNEL assigns an unusable channel number.
	ErrInvalidChannel = errors.New("se: invalid logical channel number")

	// ErrResponseChainTooLong is returned when GET RESPONSE does not terminate.
	ErrResponseChainTooLong = errors.New("se: response chain too long")
)
