package tlv

import "errors"

var (
	// ErrMalformed is returned when a length octet runs past the end of the input.
	ErrMalformed = errors.New("tlv: malformed record")

	// ErrTagNotFound is returned by Buffer accessors when a tag was not present.
	// Callers use it to tell an unadvertised field from a decode failure.
	ErrTagNotFound = errors.New("tlv: tag not found")

	// ErrValueTooLong is returned when a value does not fit the one-octet length field.
	ErrValueTooLong = errors.New("tlv: value longer than 255 bytes")

	// ErrWrongLength is returned when a single-octet accessor is used on a longer value.
	ErrWrongLength = errors.New("tlv: unexpected value length")

	// ErrNoRecord is returned when accessing a record before calling Next().
	ErrNoRecord = errors.New("tlv: no current record")
)
