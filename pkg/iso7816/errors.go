package iso7816

import "errors"

var (
	// ErrCommandTooShort is returned when a command APDU has fewer than four header bytes.
	ErrCommandTooShort = errors.New("iso7816: command APDU too short")

	// ErrResponseTooShort is returned when a response APDU has no status word.
	ErrResponseTooShort = errors.New("iso7816: response APDU too short")

	// ErrInvalidLength is returned when Lc/Le fields do not match the APDU size.
	ErrInvalidLength = errors.New("iso7816: invalid APDU length field")

	// ErrDataTooLong is returned when command data exceeds the extended APDU limit.
	ErrDataTooLong = errors.New("iso7816: command data too long")

	// ErrTruncatedTLV is returned when a BER-TLV data object runs past its buffer.
	ErrTruncatedTLV = errors.New("iso7816: truncated BER-TLV data object")

	// ErrInvalidTag is returned for tags that cannot be encoded or decoded.
	ErrInvalidTag = errors.New("iso7816: invalid BER-TLV tag")

	// ErrNotConstructed is returned when children are requested from a primitive object.
	ErrNotConstructed = errors.New("iso7816: data object is not constructed")
)
