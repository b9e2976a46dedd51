package simse

import "errors"

var (
	// ErrInvalidSecureBlob is returned when a swap-in secure blob cannot be decoded.
	ErrInvalidSecureBlob = errors.New("simse: invalid secure blob")

	// ErrInvalidKey is returned for an ADF key that is not an AES-128 key.
	ErrInvalidKey = errors.New("simse: ADF key must be 16 bytes")

	// ErrInvalidRDS is returned when a ranging data set cannot be decoded.
	ErrInvalidRDS = errors.New("simse: invalid ranging data set")
)
