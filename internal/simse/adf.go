package simse

import (
	"fmt"

	"github.com/backkem/uwb/pkg/csml"
	"github.com/backkem/uwb/pkg/iso7816"
)

// TagBlobKey carries the ADF base key inside a secure blob.
const TagBlobKey iso7816.Tag = 0xC3

// ADF is an application dedicated file: an object identifier and the base
// key shared with the peer's ADF of the same identifier.
type ADF struct {
	OID csml.ObjectIdentifier
	Key []byte
}

// Validate checks the ADF.
func (a ADF) Validate() error {
	if len(a.OID) == 0 {
		return csml.ErrEmptyObjectIdentifier
	}
	if len(a.Key) != KeySize {
		return ErrInvalidKey
	}
	return nil
}

// SecureBlob encodes a as a swap-in payload.
func SecureBlob(a ADF) []byte {
	out := a.OID.Datum().Bytes()
	return append(out, iso7816.NewDatum(TagBlobKey, a.Key).Bytes()...)
}

// ParseSecureBlob decodes a swap-in payload.
func ParseSecureBlob(b []byte) (ADF, error) {
	objs, err := iso7816.ParseData(b)
	if err != nil {
		return ADF{}, fmt.Errorf("%w: %w", ErrInvalidSecureBlob, err)
	}
	oid, ok := iso7816.Find(objs, csml.TagOID)
	if !ok {
		return ADF{}, fmt.Errorf("%w: no object identifier", ErrInvalidSecureBlob)
	}
	key, ok := iso7816.Find(objs, TagBlobKey)
	if !ok {
		return ADF{}, fmt.Errorf("%w: no key", ErrInvalidSecureBlob)
	}
	adf := ADF{OID: csml.ObjectIdentifier(oid.Value), Key: key.Value}
	if err := adf.Validate(); err != nil {
		return ADF{}, fmt.Errorf("%w: %w", ErrInvalidSecureBlob, err)
	}
	return adf, nil
}
