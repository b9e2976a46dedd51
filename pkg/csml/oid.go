package csml

import (
	"bytes"
	"fmt"

	"github.com/backkem/uwb/pkg/iso7816"
)

// ObjectIdentifier names an ADF on the secure element. It holds the content
// octets of the BER object identifier.
type ObjectIdentifier []byte

// ParseObjectIdentifier decodes an OID data object (tag 06).
func ParseObjectIdentifier(b []byte) (ObjectIdentifier, error) {
	d, err := iso7816.ParseDatum(b)
	if err != nil {
		return nil, err
	}
	if d.Tag != TagOID {
		return nil, fmt.Errorf("%w: tag %s", iso7816.ErrInvalidTag, d.Tag)
	}
	if len(d.Value) == 0 {
		return nil, ErrEmptyObjectIdentifier
	}
	return ObjectIdentifier(d.Value), nil
}

// Datum returns the OID as a tag 06 data object.
func (o ObjectIdentifier) Datum() iso7816.Datum {
	return iso7816.NewDatum(TagOID, []byte(o))
}

// Equal reports whether o and other name the same ADF.
func (o ObjectIdentifier) Equal(other ObjectIdentifier) bool {
	return bytes.Equal(o, other)
}

// String returns the OID octets in hex.
func (o ObjectIdentifier) String() string {
	return fmt.Sprintf("%X", []byte(o))
}
