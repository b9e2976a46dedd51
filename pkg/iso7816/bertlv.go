package iso7816

import (
	"bytes"
	"fmt"
)

// Tag is a BER-TLV tag stored as its big-endian encoded octets, e.g. 0x71,
// 0xBF70 or 0x5F2D.
type Tag uint32

// Bytes returns the encoded tag octets (minimum width, at least one octet).
func (t Tag) Bytes() []byte {
	switch {
	case t <= 0xFF:
		return []byte{byte(t)}
	case t <= 0xFFFF:
		return []byte{byte(t >> 8), byte(t)}
	case t <= 0xFFFFFF:
		return []byte{byte(t >> 16), byte(t >> 8), byte(t)}
	default:
		return []byte{byte(t >> 24), byte(t >> 16), byte(t >> 8), byte(t)}
	}
}

// IsConstructed reports whether the first tag octet has the constructed bit set.
func (t Tag) IsConstructed() bool {
	return t.Bytes()[0]&0x20 != 0
}

// String returns the tag in hex.
func (t Tag) String() string {
	return fmt.Sprintf("%X", t.Bytes())
}

// Datum is a single BER-TLV data object.
type Datum struct {
	Tag   Tag
	Value []byte
}

// NewDatum creates a primitive data object.
func NewDatum(tag Tag, value []byte) Datum {
	return Datum{Tag: tag, Value: value}
}

// NewConstructed creates a data object whose value is the encoding of children.
func NewConstructed(tag Tag, children ...Datum) Datum {
	var buf bytes.Buffer
	for _, c := range children {
		buf.Write(c.Bytes())
	}
	return Datum{Tag: tag, Value: buf.Bytes()}
}

// Bytes encodes the data object.
func (d Datum) Bytes() []byte {
	tag := d.Tag.Bytes()
	length := encodeLength(len(d.Value))
	out := make([]byte, 0, len(tag)+len(length)+len(d.Value))
	out = append(out, tag...)
	out = append(out, length...)
	return append(out, d.Value...)
}

// Children parses the value of a constructed data object.
func (d Datum) Children() ([]Datum, error) {
	if !d.Tag.IsConstructed() {
		return nil, ErrNotConstructed
	}
	return ParseData(d.Value)
}

// String returns a compact representation.
func (d Datum) String() string {
	return fmt.Sprintf("%s[%d]%X", d.Tag, len(d.Value), d.Value)
}

// encodeLength returns the BER definite-length octets for n.
func encodeLength(n int) []byte {
	switch {
	case n < 0x80:
		return []byte{byte(n)}
	case n <= 0xFF:
		return []byte{0x81, byte(n)}
	case n <= 0xFFFF:
		return []byte{0x82, byte(n >> 8), byte(n)}
	default:
		return []byte{0x83, byte(n >> 16), byte(n >> 8), byte(n)}
	}
}

// ParseData decodes a sequence of data objects.
// Value slices alias b.
func ParseData(b []byte) ([]Datum, error) {
	var out []Datum
	for off := 0; off < len(b); {
		d, n, err := parseOne(b[off:])
		if err != nil {
			return nil, err
		}
		out = append(out, d)
		off += n
	}
	return out, nil
}

// ParseDatum decodes exactly one data object and rejects trailing bytes.
func ParseDatum(b []byte) (Datum, error) {
	d, n, err := parseOne(b)
	if err != nil {
		return Datum{}, err
	}
	if n != len(b) {
		return Datum{}, fmt.Errorf("%w: %d trailing bytes", ErrInvalidLength, len(b)-n)
	}
	return d, nil
}

func parseOne(b []byte) (Datum, int, error) {
	tag, off, err := parseTag(b)
	if err != nil {
		return Datum{}, 0, err
	}
	length, n, err := parseLength(b[off:])
	if err != nil {
		return Datum{}, 0, err
	}
	off += n
	if length > len(b)-off {
		return Datum{}, 0, ErrTruncatedTLV
	}
	return Datum{Tag: tag, Value: b[off : off+length]}, off + length, nil
}

func parseTag(b []byte) (Tag, int, error) {
	if len(b) == 0 {
		return 0, 0, ErrTruncatedTLV
	}
	t := Tag(b[0])
	if b[0]&0x1F != 0x1F {
		return t, 1, nil
	}
	for i := 1; i < len(b); i++ {
		if i > 3 {
			return 0, 0, ErrInvalidTag
		}
		t = t<<8 | Tag(b[i])
		if b[i]&0x80 == 0 {
			return t, i + 1, nil
		}
	}
	return 0, 0, ErrTruncatedTLV
}

func parseLength(b []byte) (int, int, error) {
	if len(b) == 0 {
		return 0, 0, ErrTruncatedTLV
	}
	first := b[0]
	if first < 0x80 {
		return int(first), 1, nil
	}
	n := int(first & 0x7F)
	if n == 0 || n > 3 {
		return 0, 0, ErrInvalidLength
	}
	if len(b) < 1+n {
		return 0, 0, ErrTruncatedTLV
	}
	length := 0
	for _, c := range b[1 : 1+n] {
		length = length<<8 | int(c)
	}
	return length, 1 + n, nil
}

// Find returns the first data object with the given tag.
func Find(objs []Datum, tag Tag) (Datum, bool) {
	for _, d := range objs {
		if d.Tag == tag {
			return d, true
		}
	}
	return Datum{}, false
}
