// Package tlv implements the flat tag-length-value encoding used for UWB
// capability advertisements.
//
// Each record is encoded as a one-octet tag, a one-octet length and the
// value bytes. Records are not nested.
//
//	tag(1) | length(1) | value(length)
package tlv

// MaxValueLength is the largest value the one-octet length field can carry.
const MaxValueLength = 0xFF

// Record is a single tag-length-value entry.
type Record struct {
	Tag   uint8
	Value []byte
}

// EncodedLen returns the number of bytes the record occupies on the wire.
func (r Record) EncodedLen() int {
	return 2 + len(r.Value)
}

// Encode serializes records in order.
func Encode(records ...Record) ([]byte, error) {
	size := 0
	for _, rec := range records {
		size += rec.EncodedLen()
	}
	w := NewWriter(size)
	for _, rec := range records {
		if err := w.PutBytes(rec.Tag, rec.Value); err != nil {
			return nil, err
		}
	}
	return w.Bytes(), nil
}
