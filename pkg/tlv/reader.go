package tlv

// Reader iterates over the records of an encoded buffer.
// It never reads outside of the supplied slice.
type Reader struct {
	data []byte
	off  int

	hasRecord bool
	tag       uint8
	value     []byte
}

// NewReader creates a Reader over data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Next advances to the next record.
// Returns false at the end of input. A truncated header or a length that
// runs past the end of the buffer yields ErrMalformed.
func (r *Reader) Next() (bool, error) {
	r.hasRecord = false
	if r.off >= len(r.data) {
		return false, nil
	}
	if len(r.data)-r.off < 2 {
		return false, ErrMalformed
	}

	tag := r.data[r.off]
	length := int(r.data[r.off+1])
	start := r.off + 2
	if length > len(r.data)-start {
		return false, ErrMalformed
	}

	r.tag = tag
	r.value = r.data[start : start+length]
	r.off = start + length
	r.hasRecord = true
	return true, nil
}

// Tag returns the tag of the current record.
func (r *Reader) Tag() uint8 {
	return r.tag
}

// Value returns the value of the current record.
// The slice aliases the input buffer.
func (r *Reader) Value() ([]byte, error) {
	if !r.hasRecord {
		return nil, ErrNoRecord
	}
	return r.value, nil
}

// Offset returns the number of bytes consumed so far.
func (r *Reader) Offset() int {
	return r.off
}
