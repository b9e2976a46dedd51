package tlv

// Writer accumulates TLV records into a flat buffer in insertion order.
type Writer struct {
	buf []byte
}

// NewWriter creates a Writer with the given initial capacity.
func NewWriter(capacity int) *Writer {
	return &Writer{buf: make([]byte, 0, capacity)}
}

// PutByte appends a record with a single-octet value.
func (w *Writer) PutByte(tag uint8, v byte) error {
	w.buf = append(w.buf, tag, 1, v)
	return nil
}

// PutBool appends a record with value 0x01 for true and 0x00 for false.
func (w *Writer) PutBool(tag uint8, v bool) error {
	var b byte
	if v {
		b = 1
	}
	return w.PutByte(tag, b)
}

// PutBytes appends a record carrying v.
// Values longer than MaxValueLength are rejected and nothing is written.
func (w *Writer) PutBytes(tag uint8, v []byte) error {
	if len(v) > MaxValueLength {
		return ErrValueTooLong
	}
	w.buf = append(w.buf, tag, byte(len(v)))
	w.buf = append(w.buf, v...)
	return nil
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int {
	return len(w.buf)
}

// Bytes returns the encoded buffer. The caller must not modify it while
// continuing to write.
func (w *Writer) Bytes() []byte {
	return w.buf
}
