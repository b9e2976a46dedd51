package tlv

// Buffer is a decoded set of records indexed by tag.
type Buffer struct {
	records []Record
	index   map[uint8]int
}

// Decode parses data into a Buffer.
//
// Scanning stops after maxRecords records or at the end of input, whichever
// comes first; a non-positive maxRecords means no limit. Trailing bytes after
// the limit are ignored. A length octet that would read past the end of data
// fails the whole decode with ErrMalformed.
//
// If a tag appears more than once, the first occurrence is kept.
func Decode(data []byte, maxRecords int) (*Buffer, error) {
	b := &Buffer{index: make(map[uint8]int)}
	r := NewReader(data)
	for maxRecords <= 0 || len(b.records) < maxRecords {
		ok, err := r.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		value, _ := r.Value()
		b.records = append(b.records, Record{Tag: r.Tag(), Value: value})
		if _, dup := b.index[r.Tag()]; !dup {
			b.index[r.Tag()] = len(b.records) - 1
		}
	}
	return b, nil
}

// Len returns the number of decoded records.
func (b *Buffer) Len() int {
	return len(b.records)
}

// Records returns the decoded records in wire order.
func (b *Buffer) Records() []Record {
	return b.records
}

// Has reports whether tag is present.
func (b *Buffer) Has(tag uint8) bool {
	_, ok := b.index[tag]
	return ok
}

// Bytes returns the value stored under tag.
func (b *Buffer) Bytes(tag uint8) ([]byte, error) {
	i, ok := b.index[tag]
	if !ok {
		return nil, ErrTagNotFound
	}
	return b.records[i].Value, nil
}

// Byte returns the single-octet value stored under tag.
func (b *Buffer) Byte(tag uint8) (byte, error) {
	v, err := b.Bytes(tag)
	if err != nil {
		return 0, err
	}
	if len(v) != 1 {
		return 0, ErrWrongLength
	}
	return v[0], nil
}
