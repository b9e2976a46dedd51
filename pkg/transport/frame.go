package transport

import (
	"encoding/binary"
	"io"
)

// LengthPrefixSize is the size of the stream framing length prefix.
const LengthPrefixSize = 4

// streamWriter adds a 4-byte little-endian length prefix to each message.
type streamWriter struct {
	w io.Writer
}

func (sw *streamWriter) write(msg []byte) error {
	buf := make([]byte, LengthPrefixSize+len(msg))
	binary.LittleEndian.PutUint32(buf[:LengthPrefixSize], uint32(len(msg)))
	copy(buf[LengthPrefixSize:], msg)
	_, err := sw.w.Write(buf)
	return err
}

// streamReader reads length-prefixed messages.
type streamReader struct {
	r   io.Reader
	max int
}

func (sr *streamReader) read() ([]byte, error) {
	var lenBuf [LengthPrefixSize]byte
	if _, err := io.ReadFull(sr.r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.LittleEndian.Uint32(lenBuf[:])
	if n == 0 {
		return nil, ErrEmptyMessage
	}
	if int64(n) > int64(sr.max) {
		return nil, ErrMessageTooLarge
	}
	msg := make([]byte, n)
	if _, err := io.ReadFull(sr.r, msg); err != nil {
		return nil, err
	}
	return msg, nil
}
