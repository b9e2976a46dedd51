package iso7816

import "fmt"

// ResponseAPDU is the card's answer to a command: optional data followed by
// a two-byte status word.
type ResponseAPDU struct {
	Data []byte
	SW   StatusWord
}

// NewResponse creates a response with the given data and status word.
func NewResponse(data []byte, sw StatusWord) *ResponseAPDU {
	return &ResponseAPDU{Data: data, SW: sw}
}

// Canned responses used by channel and state machine code.
var (
	ResponseSuccess                = &ResponseAPDU{SW: SWNoError}
	ResponseFileNotFound           = &ResponseAPDU{SW: SWFileNotFound}
	ResponseConditionsNotSatisfied = &ResponseAPDU{SW: SWConditionsNotSatisfied}
	ResponseUnknownError           = &ResponseAPDU{SW: SWUnknown}
)

// ParseResponseAPDU splits raw bytes into data and status word.
func ParseResponseAPDU(b []byte) (*ResponseAPDU, error) {
	if len(b) < 2 {
		return nil, ErrResponseTooShort
	}
	n := len(b) - 2
	return &ResponseAPDU{
		Data: copyBytes(b[:n]),
		SW:   StatusWord(uint16(b[n])<<8 | uint16(b[n+1])),
	}, nil
}

// Bytes encodes the response.
func (r *ResponseAPDU) Bytes() []byte {
	out := make([]byte, 0, len(r.Data)+2)
	out = append(out, r.Data...)
	return append(out, r.SW.SW1(), r.SW.SW2())
}

// IsSuccess reports whether the status word is 0x9000.
func (r *ResponseAPDU) IsSuccess() bool {
	return r.SW == SWNoError
}

// Err returns nil on success or the status word as an error.
func (r *ResponseAPDU) Err() error {
	if r.IsSuccess() {
		return nil
	}
	return r.SW
}

// String returns a human-readable representation.
func (r *ResponseAPDU) String() string {
	return fmt.Sprintf("ResponseAPDU{len=%d, SW=%s}", len(r.Data), r.SW)
}
