// Package iso7816 implements the ISO/IEC 7816-4 building blocks used to talk
// to a secure element: command and response APDUs, status words and BER-TLV
// data objects.
package iso7816

import (
	"encoding/binary"
	"fmt"
)

// Maximum data and expected-response sizes for short and extended APDUs.
const (
	MaxShortLc    = 255
	MaxShortNe    = 256
	MaxExtendedLc = 65535
	MaxExtendedNe = 65536
)

// CommandAPDU is a command sent to a card or to a remote peer.
//
// Ne is the maximum number of response bytes expected; 0 means the Le field
// is absent. Ne of 256 (short) or 65536 (extended) is encoded as zero octets.
type CommandAPDU struct {
	CLA  byte
	INS  byte
	P1   byte
	P2   byte
	Data []byte
	Ne   int
}

// NewCommand creates a command with no data and no Le field.
func NewCommand(cla, ins, p1, p2 byte) *CommandAPDU {
	return &CommandAPDU{CLA: cla, INS: ins, P1: p1, P2: p2}
}

// isExtended reports whether the command needs the extended length encoding.
func (c *CommandAPDU) isExtended() bool {
	return len(c.Data) > MaxShortLc || c.Ne > MaxShortNe
}

// Bytes encodes the command, choosing short encoding when possible.
func (c *CommandAPDU) Bytes() ([]byte, error) {
	if len(c.Data) > MaxExtendedLc {
		return nil, ErrDataTooLong
	}
	if c.Ne < 0 || c.Ne > MaxExtendedNe {
		return nil, ErrInvalidLength
	}

	buf := make([]byte, 0, 4+3+len(c.Data)+3)
	buf = append(buf, c.CLA, c.INS, c.P1, c.P2)

	if !c.isExtended() {
		if len(c.Data) > 0 {
			buf = append(buf, byte(len(c.Data)))
			buf = append(buf, c.Data...)
		}
		if c.Ne > 0 {
			buf = append(buf, byte(c.Ne)) // 256 wraps to 0x00
		}
		return buf, nil
	}

	var lenBuf [2]byte
	buf = append(buf, 0x00)
	if len(c.Data) > 0 {
		binary.BigEndian.PutUint16(lenBuf[:], uint16(len(c.Data)))
		buf = append(buf, lenBuf[:]...)
		buf = append(buf, c.Data...)
	}
	if c.Ne > 0 {
		binary.BigEndian.PutUint16(lenBuf[:], uint16(c.Ne)) // 65536 wraps to 0x0000
		buf = append(buf, lenBuf[:]...)
	}
	return buf, nil
}

// MustBytes is like Bytes but panics on error. It is meant for commands
// built from constants.
func (c *CommandAPDU) MustBytes() []byte {
	b, err := c.Bytes()
	if err != nil {
		panic(err)
	}
	return b
}

// ParseCommandAPDU decodes a command APDU in any of the four ISO cases,
// short or extended.
func ParseCommandAPDU(b []byte) (*CommandAPDU, error) {
	if len(b) < 4 {
		return nil, ErrCommandTooShort
	}
	c := &CommandAPDU{CLA: b[0], INS: b[1], P1: b[2], P2: b[3]}
	body := b[4:]

	switch {
	case len(body) == 0:
		// Case 1
		return c, nil

	case len(body) == 1:
		// Case 2 short
		c.Ne = shortNe(body[0])
		return c, nil

	case body[0] != 0x00 || len(body) < 3:
		// Short case 3 or 4
		lc := int(body[0])
		switch {
		case len(body) == 1+lc:
			c.Data = copyBytes(body[1:])
		case len(body) == 2+lc:
			c.Data = copyBytes(body[1 : 1+lc])
			c.Ne = shortNe(body[1+lc])
		default:
			return nil, ErrInvalidLength
		}
		return c, nil

	case len(body) == 3:
		// Case 2 extended
		c.Ne = extendedNe(binary.BigEndian.Uint16(body[1:3]))
		return c, nil

	default:
		// Extended case 3 or 4
		lc := int(binary.BigEndian.Uint16(body[1:3]))
		if lc == 0 {
			return nil, ErrInvalidLength
		}
		switch {
		case len(body) == 3+lc:
			c.Data = copyBytes(body[3:])
		case len(body) == 5+lc:
			c.Data = copyBytes(body[3 : 3+lc])
			c.Ne = extendedNe(binary.BigEndian.Uint16(body[3+lc:]))
		default:
			return nil, ErrInvalidLength
		}
		return c, nil
	}
}

// String returns a compact hex representation of the header.
func (c *CommandAPDU) String() string {
	return fmt.Sprintf("CommandAPDU{%02X %02X %02X %02X, Lc=%d, Ne=%d}",
		c.CLA, c.INS, c.P1, c.P2, len(c.Data), c.Ne)
}

// Is reports whether the command matches the given CLA/INS pair, ignoring
// the logical channel bits of the class byte.
func (c *CommandAPDU) Is(cla, ins byte) bool {
	return c.CLA&^ChannelMask == cla&^ChannelMask && c.INS == ins
}

func shortNe(le byte) int {
	if le == 0 {
		return MaxShortNe
	}
	return int(le)
}

func extendedNe(le uint16) int {
	if le == 0 {
		return MaxExtendedNe
	}
	return int(le)
}

func copyBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
