package iso7816

import "fmt"

// StatusWord is the SW1-SW2 trailer of a response APDU.
type StatusWord uint16

// Status words named by the FiRa secure channel. Anything else is an
// opaque failure.
const (
	SWNoError                StatusWord = 0x9000
	SWBytesRemaining         StatusWord = 0x6100 // low byte: bytes still available
	SWEndOfFile              StatusWord = 0x6282
	SWWrongLength            StatusWord = 0x6700
	SWSecurityNotSatisfied   StatusWord = 0x6982
	SWConditionsNotSatisfied StatusWord = 0x6985
	SWWrongData              StatusWord = 0x6A80
	SWFunctionNotSupported   StatusWord = 0x6A81
	SWFileNotFound           StatusWord = 0x6A82
	SWIncorrectP1P2          StatusWord = 0x6A86
	SWReferencedDataNotFound StatusWord = 0x6A88
	SWWrongLe                StatusWord = 0x6C00 // low byte: exact length
	SWInsNotSupported        StatusWord = 0x6D00
	SWClaNotSupported        StatusWord = 0x6E00
	SWUnknown                StatusWord = 0x6F00
)

// SW1 returns the high byte.
func (s StatusWord) SW1() byte { return byte(s >> 8) }

// SW2 returns the low byte.
func (s StatusWord) SW2() byte { return byte(s) }

// IsSuccess reports whether s is 0x9000.
func (s StatusWord) IsSuccess() bool { return s == SWNoError }

// HasMoreData reports whether s is 61XX.
func (s StatusWord) HasMoreData() bool { return s.SW1() == 0x61 }

// IsWrongLe reports whether s is 6CXX.
func (s StatusWord) IsWrongLe() bool { return s.SW1() == 0x6C }

// String returns the name of the status word when known.
func (s StatusWord) String() string {
	switch {
	case s.HasMoreData():
		return fmt.Sprintf("BytesRemaining(%d)", s.SW2())
	case s.IsWrongLe():
		return fmt.Sprintf("WrongLe(%d)", s.SW2())
	}
	switch s {
	case SWNoError:
		return "NoError"
	case SWEndOfFile:
		return "EndOfFile"
	case SWWrongLength:
		return "WrongLength"
	case SWSecurityNotSatisfied:
		return "SecurityNotSatisfied"
	case SWConditionsNotSatisfied:
		return "ConditionsNotSatisfied"
	case SWWrongData:
		return "WrongData"
	case SWFunctionNotSupported:
		return "FunctionNotSupported"
	case SWFileNotFound:
		return "FileNotFound"
	case SWIncorrectP1P2:
		return "IncorrectP1P2"
	case SWReferencedDataNotFound:
		return "ReferencedDataNotFound"
	case SWInsNotSupported:
		return "InsNotSupported"
	case SWClaNotSupported:
		return "ClaNotSupported"
	case SWUnknown:
		return "Unknown"
	default:
		return fmt.Sprintf("0x%04X", uint16(s))
	}
}

// Error implements the error interface so a failing status word can be
// returned directly.
func (s StatusWord) Error() string {
	return "iso7816: status " + s.String()
}
