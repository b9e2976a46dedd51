package iso7816

import (
	"bytes"
	"errors"
	"testing"
)

func TestParseResponseAPDU(t *testing.T) {
	r, err := ParseResponseAPDU([]byte{0x01, 0x02, 0x90, 0x00})
	if err != nil {
		t.Fatalf("ParseResponseAPDU error: %v", err)
	}
	if !bytes.Equal(r.Data, []byte{0x01, 0x02}) {
		t.Errorf("Data = %X", r.Data)
	}
	if !r.IsSuccess() || r.Err() != nil {
		t.Errorf("SW = %s, want success", r.SW)
	}
	if !bytes.Equal(r.Bytes(), []byte{0x01, 0x02, 0x90, 0x00}) {
		t.Errorf("Bytes() = %X", r.Bytes())
	}
}

func TestParseResponseAPDU_StatusOnly(t *testing.T) {
	r, err := ParseResponseAPDU([]byte{0x6A, 0x82})
	if err != nil {
		t.Fatalf("ParseResponseAPDU error: %v", err)
	}
	if len(r.Data) != 0 {
		t.Errorf("Data = %X, want empty", r.Data)
	}
	if r.SW != SWFileNotFound {
		t.Errorf("SW = %s, want FileNotFound", r.SW)
	}
	var sw StatusWord
	if !errors.As(r.Err(), &sw) || sw != SWFileNotFound {
		t.Errorf("Err() = %v, want StatusWord 6A82", r.Err())
	}
}

func TestParseResponseAPDU_TooShort(t *testing.T) {
	if _, err := ParseResponseAPDU([]byte{0x90}); err != ErrResponseTooShort {
		t.Errorf("err = %v, want ErrResponseTooShort", err)
	}
}

func TestStatusWord_String(t *testing.T) {
	testCases := []struct {
		sw   StatusWord
		want string
	}{
		{SWNoError, "NoError"},
		{SWFileNotFound, "FileNotFound"},
		{SWConditionsNotSatisfied, "ConditionsNotSatisfied"},
		{0x6110, "BytesRemaining(16)"},
		{0x6C20, "WrongLe(32)"},
		{0x6400, "0x6400"},
	}
	for _, tc := range testCases {
		if got := tc.sw.String(); got != tc.want {
			t.Errorf("%04X.String() = %q, want %q", uint16(tc.sw), got, tc.want)
		}
	}
}

func TestStatusWord_Classes(t *testing.T) {
	if !StatusWord(0x6105).HasMoreData() {
		t.Error("0x6105 HasMoreData() = false")
	}
	if !StatusWord(0x6C05).IsWrongLe() {
		t.Error("0x6C05 IsWrongLe() = false")
	}
	if SWNoError.HasMoreData() || SWNoError.IsWrongLe() || !SWNoError.IsSuccess() {
		t.Error("0x9000 classified incorrectly")
	}
}
