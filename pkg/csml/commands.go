// Package csml builds and parses the FiRa secure-element command set used
// to set up a secure ranging session: applet and ADF selection, ADF
// provisioning, command dispatch between peers, and the notifications the
// applet raises along the way.
package csml

import (
	"github.com/backkem/uwb/pkg/iso7816"
)

// FiRaAppletAID is the application identifier of the FiRa applet.
var FiRaAppletAID = []byte{0xA0, 0x00, 0x00, 0x08, 0x67, 0x46, 0x41, 0x50}

// Class bytes.
const (
	CLAInterindustry byte = 0x00
	CLAProprietary   byte = 0x80
)

// Instruction bytes.
const (
	INSSelect              byte = 0xA4
	INSSelectADF           byte = 0xA5
	INSSwapADF             byte = 0x40
	INSDispatch            byte = 0xC2
	INSTunnel              byte = 0x14
	INSInitiateTransaction byte = 0x12
	INSPutData             byte = 0xDB
	INSGetData             byte = 0xCB
)

// Data object tags.
const (
	TagOID               iso7816.Tag = 0x06
	TagTagList           iso7816.Tag = 0x5C
	TagProprietary       iso7816.Tag = 0x71
	TagDispatchStatus    iso7816.Tag = 0x80
	TagDispatchData      iso7816.Tag = 0x81
	TagNotification      iso7816.Tag = 0xE1
	TagNotificationFmt   iso7816.Tag = 0x80
	TagNotificationEvent iso7816.Tag = 0x81
	TagNotificationData  iso7816.Tag = 0x82
	TagSecureBlob        iso7816.Tag = 0xCF
	TagControleeInfo     iso7816.Tag = 0xBF70
	TagControleeVersion  iso7816.Tag = 0x80
	TagControleeCaps     iso7816.Tag = 0xA3
)

// SWAP ADF operations carried in P1.
const (
	SwapADFIn  byte = 0x00
	SwapADFOut byte = 0x01
)

// INITIATE TRANSACTION session kinds carried in P1.
const (
	TransactionUnicast   byte = 0x00
	TransactionMulticast byte = 0x01
)

func command(cla, ins, p1, p2 byte, data []byte) *iso7816.CommandAPDU {
	return &iso7816.CommandAPDU{
		CLA:  cla,
		INS:  ins,
		P1:   p1,
		P2:   p2,
		Data: data,
		Ne:   iso7816.MaxShortNe,
	}
}

// SelectCommand selects the FiRa applet.
func SelectCommand() *iso7816.CommandAPDU {
	return command(CLAInterindustry, INSSelect, 0x04, 0x00, append([]byte(nil), FiRaAppletAID...))
}

// SelectADFCommand selects the ADF identified by oid.
func SelectADFCommand(oid ObjectIdentifier) *iso7816.CommandAPDU {
	return command(CLAProprietary, INSSelectADF, 0x04, 0x00, oid.Datum().Bytes())
}

// SwapInADFCommand provisions a temporary ADF from a secure blob.
// controleeInfo may be nil.
func SwapInADFCommand(secureBlob []byte, controleeInfo *ControleeInfo) *iso7816.CommandAPDU {
	data := iso7816.NewDatum(TagSecureBlob, secureBlob).Bytes()
	if controleeInfo != nil {
		data = append(data, controleeInfo.Bytes()...)
	}
	return command(CLAProprietary, INSSwapADF, SwapADFIn, 0x00, data)
}

// SwapOutADFCommand removes a previously swapped-in ADF.
func SwapOutADFCommand(oid ObjectIdentifier) *iso7816.CommandAPDU {
	return command(CLAProprietary, INSSwapADF, SwapADFOut, 0x00, oid.Datum().Bytes())
}

// DispatchCommand wraps an APDU received from the peer for the applet.
func DispatchCommand(payload []byte) *iso7816.CommandAPDU {
	d := iso7816.NewConstructed(TagProprietary, iso7816.NewDatum(TagDispatchData, payload))
	return command(CLAProprietary, INSDispatch, 0x00, 0x00, d.Bytes())
}

// TunnelCommand asks the applet to wrap host data for the peer.
func TunnelCommand(data []byte) *iso7816.CommandAPDU {
	return command(CLAProprietary, INSTunnel, 0x00, 0x00, data)
}

// InitiateTransactionCommand starts the secure channel towards the peer for
// the ADF identified by oid.
func InitiateTransactionCommand(oid ObjectIdentifier, multicast bool) *iso7816.CommandAPDU {
	p1 := TransactionUnicast
	if multicast {
		p1 = TransactionMulticast
	}
	return command(CLAProprietary, INSInitiateTransaction, p1, 0x00, oid.Datum().Bytes())
}

// PutDataCommand stores a data object in the selected ADF.
func PutDataCommand(d iso7816.Datum) *iso7816.CommandAPDU {
	return command(CLAInterindustry, INSPutData, 0x3F, 0xFF, d.Bytes())
}

// GetDataCommand reads the data object tagged tag from the selected ADF.
func GetDataCommand(tag iso7816.Tag) *iso7816.CommandAPDU {
	return command(CLAInterindustry, INSGetData, 0x3F, 0xFF, iso7816.NewDatum(TagTagList, tag.Bytes()).Bytes())
}

// IsSelect reports whether cmd is a SELECT by name.
func IsSelect(cmd *iso7816.CommandAPDU) bool {
	return cmd.Is(CLAInterindustry, INSSelect) && cmd.P1 == 0x04
}

// IsSelectADF reports whether cmd is a SELECT ADF.
func IsSelectADF(cmd *iso7816.CommandAPDU) bool {
	return cmd.Is(CLAProprietary, INSSelectADF)
}
