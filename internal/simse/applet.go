// Package simse simulates a secure element hosting the FiRa applet.
//
// An Applet answers raw APDUs as a se.Terminal, so it can sit behind a
// se.LogicalChannel in tests and demos. It supports logical channels, ADF
// selection and swap, PUT/GET DATA, and a secure channel handshake run
// through DISPATCH: the initiator applet sends a challenge, the responder
// answers with its own challenge and a cryptogram, and both derive the
// same session key with HKDF and confirm it with AES-CMAC cryptograms.
package simse

import (
	"bytes"
	"context"
	"crypto/rand"
	"io"

	"github.com/backkem/uwb/internal/syncutil"
	"github.com/backkem/uwb/pkg/csml"
	"github.com/backkem/uwb/pkg/iso7816"
	"github.com/pion/logging"
)

// Instructions used between two applets during the handshake.
const (
	INSGeneralAuthenticate  byte = 0x87
	INSExternalAuthenticate byte = 0x82
)

const (
	insManageChannel   byte = 0x70
	manageChannelOpen  byte = 0x00
	manageChannelClose byte = 0x80
)

// swChannelNotSupported is 6881, logical channel not supported.
const swChannelNotSupported iso7816.StatusWord = 0x6881

// Config configures an Applet.
type Config struct {
	// ADFs are resident before any swap-in.
	ADFs []ADF

	// Rand is the source of challenges. Default: crypto/rand.Reader.
	Rand io.Reader

	// MaxChannels is the highest logical channel number the applet
	// hands out. Default: iso7816.MaxBasicLogicalChannel.
	MaxChannels int

	// LoggerFactory is the factory for creating loggers.
	// If nil, logging is disabled.
	LoggerFactory logging.LoggerFactory
}

type phase uint8

const (
	phaseIdle phase = iota
	phaseAwaitSelectADF
	phaseAwaitChallenge
	phaseAwaitConfirm
	phaseADFSelected
	phaseAwaitAuthentication
	phaseEstablished
)

// initiating reports whether p expects responses from the peer.
func (p phase) initiating() bool {
	return p >= phaseAwaitSelectADF && p <= phaseAwaitConfirm
}

type channelState struct {
	appletSelected bool
	adf            *ADF
	swapped        []string
	phase          phase
	rI, rR         []byte
	keys           *sessionKeys
	tunnelPending  bool
}

// Applet is a simulated FiRa applet.
type Applet struct {
	config Config
	log    logging.LeveledLogger

	mu       syncutil.Mutex
	adfs     map[string]ADF
	channels map[int]*channelState
	data     map[iso7816.Tag][]byte
}

// New creates an applet with the configured resident ADFs.
func New(config Config) (*Applet, error) {
	if config.Rand == nil {
		config.Rand = rand.Reader
	}
	if config.MaxChannels <= 0 {
		config.MaxChannels = iso7816.MaxBasicLogicalChannel
	}

	a := &Applet{
		config:   config,
		adfs:     make(map[string]ADF),
		channels: map[int]*channelState{0: {}},
		data:     make(map[iso7816.Tag][]byte),
	}
	for _, adf := range config.ADFs {
		if err := adf.Validate(); err != nil {
			return nil, err
		}
		a.adfs[string(adf.OID)] = adf
	}
	if config.LoggerFactory != nil {
		a.log = config.LoggerFactory.NewLogger("simse")
	}
	return a, nil
}

// HasADF reports whether an ADF with the given identifier is present.
func (a *Applet) HasADF(oid csml.ObjectIdentifier) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.adfs[string(oid)]
	return ok
}

// OpenChannels returns the number of open logical channels, excluding the
// basic channel.
func (a *Applet) OpenChannels() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.channels) - 1
}

// Transmit implements se.Terminal.
func (a *Applet) Transmit(ctx context.Context, apdu []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cmd, err := iso7816.ParseCommandAPDU(apdu)
	if err != nil {
		return iso7816.NewResponse(nil, iso7816.SWWrongLength).Bytes(), nil
	}

	a.mu.Lock()
	resp := a.process(cmd)
	a.mu.Unlock()

	if a.log != nil {
		a.log.Tracef("%s -> %s", cmd, resp)
	}
	return resp.Bytes(), nil
}

// channelOf splits a class byte into channel number and base class.
func channelOf(cla byte) (int, byte) {
	if cla&0x40 != 0 {
		return 4 + int(cla&0x0F), cla & 0x80
	}
	return int(cla & iso7816.ChannelMask), cla &^ iso7816.ChannelMask
}

func status(sw iso7816.StatusWord) *iso7816.ResponseAPDU {
	return iso7816.NewResponse(nil, sw)
}

func (a *Applet) process(cmd *iso7816.CommandAPDU) *iso7816.ResponseAPDU {
	ch, cla := channelOf(cmd.CLA)
	if cla == csml.CLAInterindustry && cmd.INS == insManageChannel {
		return a.manageChannel(cmd)
	}

	cs, ok := a.channels[ch]
	if !ok {
		return status(swChannelNotSupported)
	}
	if cla == csml.CLAInterindustry && cmd.INS == csml.INSSelect {
		return a.selectApplet(cs, cmd)
	}
	if !cs.appletSelected {
		return status(iso7816.SWConditionsNotSatisfied)
	}

	switch cla {
	case csml.CLAInterindustry:
		switch cmd.INS {
		case csml.INSPutData:
			return a.putData(cmd)
		case csml.INSGetData:
			return a.getData(cmd)
		}
	case csml.CLAProprietary:
		switch cmd.INS {
		case csml.INSSelectADF:
			return a.selectADF(cs, cmd)
		case csml.INSSwapADF:
			return a.swapADF(cs, cmd)
		case csml.INSInitiateTransaction:
			return a.initiateTransaction(cs, cmd)
		case csml.INSDispatch:
			return a.dispatch(cs, cmd)
		case csml.INSTunnel:
			return a.tunnel(cs, cmd)
		}
	default:
		return status(iso7816.SWClaNotSupported)
	}
	return status(iso7816.SWInsNotSupported)
}

func (a *Applet) manageChannel(cmd *iso7816.CommandAPDU) *iso7816.ResponseAPDU {
	switch cmd.P1 {
	case manageChannelOpen:
		for n := 1; n <= a.config.MaxChannels; n++ {
			if _, used := a.channels[n]; !used {
				a.channels[n] = &channelState{}
				return iso7816.NewResponse([]byte{byte(n)}, iso7816.SWNoError)
			}
		}
		return status(iso7816.SWFunctionNotSupported)
	case manageChannelClose:
		n := int(cmd.P2)
		cs, ok := a.channels[n]
		if n == 0 || !ok {
			return status(iso7816.SWIncorrectP1P2)
		}
		for _, oid := range cs.swapped {
			delete(a.adfs, oid)
		}
		delete(a.channels, n)
		return iso7816.ResponseSuccess
	default:
		return status(iso7816.SWIncorrectP1P2)
	}
}

func (a *Applet) selectApplet(cs *channelState, cmd *iso7816.CommandAPDU) *iso7816.ResponseAPDU {
	if cmd.P1 != 0x04 || !bytes.Equal(cmd.Data, csml.FiRaAppletAID) {
		cs.appletSelected = false
		return status(iso7816.SWFileNotFound)
	}
	swapped := cs.swapped
	*cs = channelState{appletSelected: true, swapped: swapped}
	fci := iso7816.NewConstructed(0x6F, iso7816.NewDatum(0x84, csml.FiRaAppletAID))
	return iso7816.NewResponse(fci.Bytes(), iso7816.SWNoError)
}

func (a *Applet) selectADF(cs *channelState, cmd *iso7816.CommandAPDU) *iso7816.ResponseAPDU {
	oid, err := csml.ParseObjectIdentifier(cmd.Data)
	if err != nil {
		return status(iso7816.SWWrongData)
	}
	adf, ok := a.adfs[string(oid)]
	if !ok {
		return status(iso7816.SWFileNotFound)
	}
	cs.adf = &adf
	cs.phase = phaseIdle
	cs.keys = nil
	return iso7816.NewResponse(oid.Datum().Bytes(), iso7816.SWNoError)
}

func (a *Applet) swapADF(cs *channelState, cmd *iso7816.CommandAPDU) *iso7816.ResponseAPDU {
	switch cmd.P1 {
	case csml.SwapADFIn:
		objs, err := iso7816.ParseData(cmd.Data)
		if err != nil {
			return status(iso7816.SWWrongData)
		}
		blob, ok := iso7816.Find(objs, csml.TagSecureBlob)
		if !ok {
			return status(iso7816.SWWrongData)
		}
		adf, err := ParseSecureBlob(blob.Value)
		if err != nil {
			if a.log != nil {
				a.log.Warnf("swap in rejected: %v", err)
			}
			return status(iso7816.SWWrongData)
		}
		if info, ok := iso7816.Find(objs, csml.TagControleeInfo); ok {
			if _, err := csml.ParseControleeInfo(info.Bytes()); err != nil {
				return status(iso7816.SWWrongData)
			}
		}
		key := string(adf.OID)
		if _, exists := a.adfs[key]; exists {
			return status(iso7816.SWConditionsNotSatisfied)
		}
		a.adfs[key] = adf
		cs.swapped = append(cs.swapped, key)
		return iso7816.NewResponse(adf.OID.Datum().Bytes(), iso7816.SWNoError)

	case csml.SwapADFOut:
		oid, err := csml.ParseObjectIdentifier(cmd.Data)
		if err != nil {
			return status(iso7816.SWWrongData)
		}
		key := string(oid)
		for i, s := range cs.swapped {
			if s != key {
				continue
			}
			cs.swapped = append(cs.swapped[:i], cs.swapped[i+1:]...)
			delete(a.adfs, key)
			if cs.adf != nil && cs.adf.OID.Equal(oid) {
				cs.adf = nil
				cs.phase = phaseIdle
			}
			return iso7816.ResponseSuccess
		}
		return status(iso7816.SWReferencedDataNotFound)

	default:
		return status(iso7816.SWIncorrectP1P2)
	}
}

func (a *Applet) putData(cmd *iso7816.CommandAPDU) *iso7816.ResponseAPDU {
	d, err := iso7816.ParseDatum(cmd.Data)
	if err != nil {
		return status(iso7816.SWWrongData)
	}
	a.data[d.Tag] = d.Value
	return iso7816.ResponseSuccess
}

func (a *Applet) getData(cmd *iso7816.CommandAPDU) *iso7816.ResponseAPDU {
	d, err := iso7816.ParseDatum(cmd.Data)
	if err != nil || d.Tag != csml.TagTagList || len(d.Value) == 0 {
		return status(iso7816.SWWrongData)
	}
	var tag iso7816.Tag
	for _, b := range d.Value {
		tag = tag<<8 | iso7816.Tag(b)
	}
	value, ok := a.data[tag]
	if !ok {
		return status(iso7816.SWReferencedDataNotFound)
	}
	return iso7816.NewResponse(iso7816.NewDatum(tag, value).Bytes(), iso7816.SWNoError)
}
