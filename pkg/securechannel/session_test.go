package securechannel

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"sync"
	"testing"

	"github.com/backkem/uwb/pkg/capability"
	"github.com/backkem/uwb/pkg/csml"
	"github.com/backkem/uwb/pkg/iso7816"
	"github.com/pion/logging"
)

var provisionedOID = csml.ObjectIdentifier{0x01}

// fakeChannel is a se.Channel whose answers are set by the test.
type fakeChannel struct {
	mu       sync.Mutex
	openResp *iso7816.ResponseAPDU
	openErr  error
	transmit func(cmd *iso7816.CommandAPDU) (*iso7816.ResponseAPDU, error)
	sent     []*iso7816.CommandAPDU
	open     bool
	closes   int
}

func (c *fakeChannel) Open(context.Context) (*iso7816.ResponseAPDU, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.openErr != nil {
		return nil, c.openErr
	}
	resp := c.openResp
	if resp == nil {
		resp = iso7816.ResponseSuccess
	}
	c.open = resp.IsSuccess()
	return resp, nil
}

func (c *fakeChannel) Transmit(_ context.Context, cmd *iso7816.CommandAPDU) (*iso7816.ResponseAPDU, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, cmd)
	if c.transmit == nil {
		return iso7816.ResponseSuccess, nil
	}
	return c.transmit(cmd)
}

func (c *fakeChannel) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

func (c *fakeChannel) Close(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.open {
		c.closes++
	}
	c.open = false
	return nil
}

func (c *fakeChannel) setTransmit(f func(cmd *iso7816.CommandAPDU) (*iso7816.ResponseAPDU, error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transmit = f
}

func (c *fakeChannel) commands() []*iso7816.CommandAPDU {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*iso7816.CommandAPDU(nil), c.sent...)
}

func (c *fakeChannel) closeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closes
}

// recordingTransport records messages sent to the peer.
type recordingTransport struct {
	mu   sync.Mutex
	sent [][]byte
}

func (r *recordingTransport) Send(data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, append([]byte(nil), data...))
	return nil
}

func (r *recordingTransport) messages() [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]byte(nil), r.sent...)
}

// events records callback invocations.
type events struct {
	mu          sync.Mutex
	setupErrors []SetupError
	established int
	rds         [][]byte
	aborted     int
	controlees  []*csml.ControleeInfo
	statuses    []Status
}

func (e *events) callbacks() Callbacks {
	return Callbacks{
		OnSetupError: func(err SetupError) {
			e.mu.Lock()
			e.setupErrors = append(e.setupErrors, err)
			e.mu.Unlock()
		},
		OnEstablished: func() {
			e.mu.Lock()
			e.established++
			e.mu.Unlock()
		},
		OnRDSAvailable: func(rds []byte) {
			e.mu.Lock()
			e.rds = append(e.rds, rds)
			e.mu.Unlock()
		},
		OnSessionAborted: func() {
			e.mu.Lock()
			e.aborted++
			e.mu.Unlock()
		},
		OnControleeInfoAvailable: func(info *csml.ControleeInfo) {
			e.mu.Lock()
			e.controlees = append(e.controlees, info)
			e.mu.Unlock()
		},
		OnStatusChanged: func(_, status Status) {
			e.mu.Lock()
			e.statuses = append(e.statuses, status)
			e.mu.Unlock()
		},
	}
}

func (e *events) errors() []SetupError {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]SetupError(nil), e.setupErrors...)
}

func testInfo(t *testing.T, opts ...func(*SessionInfo)) *SessionInfo {
	t.Helper()
	info := SessionInfo{
		Capability: capability.NewBuilder().Build(),
		OID:        provisionedOID,
	}
	for _, opt := range opts {
		opt(&info)
	}
	out, err := NewSessionInfo(info)
	if err != nil {
		t.Fatalf("NewSessionInfo failed: %v", err)
	}
	return out
}

type harness struct {
	session   *Session
	channel   *fakeChannel
	transport *recordingTransport
	events    *events
}

func newHarness(t *testing.T, role Role, info *SessionInfo) *harness {
	t.Helper()
	h := &harness{
		channel:   &fakeChannel{},
		transport: &recordingTransport{},
		events:    &events{},
	}
	s, err := New(Config{
		Role:          role,
		Channel:       h.channel,
		Transport:     h.transport,
		Info:          info,
		Callbacks:     h.events.callbacks(),
		LoggerFactory: logging.NewDefaultLoggerFactory(),
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := s.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	h.session = s
	t.Cleanup(func() { _ = s.Close() })
	s.flush()
	return h
}

// remote posts data from the peer and waits until the session is idle.
func (h *harness) remote(data []byte) {
	h.session.ProcessRemoteCommandOrResponse(data)
	h.session.flush()
}

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex %q: %v", s, err)
	}
	return b
}

// selectApplet is the bare SELECT a peer sends to start setup.
var selectApplet = []byte{0x00, 0xA4, 0x04, 0x00}

func TestNew_Validation(t *testing.T) {
	info := testInfo(t)
	ch := &fakeChannel{}
	tr := &recordingTransport{}

	testCases := []struct {
		name   string
		config Config
		want   error
	}{
		{"no channel", Config{Transport: tr, Info: info}, ErrNoChannel},
		{"no transport", Config{Channel: ch, Info: info}, ErrNoTransport},
		{"no info", Config{Channel: ch, Transport: tr}, ErrNoSessionInfo},
		{"no capability", Config{Channel: ch, Transport: tr, Info: &SessionInfo{OID: provisionedOID}}, ErrNoCapability},
		{"no ADF", Config{Channel: ch, Transport: tr, Info: &SessionInfo{Capability: info.Capability}}, ErrNoADF},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.config); !errors.Is(err, tc.want) {
				t.Errorf("New() error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestNewSessionInfo(t *testing.T) {
	caps := capability.NewBuilder().Build()

	if _, err := NewSessionInfo(SessionInfo{OID: provisionedOID}); !errors.Is(err, ErrNoCapability) {
		t.Errorf("NewSessionInfo(no capability) error = %v, want ErrNoCapability", err)
	}
	if _, err := NewSessionInfo(SessionInfo{Capability: caps}); !errors.Is(err, ErrNoADF) {
		t.Errorf("NewSessionInfo(no OID) error = %v, want ErrNoADF", err)
	}

	oid := csml.ObjectIdentifier{0x01, 0x02}
	info, err := NewSessionInfo(SessionInfo{Capability: caps, OID: oid})
	if err != nil {
		t.Fatalf("NewSessionInfo failed: %v", err)
	}
	oid[0] = 0xFF
	if info.OID[0] != 0x01 {
		t.Error("NewSessionInfo did not copy the OID")
	}
	if info.SwapInRequired() {
		t.Error("SwapInRequired() = true without a secure blob")
	}

	info, err = NewSessionInfo(SessionInfo{Capability: caps, OID: oid, SecureBlob: []byte{}})
	if err != nil {
		t.Fatalf("NewSessionInfo failed: %v", err)
	}
	if !info.SwapInRequired() {
		t.Error("SwapInRequired() = false with an empty secure blob")
	}
}

func TestSession_Init(t *testing.T) {
	h := newHarness(t, RoleResponder, testInfo(t))

	if got := h.session.Status(); got != StatusInitialized {
		t.Errorf("Status() = %s, want INITIALIZED", got)
	}
	if got := len(h.transport.messages()); got != 0 {
		t.Errorf("sent %d messages, want 0", got)
	}
	if err := h.session.Init(); !errors.Is(err, ErrAlreadyInitialized) {
		t.Errorf("second Init() error = %v, want ErrAlreadyInitialized", err)
	}
}

func TestResponder_OpenChannelSuccess(t *testing.T) {
	h := newHarness(t, RoleResponder, testInfo(t))
	h.channel.openResp = iso7816.NewResponse([]byte{0x6F, 0x00}, iso7816.SWNoError)

	h.remote(selectApplet)

	if got := h.session.Status(); got != StatusChannelOpened {
		t.Errorf("Status() = %s, want CHANNEL_OPENED", got)
	}
	msgs := h.transport.messages()
	if len(msgs) != 1 {
		t.Fatalf("sent %d messages, want 1", len(msgs))
	}
	if want := []byte{0x6F, 0x00, 0x90, 0x00}; !bytes.Equal(msgs[0], want) {
		t.Errorf("sent %X, want %X", msgs[0], want)
	}
	if errs := h.events.errors(); len(errs) != 0 {
		t.Errorf("setup errors = %v, want none", errs)
	}
}

func TestResponder_OpenChannelFailure(t *testing.T) {
	testCases := []struct {
		name     string
		openResp *iso7816.ResponseAPDU
		openErr  error
		wantSent []byte
	}{
		{"applet not found", iso7816.ResponseFileNotFound, nil, []byte{0x6A, 0x82}},
		{"I/O failure", nil, errors.New("reader removed"), []byte{0x6F, 0x00}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, RoleResponder, testInfo(t))
			h.channel.openResp = tc.openResp
			h.channel.openErr = tc.openErr

			h.remote(selectApplet)

			if got := h.session.Status(); got != StatusInitialized {
				t.Errorf("Status() = %s, want INITIALIZED", got)
			}
			msgs := h.transport.messages()
			if len(msgs) != 1 || !bytes.Equal(msgs[0], tc.wantSent) {
				t.Errorf("sent %X, want [%X]", msgs, tc.wantSent)
			}
			errs := h.events.errors()
			if len(errs) != 1 || errs[0] != SetupErrorOpenSEChannel {
				t.Errorf("setup errors = %v, want [OPEN_SE_CHANNEL]", errs)
			}
		})
	}
}

func TestResponder_SwapInFailed(t *testing.T) {
	info := testInfo(t, func(i *SessionInfo) {
		i.SecureBlob = []byte{}
		i.ControleeInfo = &csml.ControleeInfo{Version: csml.ControleeInfoVersion}
	})
	h := newHarness(t, RoleResponder, info)
	h.channel.setTransmit(func(cmd *iso7816.CommandAPDU) (*iso7816.ResponseAPDU, error) {
		if cmd.INS == csml.INSSwapADF {
			return iso7816.ResponseConditionsNotSatisfied, nil
		}
		return iso7816.ResponseSuccess, nil
	})

	h.remote(selectApplet)

	if got := h.session.Status(); got != StatusInitialized {
		t.Errorf("Status() = %s, want INITIALIZED", got)
	}
	if got := h.channel.closeCount(); got != 1 {
		t.Errorf("channel closed %d times, want 1", got)
	}
	msgs := h.transport.messages()
	if len(msgs) != 1 || !bytes.Equal(msgs[0], []byte{0x69, 0x85}) {
		t.Errorf("sent %X, want [6985]", msgs)
	}
	errs := h.events.errors()
	if len(errs) != 1 || errs[0] != SetupErrorOpenSEChannel {
		t.Errorf("setup errors = %v, want [OPEN_SE_CHANNEL]", errs)
	}

	h.events.mu.Lock()
	statuses := append([]Status(nil), h.events.statuses...)
	h.events.mu.Unlock()
	want := []Status{StatusInitialized, StatusChannelOpened, StatusInitialized}
	if len(statuses) != len(want) {
		t.Fatalf("statuses = %v, want %v", statuses, want)
	}
	for i := range want {
		if statuses[i] != want[i] {
			t.Errorf("statuses[%d] = %s, want %s", i, statuses[i], want[i])
		}
	}
}

func TestResponder_SwapInSucceeded(t *testing.T) {
	info := testInfo(t, func(i *SessionInfo) { i.SecureBlob = []byte{0xAA} })
	h := newHarness(t, RoleResponder, info)

	h.remote(selectApplet)

	if got := h.session.Status(); got != StatusChannelOpened {
		t.Errorf("Status() = %s, want CHANNEL_OPENED", got)
	}
	cmds := h.channel.commands()
	if len(cmds) != 1 || cmds[0].INS != csml.INSSwapADF || cmds[0].P1 != csml.SwapADFIn {
		t.Fatalf("SE commands = %v, want one SWAP ADF in", cmds)
	}

	// Close swaps the ADF out again before closing the channel.
	if err := h.session.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	cmds = h.channel.commands()
	last := cmds[len(cmds)-1]
	if last.INS != csml.INSSwapADF || last.P1 != csml.SwapADFOut {
		t.Errorf("last SE command = %s, want SWAP ADF out", last)
	}
	if got := h.channel.closeCount(); got != 1 {
		t.Errorf("channel closed %d times, want 1", got)
	}
}

func TestResponder_RemoteSelectADF(t *testing.T) {
	testCases := []struct {
		name       string
		response   string
		wantStatus Status
		wantErrors []SetupError
	}{
		{
			name:       "matched",
			response:   "711280018081029000E109800100810100820101",
			wantStatus: StatusADFSelected,
		},
		{
			name:       "mismatched",
			response:   "711280018081029000E109800100810100820102",
			wantStatus: StatusChannelOpened,
			wantErrors: []SetupError{SetupErrorADFNotMatched},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, RoleResponder, testInfo(t))
			h.remote(selectApplet)

			resp := iso7816.NewResponse(mustHex(t, tc.response), iso7816.SWNoError)
			h.channel.setTransmit(func(*iso7816.CommandAPDU) (*iso7816.ResponseAPDU, error) {
				return resp, nil
			})
			selectADF := csml.SelectADFCommand(provisionedOID).MustBytes()
			h.remote(selectADF)

			if got := h.session.Status(); got != tc.wantStatus {
				t.Errorf("Status() = %s, want %s", got, tc.wantStatus)
			}
			errs := h.events.errors()
			if len(errs) != len(tc.wantErrors) {
				t.Fatalf("setup errors = %v, want %v", errs, tc.wantErrors)
			}
			for i := range errs {
				if errs[i] != tc.wantErrors[i] {
					t.Errorf("setup error %d = %s, want %s", i, errs[i], tc.wantErrors[i])
				}
			}

			cmds := h.channel.commands()
			want := csml.DispatchCommand(selectADF).MustBytes()
			if len(cmds) != 1 || !bytes.Equal(cmds[0].MustBytes(), want) {
				t.Errorf("SE commands = %v, want DISPATCH of the remote SELECT ADF", cmds)
			}

			// The applet's data for the peer is forwarded.
			msgs := h.transport.messages()
			if len(msgs) != 2 || !bytes.Equal(msgs[1], []byte{0x90, 0x00}) {
				t.Errorf("sent %X, want SELECT response then 9000", msgs)
			}
		})
	}
}

func TestResponder_CommandBeforeOpen(t *testing.T) {
	h := newHarness(t, RoleResponder, testInfo(t))

	h.remote(csml.SelectADFCommand(provisionedOID).MustBytes())

	if got := len(h.channel.commands()); got != 0 {
		t.Errorf("SE received %d commands, want 0", got)
	}
	msgs := h.transport.messages()
	if len(msgs) != 1 || !bytes.Equal(msgs[0], []byte{0x69, 0x85}) {
		t.Errorf("sent %X, want [6985]", msgs)
	}
	if got := h.session.Status(); got != StatusInitialized {
		t.Errorf("Status() = %s, want INITIALIZED", got)
	}
}

func TestResponder_InvalidCommand(t *testing.T) {
	h := newHarness(t, RoleResponder, testInfo(t))

	h.remote([]byte{0x00, 0xA4})

	msgs := h.transport.messages()
	if len(msgs) != 1 || !bytes.Equal(msgs[0], []byte{0x67, 0x00}) {
		t.Errorf("sent %X, want [6700]", msgs)
	}
}

func TestResponder_DispatchRejected(t *testing.T) {
	h := newHarness(t, RoleResponder, testInfo(t))
	h.remote(selectApplet)

	h.channel.setTransmit(func(*iso7816.CommandAPDU) (*iso7816.ResponseAPDU, error) {
		return iso7816.NewResponse(nil, iso7816.SWWrongData), nil
	})
	h.remote([]byte{0x80, 0x87, 0x00, 0x00, 0x01, 0xAA})

	msgs := h.transport.messages()
	if len(msgs) != 2 || !bytes.Equal(msgs[1], []byte{0x6A, 0x80}) {
		t.Errorf("sent %X, want SELECT response then 6A80", msgs)
	}
	errs := h.events.errors()
	if len(errs) != 1 || errs[0] != SetupErrorDispatch {
		t.Errorf("setup errors = %v, want [DISPATCH]", errs)
	}
}

func TestResponder_Notifications(t *testing.T) {
	h := newHarness(t, RoleResponder, testInfo(t))
	h.remote(selectApplet)

	ctrl := &csml.ControleeInfo{Version: csml.ControleeInfoVersion, Capability: capability.NewBuilder().Build()}
	responses := []*csml.DispatchResponse{
		{
			Status: csml.DispatchToRemote,
			Data:   []byte{0x90, 0x00},
			Notifications: []csml.Notification{
				{Event: csml.EventADFSelected, Data: provisionedOID},
				{Event: csml.EventControleeInfoAvailable, Data: ctrl.Bytes()},
			},
		},
		{
			Status: csml.DispatchToRemote,
			Data:   []byte{0x90, 0x00},
			Notifications: []csml.Notification{
				{Event: csml.EventSecureChannelEstablished},
				{Event: csml.EventRDSAvailable, Data: []byte{0xC0, 0x01, 0x07}},
			},
		},
		{
			Status:        csml.DispatchComplete,
			Notifications: []csml.Notification{{Event: csml.EventSecureSessionAborted}},
		},
	}

	for i, r := range responses {
		resp := iso7816.NewResponse(r.Bytes(), iso7816.SWNoError)
		h.channel.setTransmit(func(*iso7816.CommandAPDU) (*iso7816.ResponseAPDU, error) {
			return resp, nil
		})
		h.remote([]byte{0x80, 0x10, 0x00, byte(i)})
	}

	if got := h.session.Status(); got != StatusEstablished {
		t.Errorf("Status() = %s, want ESTABLISHED", got)
	}
	h.events.mu.Lock()
	defer h.events.mu.Unlock()
	if h.events.established != 1 {
		t.Errorf("OnEstablished called %d times, want 1", h.events.established)
	}
	if len(h.events.rds) != 1 || !bytes.Equal(h.events.rds[0], []byte{0xC0, 0x01, 0x07}) {
		t.Errorf("RDS = %X, want [C00107]", h.events.rds)
	}
	if h.events.aborted != 1 {
		t.Errorf("OnSessionAborted called %d times, want 1", h.events.aborted)
	}
	if len(h.events.controlees) != 1 || h.events.controlees[0].Version != csml.ControleeInfoVersion {
		t.Errorf("controlee info = %v, want one with version 1.0", h.events.controlees)
	}
	if len(h.events.setupErrors) != 0 {
		t.Errorf("setup errors = %v, want none", h.events.setupErrors)
	}
	// Two 9000 answers after the SELECT response; Complete sends nothing.
	if got := len(h.transport.messages()); got != 3 {
		t.Errorf("sent %d messages, want 3", got)
	}
}

func TestSession_TunnelBeforeOpen(t *testing.T) {
	h := newHarness(t, RoleResponder, testInfo(t))

	called := false
	err := h.session.TunnelToRemoteDevice([]byte{0x01}, func([]byte, error) { called = true })
	if !errors.Is(err, ErrIllegalState) {
		t.Fatalf("TunnelToRemoteDevice() error = %v, want ErrIllegalState", err)
	}
	h.session.flush()

	if called {
		t.Error("callback called for rejected tunnel request")
	}
	if got := h.session.Status(); got != StatusInitialized {
		t.Errorf("Status() = %s, want INITIALIZED", got)
	}
	if got := len(h.transport.messages()); got != 0 {
		t.Errorf("sent %d messages, want 0", got)
	}
	if got := len(h.channel.commands()); got != 0 {
		t.Errorf("SE received %d commands, want 0", got)
	}
}

func TestSession_Tunnel(t *testing.T) {
	h := newHarness(t, RoleResponder, testInfo(t))
	h.remote(selectApplet)

	h.channel.setTransmit(func(cmd *iso7816.CommandAPDU) (*iso7816.ResponseAPDU, error) {
		var r *csml.DispatchResponse
		switch cmd.INS {
		case csml.INSTunnel:
			r = &csml.DispatchResponse{Status: csml.DispatchToRemote, Data: []byte{0xAA, 0xBB}}
		default:
			r = &csml.DispatchResponse{Status: csml.DispatchToHost, Data: []byte{0xCC, 0xDD}}
		}
		return iso7816.NewResponse(r.Bytes(), iso7816.SWNoError), nil
	})

	type answer struct {
		data []byte
		err  error
	}
	answers := make(chan answer, 2)
	cb := func(data []byte, err error) { answers <- answer{data, err} }

	if err := h.session.TunnelToRemoteDevice([]byte{0x01}, cb); err != nil {
		t.Fatalf("TunnelToRemoteDevice failed: %v", err)
	}
	if err := h.session.TunnelToRemoteDevice([]byte{0x02}, cb); err != nil {
		t.Fatalf("TunnelToRemoteDevice failed: %v", err)
	}
	h.session.flush()

	// The second request is refused while the first is pending.
	select {
	case a := <-answers:
		if !errors.Is(a.err, ErrTunnelBusy) {
			t.Errorf("second tunnel answer error = %v, want ErrTunnelBusy", a.err)
		}
	default:
		t.Fatal("second tunnel request not answered")
	}

	msgs := h.transport.messages()
	if len(msgs) != 2 || !bytes.Equal(msgs[1], []byte{0xAA, 0xBB}) {
		t.Fatalf("sent %X, want SELECT response then AABB", msgs)
	}

	h.remote([]byte{0xEE, 0x90, 0x00})

	select {
	case a := <-answers:
		if a.err != nil || !bytes.Equal(a.data, []byte{0xCC, 0xDD}) {
			t.Errorf("tunnel answer = %X, %v, want CCDD, nil", a.data, a.err)
		}
	default:
		t.Fatal("tunnel request not answered")
	}
}

func TestSession_TunnelAnswerRejected(t *testing.T) {
	h := newHarness(t, RoleResponder, testInfo(t))
	h.remote(selectApplet)

	h.channel.setTransmit(func(cmd *iso7816.CommandAPDU) (*iso7816.ResponseAPDU, error) {
		if cmd.INS == csml.INSTunnel {
			r := &csml.DispatchResponse{Status: csml.DispatchToRemote, Data: []byte{0xAA, 0xBB}}
			return iso7816.NewResponse(r.Bytes(), iso7816.SWNoError), nil
		}
		return iso7816.NewResponse(nil, iso7816.SWWrongData), nil
	})

	answers := make(chan error, 1)
	err := h.session.TunnelToRemoteDevice([]byte{0x01}, func(_ []byte, err error) { answers <- err })
	if err != nil {
		t.Fatalf("TunnelToRemoteDevice failed: %v", err)
	}
	h.session.flush()

	// A SELECT from the peer is still answered as a SELECT.
	h.remote(selectApplet)
	select {
	case err := <-answers:
		t.Fatalf("tunnel answered by SELECT: %v", err)
	default:
	}
	msgs := h.transport.messages()
	if len(msgs) != 3 || !bytes.Equal(msgs[2], []byte{0x90, 0x00}) {
		t.Fatalf("sent %X, want 9000 for the repeated SELECT", msgs)
	}

	h.remote([]byte{0xEE, 0x90, 0x00})

	select {
	case err := <-answers:
		if !errors.Is(err, iso7816.SWWrongData) {
			t.Errorf("tunnel answer error = %v, want %s", err, iso7816.SWWrongData)
		}
	default:
		t.Fatal("tunnel request not answered")
	}
	msgs = h.transport.messages()
	if len(msgs) != 4 || !bytes.Equal(msgs[3], []byte{0x6A, 0x80}) {
		t.Errorf("sent %X, want 6A80 after the rejected answer", msgs)
	}
	if errs := h.events.errors(); len(errs) != 0 {
		t.Errorf("setup errors = %v, want none", errs)
	}
}

func TestSession_Close(t *testing.T) {
	h := newHarness(t, RoleResponder, testInfo(t))
	h.remote(selectApplet)

	if err := h.session.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if got := h.session.Status(); got != StatusTerminated {
		t.Errorf("Status() = %s, want TERMINATED", got)
	}
	if got := h.channel.closeCount(); got != 1 {
		t.Errorf("channel closed %d times, want 1", got)
	}
	if err := h.session.Close(); !errors.Is(err, ErrClosed) {
		t.Errorf("second Close() error = %v, want ErrClosed", err)
	}

	sent := len(h.transport.messages())
	h.session.ProcessRemoteCommandOrResponse(selectApplet)
	if got := len(h.transport.messages()); got != sent {
		t.Errorf("sent %d messages after Close, want %d", got, sent)
	}
	if err := h.session.TunnelToRemoteDevice(nil, nil); !errors.Is(err, ErrIllegalState) {
		t.Errorf("TunnelToRemoteDevice after Close error = %v, want ErrIllegalState", err)
	}
	if err := h.session.Init(); !errors.Is(err, ErrClosed) {
		t.Errorf("Init after Close error = %v, want ErrClosed", err)
	}
}

func TestSession_CloseBeforeInit(t *testing.T) {
	s, err := New(Config{Channel: &fakeChannel{}, Transport: &recordingTransport{}, Info: testInfo(t)})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if got := s.Status(); got != StatusTerminated {
		t.Errorf("Status() = %s, want TERMINATED", got)
	}
}

func TestSession_FIFO(t *testing.T) {
	h := newHarness(t, RoleResponder, testInfo(t))
	h.remote(selectApplet)

	r := &csml.DispatchResponse{Status: csml.DispatchComplete}
	h.channel.setTransmit(func(*iso7816.CommandAPDU) (*iso7816.ResponseAPDU, error) {
		return iso7816.NewResponse(r.Bytes(), iso7816.SWNoError), nil
	})

	const n = 50
	for i := 0; i < n; i++ {
		h.session.ProcessRemoteCommandOrResponse([]byte{0x80, 0x10, 0x00, byte(i)})
	}
	h.session.flush()

	cmds := h.channel.commands()
	if len(cmds) != n {
		t.Fatalf("SE received %d commands, want %d", len(cmds), n)
	}
	for i, cmd := range cmds {
		want := csml.DispatchCommand([]byte{0x80, 0x10, 0x00, byte(i)}).MustBytes()
		if !bytes.Equal(cmd.MustBytes(), want) {
			t.Fatalf("command %d = %X, want %X", i, cmd.MustBytes(), want)
		}
	}
}

func TestStatus_String(t *testing.T) {
	testCases := []struct {
		status Status
		want   string
	}{
		{StatusUninitialized, "UNINITIALIZED"},
		{StatusInitialized, "INITIALIZED"},
		{StatusChannelOpened, "CHANNEL_OPENED"},
		{StatusADFSelected, "ADF_SELECTED"},
		{StatusEstablished, "ESTABLISHED"},
		{StatusTerminated, "TERMINATED"},
		{Status(42), "Status(42)"},
	}
	for _, tc := range testCases {
		if got := tc.status.String(); got != tc.want {
			t.Errorf("String() = %q, want %q", got, tc.want)
		}
	}

	if got := SetupErrorADFNotMatched.Error(); got != "securechannel: setup failed: ADF_NOT_MATCHED" {
		t.Errorf("Error() = %q", got)
	}
}
