// Package securechannel implements the FiRa secure channel setup between
// two UWB devices.
//
// A Session drives the local secure element (SE) through a se.Channel and
// exchanges APDUs with the peer through a transport.Transport. The
// responder reacts to the peer's SELECT and forwards everything else to
// its applet; the initiator starts setup with OpenSecureChannel. Progress
// is reported through Status and Callbacks.
//
// All work happens on one goroutine per session. Public methods post a
// message to the session inbox and return immediately; messages are
// handled strictly in the order they were posted. Messages to the peer
// are themselves posted to the inbox and sent when their turn comes.
package securechannel

import (
	"context"
	"time"

	"github.com/backkem/uwb/internal/syncutil"
	"github.com/backkem/uwb/pkg/csml"
	"github.com/backkem/uwb/pkg/se"
	"github.com/backkem/uwb/pkg/transport"
	"github.com/pion/logging"
)

// DefaultOperationTimeout bounds a single secure element operation.
const DefaultOperationTimeout = 5 * time.Second

// Callbacks provides callback functions for session events. They are
// called on the session goroutine and must not call back into the
// session synchronously except through its posting methods.
type Callbacks struct {
	// OnSetupError is called once for each failed setup step.
	OnSetupError func(err SetupError)

	// OnEstablished is called when the applet reports an established
	// secure channel with the peer.
	OnEstablished func()

	// OnRDSAvailable is called with the ranging data set the applet
	// derived for the session.
	OnRDSAvailable func(rds []byte)

	// OnSessionAborted is called when the applet aborts the secure session.
	OnSessionAborted func()

	// OnControleeInfoAvailable is called when the applet reports the
	// peer's controlee info.
	OnControleeInfoAvailable func(info *csml.ControleeInfo)

	// OnStatusChanged is called on every status transition.
	OnStatusChanged func(from, to Status)
}

// ExternalRequestCallback receives the answer to TunnelToRemoteDevice:
// the data the applet forwards to the host, or an error.
type ExternalRequestCallback func(response []byte, err error)

// Config configures a Session.
type Config struct {
	// Role selects responder or initiator behavior.
	Role Role

	// Channel is the session's exclusive SE channel. Required.
	Channel se.Channel

	// Transport sends APDUs to the peer. Required.
	Transport transport.Transport

	// Info describes the profile being set up. Required.
	Info *SessionInfo

	// Callbacks for session events.
	Callbacks Callbacks

	// OperationTimeout bounds each SE operation.
	// Default: DefaultOperationTimeout.
	OperationTimeout time.Duration

	// LoggerFactory is the factory for creating loggers.
	// If nil, logging is disabled.
	LoggerFactory logging.LoggerFactory
}

func (c *Config) applyDefaults() {
	if c.OperationTimeout <= 0 {
		c.OperationTimeout = DefaultOperationTimeout
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Channel == nil {
		return ErrNoChannel
	}
	if c.Transport == nil {
		return ErrNoTransport
	}
	if c.Info == nil {
		return ErrNoSessionInfo
	}
	if c.Info.Capability == nil {
		return ErrNoCapability
	}
	if len(c.Info.OID) == 0 {
		return ErrNoADF
	}
	return nil
}

type messageKind uint8

const (
	msgInit messageKind = iota
	msgOpen
	msgRemote
	msgTunnel
	msgSendRemote
	msgFlush
)

type message struct {
	kind     messageKind
	data     []byte
	callback ExternalRequestCallback
	done     chan struct{}
}

// Session is one secure channel setup attempt.
type Session struct {
	config Config
	log    logging.LeveledLogger

	ctx    context.Context
	cancel context.CancelFunc

	mu      syncutil.Mutex
	status  Status
	queue   []message
	started bool
	closing bool
	wake    chan struct{}
	done    chan struct{}

	// Owned by the session goroutine.
	swappedIn      bool
	awaitingSelect bool
	pending        ExternalRequestCallback
}

// New creates a session in StatusUninitialized.
func New(config Config) (*Session, error) {
	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	s := &Session{
		config: config,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	if config.LoggerFactory != nil {
		s.log = config.LoggerFactory.NewLogger("securechannel")
	}
	return s, nil
}

// Role returns the session's role.
func (s *Session) Role() Role {
	return s.config.Role
}

// Status returns the current status.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Init starts the session goroutine. The session enters
// StatusInitialized before any message posted earlier is handled.
func (s *Session) Init() error {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyInitialized
	}
	s.started = true
	s.queue = append([]message{{kind: msgInit}}, s.queue...)
	s.mu.Unlock()

	if s.log != nil {
		s.log.Infof("starting %s session for %s", s.config.Role, s.config.Info)
	}

	go s.run()
	s.signal()
	return nil
}

// ProcessRemoteCommandOrResponse posts an APDU received from the peer.
// Failures are reported through Callbacks, never to the caller.
func (s *Session) ProcessRemoteCommandOrResponse(data []byte) {
	msg := message{kind: msgRemote, data: append([]byte(nil), data...)}
	if !s.post(msg) && s.log != nil {
		s.log.Debugf("dropping %d bytes from peer: session closed", len(data))
	}
}

// TunnelToRemoteDevice asks the applet to wrap data for the peer and
// send it. The answer arrives through callback. It fails with
// ErrIllegalState unless the SE channel is open.
func (s *Session) TunnelToRemoteDevice(data []byte, callback ExternalRequestCallback) error {
	if !s.Status().channelOpened() {
		return ErrIllegalState
	}
	if callback == nil {
		callback = func([]byte, error) {}
	}
	msg := message{kind: msgTunnel, data: append([]byte(nil), data...), callback: callback}
	if !s.post(msg) {
		return ErrClosed
	}
	return nil
}

// OpenSecureChannel starts setup as initiator: open the SE channel,
// select the applet on the peer, select the ADF locally and initiate the
// transaction.
func (s *Session) OpenSecureChannel() error {
	if s.config.Role != RoleInitiator {
		return ErrWrongRole
	}
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	if !started {
		return ErrNotInitialized
	}
	if !s.post(message{kind: msgOpen}) {
		return ErrClosed
	}
	return nil
}

// Close aborts further processing, swaps out a swapped-in ADF, closes
// the SE channel and waits for the session goroutine to exit.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		return ErrClosed
	}
	s.closing = true
	started := s.started
	s.mu.Unlock()

	if s.log != nil {
		s.log.Info("closing session")
	}

	if started {
		s.signal()
		<-s.done
	} else {
		s.shutdown()
	}
	s.cancel()
	return nil
}

// post appends msg to the inbox. It returns false once the session is
// closing.
func (s *Session) post(msg message) bool {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		return false
	}
	s.queue = append(s.queue, msg)
	s.mu.Unlock()
	s.signal()
	return true
}

func (s *Session) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Session) queued() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// flush blocks until the inbox is empty and the session goroutine idle,
// or the session has stopped.
func (s *Session) flush() {
	msg := message{kind: msgFlush, done: make(chan struct{})}
	if !s.post(msg) {
		return
	}
	select {
	case <-msg.done:
	case <-s.done:
	}
}

func (s *Session) run() {
	defer close(s.done)
	for {
		msg, ok := s.next()
		if !ok {
			s.shutdown()
			return
		}
		s.handle(msg)
	}
}

// next blocks until a message is queued. It returns false when the
// session is closing; queued messages are then discarded.
func (s *Session) next() (message, bool) {
	for {
		s.mu.Lock()
		if s.closing {
			s.queue = nil
			s.mu.Unlock()
			return message{}, false
		}
		if len(s.queue) > 0 {
			msg := s.queue[0]
			s.queue[0] = message{}
			s.queue = s.queue[1:]
			s.mu.Unlock()
			return msg, true
		}
		s.mu.Unlock()
		<-s.wake
	}
}

func (s *Session) handle(msg message) {
	switch msg.kind {
	case msgInit:
		s.setStatus(StatusInitialized)
	case msgOpen:
		s.handleOpen()
	case msgRemote:
		if s.config.Role == RoleInitiator {
			s.handleRemoteResponse(msg.data)
		} else {
			s.handleRemoteCommand(msg.data)
		}
	case msgTunnel:
		s.handleTunnel(msg.data, msg.callback)
	case msgSendRemote:
		s.sendRemote(msg.data)
	case msgFlush:
		if s.queued() > 0 {
			s.post(msg)
			return
		}
		close(msg.done)
	}
}

// shutdown releases the SE channel. It runs on the session goroutine, or
// on the caller of Close when the goroutine was never started.
func (s *Session) shutdown() {
	ctx, cancel := s.opContext()
	defer cancel()

	s.closeChannel(ctx)
	if s.pending != nil {
		s.completeTunnel(nil, ErrClosed)
	}
	s.setStatus(StatusTerminated)
}

func (s *Session) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(s.ctx, s.config.OperationTimeout)
}

func (s *Session) setStatus(status Status) {
	s.mu.Lock()
	old := s.status
	s.status = status
	s.mu.Unlock()

	if old == status {
		return
	}
	if s.log != nil {
		s.log.Debugf("status %s -> %s", old, status)
	}
	if s.config.Callbacks.OnStatusChanged != nil {
		s.config.Callbacks.OnStatusChanged(old, status)
	}
}

func (s *Session) setupError(e SetupError) {
	if s.log != nil {
		s.log.Warnf("setup error: %s", e)
	}
	if s.config.Callbacks.OnSetupError != nil {
		s.config.Callbacks.OnSetupError(e)
	}
}

// queueSend posts data for the peer behind the messages already queued.
func (s *Session) queueSend(data []byte) {
	s.post(message{kind: msgSendRemote, data: data})
}

func (s *Session) sendRemote(data []byte) {
	if s.log != nil {
		s.log.Tracef("to peer: %X", data)
	}
	if err := s.config.Transport.Send(data); err != nil && s.log != nil {
		s.log.Warnf("send to peer failed: %v", err)
	}
}

// closeChannel swaps out a swapped-in ADF and closes the SE channel.
func (s *Session) closeChannel(ctx context.Context) {
	ch := s.config.Channel
	if !ch.IsOpen() {
		s.swappedIn = false
		return
	}
	if s.swappedIn {
		resp, err := ch.Transmit(ctx, csml.SwapOutADFCommand(s.config.Info.OID))
		if err == nil {
			err = resp.Err()
		}
		if err != nil && s.log != nil {
			s.log.Warnf("swap out ADF %s failed: %v", s.config.Info.OID, err)
		}
		s.swappedIn = false
	}
	if err := ch.Close(ctx); err != nil && s.log != nil {
		s.log.Warnf("closing SE channel failed: %v", err)
	}
}
