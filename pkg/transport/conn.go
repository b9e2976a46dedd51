package transport

import (
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/backkem/uwb/internal/syncutil"
	"github.com/pion/logging"
)

// DefaultMaxMessageSize covers an extended-length APDU with its status word.
const DefaultMaxMessageSize = 65546

// Framing selects how messages are delimited on the connection.
type Framing uint8

const (
	// FramingDatagram sends each message as one write and expects each read
	// to return one whole message.
	FramingDatagram Framing = iota
	// FramingStream prefixes each message with its length.
	FramingStream
)

// String returns the string representation of the framing.
func (f Framing) String() string {
	switch f {
	case FramingDatagram:
		return "datagram"
	case FramingStream:
		return "stream"
	default:
		return "unknown"
	}
}

// Conn is a message transport over a net.Conn. A read loop started by
// Start delivers each received message to the configured Handler.
type Conn struct {
	conn    net.Conn
	framing Framing
	maxSize int
	handler Handler
	closeCh chan struct{}
	wg      sync.WaitGroup
	log     logging.LeveledLogger

	writeMu syncutil.Mutex
	writer  *streamWriter

	mu      syncutil.RWMutex
	started bool
	closed  bool
}

// ConnConfig configures a Conn.
type ConnConfig struct {
	// Conn is the underlying connection. Required.
	Conn net.Conn

	// Framing selects message delimiting. Default: FramingDatagram.
	Framing Framing

	// MaxMessageSize bounds received and sent messages.
	// Default: DefaultMaxMessageSize.
	MaxMessageSize int

	// Handler is called for each received message.
	// Required.
	Handler Handler

	// LoggerFactory is the factory for creating loggers.
	// If nil, logging is disabled.
	LoggerFactory logging.LoggerFactory
}

// NewConn creates a Conn with the given configuration.
func NewConn(config ConnConfig) (*Conn, error) {
	if config.Conn == nil {
		return nil, ErrNoConn
	}
	if config.Handler == nil {
		return nil, ErrNoHandler
	}
	if config.MaxMessageSize <= 0 {
		config.MaxMessageSize = DefaultMaxMessageSize
	}

	c := &Conn{
		conn:    config.Conn,
		framing: config.Framing,
		maxSize: config.MaxMessageSize,
		handler: config.Handler,
		closeCh: make(chan struct{}),
	}
	if c.framing == FramingStream {
		c.writer = &streamWriter{w: c.conn}
	}

	if config.LoggerFactory != nil {
		c.log = config.LoggerFactory.NewLogger("transport")
	}

	return c, nil
}

// Start begins the read loop.
func (c *Conn) Start() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.started {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	c.started = true
	c.mu.Unlock()

	if c.log != nil {
		c.log.Infof("starting %s transport on %s", c.framing, c.conn.LocalAddr())
	}

	c.wg.Add(1)
	go c.readLoop()

	return nil
}

// Send sends one message to the peer.
func (c *Conn) Send(data []byte) error {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return ErrClosed
	}
	c.mu.RUnlock()

	if len(data) == 0 {
		return ErrEmptyMessage
	}
	if len(data) > c.maxSize {
		return ErrMessageTooLarge
	}

	if c.log != nil {
		c.log.Debugf("sending %d bytes", len(data))
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	var err error
	if c.writer != nil {
		err = c.writer.write(data)
	} else {
		_, err = c.conn.Write(data)
	}
	if err != nil && c.log != nil {
		c.log.Warnf("send failed: %v", err)
	}
	return err
}

// Close closes the connection and waits for the read loop to exit.
func (c *Conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.closed = true
	started := c.started
	c.mu.Unlock()

	if c.log != nil {
		c.log.Info("stopping transport")
	}

	close(c.closeCh)

	// Unblock any pending read.
	_ = c.conn.SetReadDeadline(time.Now())
	err := c.conn.Close()
	if started {
		c.wg.Wait()
	}
	return err
}

// LocalAddr returns the local address of the underlying connection.
func (c *Conn) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}

func (c *Conn) readLoop() {
	defer c.wg.Done()

	var reader *streamReader
	var buf []byte
	if c.framing == FramingStream {
		reader = &streamReader{r: c.conn, max: c.maxSize}
	} else {
		buf = make([]byte, c.maxSize)
	}

	for {
		select {
		case <-c.closeCh:
			return
		default:
		}

		var data []byte
		var err error
		if reader != nil {
			data, err = reader.read()
		} else {
			var n int
			n, err = c.conn.Read(buf)
			if err == nil && n > 0 {
				data = make([]byte, n)
				copy(data, buf[:n])
			}
		}

		if err != nil {
			select {
			case <-c.closeCh:
				return
			default:
			}
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || reader != nil {
				// A broken stream cannot be resynchronised.
				if c.log != nil {
					c.log.Warnf("read loop stopped: %v", err)
				}
				return
			}
			if c.log != nil {
				c.log.Warnf("read error: %v", err)
			}
			continue
		}

		if len(data) == 0 {
			continue
		}

		if c.log != nil {
			c.log.Debugf("received %d bytes", len(data))
		}

		c.handler(data)
	}
}
