package transport

import (
	"math/rand"
	"net"
	"sync"
	"time"

	"github.com/backkem/uwb/internal/syncutil"
	"github.com/pion/logging"
	"github.com/pion/transport/v3/test"
)

// NetworkCondition configures network behavior simulation.
// Use this to test secure channel setup under adverse conditions.
type NetworkCondition struct {
	// DropRate is the probability of dropping a message (0.0 - 1.0).
	DropRate float64

	// DelayMin is the minimum delay to add to each message.
	DelayMin time.Duration

	// DelayMax is the maximum delay to add to each message.
	// Actual delay is uniformly distributed between DelayMin and DelayMax.
	DelayMax time.Duration

	// DuplicateRate is the probability of duplicating a message (0.0 - 1.0).
	DuplicateRate float64
}

// PipeConfig configures a Pipe.
type PipeConfig struct {
	// AutoProcess enables automatic message delivery in a background goroutine.
	// Default: true
	AutoProcess bool

	// ProcessInterval is how often the auto-processor checks for messages.
	// Default: 1ms
	ProcessInterval time.Duration
}

// DefaultPipeConfig returns the default pipe configuration.
func DefaultPipeConfig() PipeConfig {
	return PipeConfig{
		AutoProcess:     true,
		ProcessInterval: 1 * time.Millisecond,
	}
}

// Pipe provides bidirectional in-memory datagram communication between two
// endpoints. It wraps pion's test.Bridge and adds network condition
// simulation.
//
// By default, Pipe delivers messages in a background goroutine. Use
// SetAutoProcess(false) or NewPipeWithConfig for manual control.
type Pipe struct {
	bridge *test.Bridge
	conn0  *pipeConn
	conn1  *pipeConn

	mu              syncutil.RWMutex
	condition       NetworkCondition
	closed          bool
	rngMu           syncutil.Mutex
	rng             *rand.Rand
	autoProcess     bool
	processInterval time.Duration
	stopCh          chan struct{}
	wg              sync.WaitGroup
}

// NewPipe creates a new bidirectional pipe with auto-processing enabled.
func NewPipe() *Pipe {
	return NewPipeWithConfig(DefaultPipeConfig())
}

// NewPipeWithConfig creates a new pipe with the given configuration.
func NewPipeWithConfig(config PipeConfig) *Pipe {
	p := &Pipe{
		bridge:          test.NewBridge(),
		rng:             rand.New(rand.NewSource(time.Now().UnixNano())),
		autoProcess:     config.AutoProcess,
		processInterval: config.ProcessInterval,
		stopCh:          make(chan struct{}),
	}
	p.conn0 = &pipeConn{Conn: p.bridge.GetConn0(), pipe: p}
	p.conn1 = &pipeConn{Conn: p.bridge.GetConn1(), pipe: p}

	if config.ProcessInterval == 0 {
		p.processInterval = 1 * time.Millisecond
	}

	if p.autoProcess {
		p.startAutoProcess()
	}

	return p
}

func (p *Pipe) startAutoProcess() {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(p.processInterval)
		defer ticker.Stop()

		for {
			select {
			case <-p.stopCh:
				return
			case <-ticker.C:
				p.bridge.Tick()
			}
		}
	}()
}

// SetAutoProcess enables or disables automatic message delivery.
// When disabled, Tick or Process must be called to move messages.
func (p *Pipe) SetAutoProcess(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || p.autoProcess == enabled {
		return
	}

	p.autoProcess = enabled

	if enabled {
		p.stopCh = make(chan struct{})
		p.startAutoProcess()
	} else {
		close(p.stopCh)
		p.wg.Wait()
	}
}

// AutoProcess returns whether auto-processing is enabled.
func (p *Pipe) AutoProcess() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.autoProcess
}

// SetCondition configures network condition simulation for both directions.
func (p *Pipe) SetCondition(cond NetworkCondition) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.condition = cond
}

// Condition returns the current network condition configuration.
func (p *Pipe) Condition() NetworkCondition {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.condition
}

// Conn0 returns the connection for endpoint 0.
func (p *Pipe) Conn0() net.Conn {
	return p.conn0
}

// Conn1 returns the connection for endpoint 1.
func (p *Pipe) Conn1() net.Conn {
	return p.conn1
}

// Tick delivers one message in each direction (if available).
// Returns the number of messages delivered (0, 1, or 2).
func (p *Pipe) Tick() int {
	return p.bridge.Tick()
}

// Process delivers all queued messages.
// Returns the number of messages delivered.
func (p *Pipe) Process() int {
	count := 0
	for {
		n := p.Tick()
		if n == 0 {
			break
		}
		count += n
	}
	return count
}

// Close closes both endpoints of the pipe and stops auto-processing.
func (p *Pipe) Close() error {
	p.mu.Lock()

	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true

	if p.autoProcess {
		close(p.stopCh)
	}
	p.mu.Unlock()

	p.wg.Wait()

	err0 := p.conn0.Close()
	err1 := p.conn1.Close()
	if err0 != nil {
		return err0
	}
	return err1
}

// float64 and int63n share the pipe's rng between both endpoints' writers.
func (p *Pipe) float64() float64 {
	p.rngMu.Lock()
	defer p.rngMu.Unlock()
	return p.rng.Float64()
}

func (p *Pipe) int63n(n int64) int64 {
	p.rngMu.Lock()
	defer p.rngMu.Unlock()
	return p.rng.Int63n(n)
}

// pipeConn applies the pipe's network condition to writes.
type pipeConn struct {
	net.Conn
	pipe *Pipe

	closeOnce sync.Once
	closeErr  error
}

// Close closes the endpoint. Repeated calls return the first result.
func (c *pipeConn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.Conn.Close()
	})
	return c.closeErr
}

// Write sends b as one message, subject to the configured condition.
func (c *pipeConn) Write(b []byte) (int, error) {
	c.pipe.mu.RLock()
	cond := c.pipe.condition
	c.pipe.mu.RUnlock()

	if cond.DropRate > 0 && c.pipe.float64() < cond.DropRate {
		return len(b), nil
	}

	if cond.DelayMax > 0 {
		delay := cond.DelayMin
		if cond.DelayMax > cond.DelayMin {
			delay += time.Duration(c.pipe.int63n(int64(cond.DelayMax - cond.DelayMin)))
		}
		if delay > 0 {
			time.Sleep(delay)
		}
	}

	if cond.DuplicateRate > 0 && c.pipe.float64() < cond.DuplicateRate {
		if _, err := c.Conn.Write(b); err != nil {
			return 0, err
		}
	}

	return c.Conn.Write(b)
}

// ConnPair is a Pipe with a started Conn on each end.
type ConnPair struct {
	pipe  *Pipe
	conns [2]*Conn
}

// NewConnPair creates a Pipe and starts a datagram Conn on each endpoint.
// handler0 receives what endpoint 1 sends and vice versa.
func NewConnPair(handler0, handler1 Handler, loggerFactory logging.LoggerFactory) (*ConnPair, error) {
	pipe := NewPipe()
	pair := &ConnPair{pipe: pipe}

	for i, cfg := range []ConnConfig{
		{Conn: pipe.Conn0(), Handler: handler0, LoggerFactory: loggerFactory},
		{Conn: pipe.Conn1(), Handler: handler1, LoggerFactory: loggerFactory},
	} {
		c, err := NewConn(cfg)
		if err == nil {
			err = c.Start()
		}
		if err != nil {
			pair.Close()
			return nil, err
		}
		pair.conns[i] = c
	}
	return pair, nil
}

// Conn returns the transport for endpoint id (0 or 1).
func (p *ConnPair) Conn(id int) *Conn {
	if id < 0 || id > 1 {
		return nil
	}
	return p.conns[id]
}

// Pipe returns the underlying pipe.
func (p *ConnPair) Pipe() *Pipe {
	return p.pipe
}

// Close stops both transports and the pipe.
func (p *ConnPair) Close() error {
	for _, c := range p.conns {
		if c != nil {
			_ = c.Close()
		}
	}
	return p.pipe.Close()
}
