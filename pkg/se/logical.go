package se

import (
	"context"
	"fmt"

	"github.com/backkem/uwb/internal/syncutil"
	"github.com/backkem/uwb/pkg/csml"
	"github.com/backkem/uwb/pkg/iso7816"
	"github.com/pion/logging"
)

// MANAGE CHANNEL instruction and parameters.
const (
	insManageChannel   byte = 0x70
	insGetResponse     byte = 0xC0
	manageChannelOpen  byte = 0x00
	manageChannelClose byte = 0x80
)

// DefaultMaxResponseChain bounds the number of GET RESPONSE rounds.
const DefaultMaxResponseChain = 32

// LogicalChannelConfig configures a LogicalChannel.
type LogicalChannelConfig struct {
	// Terminal carries the APDUs. Required.
	Terminal Terminal

	// AID is the applet to select. Default: csml.FiRaAppletAID.
	AID []byte

	// BasicChannel selects the applet on the basic channel 0 instead of
	// opening a logical channel.
	BasicChannel bool

	// MaxResponseChain bounds GET RESPONSE rounds per command.
	// Default: DefaultMaxResponseChain.
	MaxResponseChain int

	// LoggerFactory is the factory for creating loggers.
	// If nil, logging is disabled.
	LoggerFactory logging.LoggerFactory
}

func (c *LogicalChannelConfig) applyDefaults() {
	if len(c.AID) == 0 {
		c.AID = csml.FiRaAppletAID
	}
	if c.MaxResponseChain <= 0 {
		c.MaxResponseChain = DefaultMaxResponseChain
	}
}

// Validate checks the configuration.
func (c *LogicalChannelConfig) Validate() error {
	if c.Terminal == nil {
		return ErrNoTerminal
	}
	return nil
}

// LogicalChannel is a Channel on an ISO 7816 logical channel.
type LogicalChannel struct {
	config LogicalChannelConfig
	log    logging.LeveledLogger

	mu      syncutil.Mutex
	channel int
	open    bool
}

// NewLogicalChannel creates a closed LogicalChannel.
func NewLogicalChannel(config LogicalChannelConfig) (*LogicalChannel, error) {
	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	c := &LogicalChannel{config: config}
	if config.LoggerFactory != nil {
		c.log = config.LoggerFactory.NewLogger("se")
	}
	return c, nil
}

// Open opens a logical channel and selects the applet on it. If the
// applet cannot be selected the logical channel is closed again and the
// SELECT response is returned.
func (c *LogicalChannel) Open(ctx context.Context) (*iso7816.ResponseAPDU, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.open {
		return nil, ErrAlreadyOpen
	}

	channel := 0
	if !c.config.BasicChannel {
		cmd := &iso7816.CommandAPDU{CLA: 0x00, INS: insManageChannel, P1: manageChannelOpen, P2: 0x00, Ne: 1}
		resp, err := c.exchange(ctx, cmd)
		if err != nil {
			return nil, err
		}
		if !resp.IsSuccess() {
			if c.log != nil {
				c.log.Warnf("MANAGE CHANNEL open failed: %s", resp.SW)
			}
			return resp, nil
		}
		if len(resp.Data) != 1 || resp.Data[0] == 0 || resp.Data[0] > 19 {
			return nil, fmt.Errorf("%w: %X", ErrInvalidChannel, resp.Data)
		}
		channel = int(resp.Data[0])
	}

	sel := &iso7816.CommandAPDU{
		CLA:  iso7816.WithChannel(0x00, channel),
		INS:  0xA4,
		P1:   0x04,
		P2:   0x00,
		Data: c.config.AID,
		Ne:   iso7816.MaxShortNe,
	}
	resp, err := c.transmitChained(ctx, sel)
	if err != nil || !resp.IsSuccess() {
		if channel != 0 {
			if cerr := c.closeChannel(ctx, channel); cerr != nil && c.log != nil {
				c.log.Warnf("closing channel %d after failed select: %v", channel, cerr)
			}
		}
		if err != nil {
			return nil, err
		}
		if c.log != nil {
			c.log.Warnf("applet %X not selected: %s", c.config.AID, resp.SW)
		}
		return resp, nil
	}

	c.channel = channel
	c.open = true
	if c.log != nil {
		c.log.Infof("applet %X selected on channel %d", c.config.AID, channel)
	}
	return resp, nil
}

// Transmit sends cmd on the open channel. The logical channel bits of the
// class byte are set here.
func (c *LogicalChannel) Transmit(ctx context.Context, cmd *iso7816.CommandAPDU) (*iso7816.ResponseAPDU, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.open {
		return nil, ErrNotOpen
	}
	out := *cmd
	out.CLA = iso7816.WithChannel(cmd.CLA, c.channel)
	return c.transmitChained(ctx, &out)
}

// IsOpen reports whether the applet is selected on an open channel.
func (c *LogicalChannel) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// Channel returns the logical channel number in use.
func (c *LogicalChannel) Channel() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.channel
}

// Close closes the logical channel.
func (c *LogicalChannel) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.open {
		return nil
	}
	c.open = false
	channel := c.channel
	c.channel = 0
	if channel == 0 {
		return nil
	}
	if c.log != nil {
		c.log.Debugf("closing channel %d", channel)
	}
	return c.closeChannel(ctx, channel)
}

func (c *LogicalChannel) closeChannel(ctx context.Context, channel int) error {
	cmd := iso7816.NewCommand(0x00, insManageChannel, manageChannelClose, byte(channel))
	resp, err := c.exchange(ctx, cmd)
	if err != nil {
		return err
	}
	return resp.Err()
}

// transmitChained sends cmd, resending it on 6CXX with the corrected Le and
// collecting 61XX continuations with GET RESPONSE.
func (c *LogicalChannel) transmitChained(ctx context.Context, cmd *iso7816.CommandAPDU) (*iso7816.ResponseAPDU, error) {
	resp, err := c.exchange(ctx, cmd)
	if err != nil {
		return nil, err
	}
	if resp.SW.IsWrongLe() {
		retry := *cmd
		retry.Ne = int(resp.SW.SW2())
		if retry.Ne == 0 {
			retry.Ne = iso7816.MaxShortNe
		}
		if resp, err = c.exchange(ctx, &retry); err != nil {
			return nil, err
		}
	}

	data := resp.Data
	for rounds := 0; resp.SW.HasMoreData(); rounds++ {
		if rounds >= c.config.MaxResponseChain {
			return nil, ErrResponseChainTooLong
		}
		ne := int(resp.SW.SW2())
		if ne == 0 {
			ne = iso7816.MaxShortNe
		}
		get := &iso7816.CommandAPDU{CLA: cmd.CLA &^ 0x80, INS: insGetResponse, Ne: ne}
		if resp, err = c.exchange(ctx, get); err != nil {
			return nil, err
		}
		data = append(data, resp.Data...)
	}
	return iso7816.NewResponse(data, resp.SW), nil
}

func (c *LogicalChannel) exchange(ctx context.Context, cmd *iso7816.CommandAPDU) (*iso7816.ResponseAPDU, error) {
	raw, err := cmd.Bytes()
	if err != nil {
		return nil, err
	}
	if c.log != nil {
		c.log.Tracef("-> %X", raw)
	}
	out, err := c.config.Terminal.Transmit(ctx, raw)
	if err != nil {
		if c.log != nil {
			c.log.Warnf("terminal transmit failed: %v", err)
		}
		return nil, err
	}
	if c.log != nil {
		c.log.Tracef("<- %X", out)
	}
	return iso7816.ParseResponseAPDU(out)
}
