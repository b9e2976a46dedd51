package main

import (
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/pion/logging"
)

// Options holds the demo's command-line flags.
type Options struct {
	// Channels are the UWB channels the local radio supports.
	Channels []int

	// RemoteChannels are the UWB channels the simulated peer supports.
	RemoteChannels []int

	// Multicast selects a one-to-many session.
	Multicast bool

	// SwapIn provisions the responder's ADF through a secure blob instead
	// of keeping it resident.
	SwapIn bool

	// Tunnel is sent through the secure channel once it is established.
	Tunnel string

	// LogLevel is the pion log level name.
	LogLevel string
}

// DefaultOptions returns Options with both sides on channels 5 and 9.
func DefaultOptions() Options {
	return Options{
		Channels:       []int{5, 9},
		RemoteChannels: []int{9},
		Tunnel:         "hello",
		LogLevel:       "warn",
	}
}

// ParseFlags parses the command line into Options.
func ParseFlags() Options {
	o := DefaultOptions()

	flag.Func("channels", "Local UWB channels, comma separated (default: 5,9)", func(s string) error {
		v, err := parseChannels(s)
		o.Channels = v
		return err
	})
	flag.Func("remote-channels", "Peer UWB channels, comma separated (default: 9)", func(s string) error {
		v, err := parseChannels(s)
		o.RemoteChannels = v
		return err
	})
	flag.BoolVar(&o.Multicast, "multicast", false, "Run a one-to-many session")
	flag.BoolVar(&o.SwapIn, "swap", false, "Swap the responder's ADF in from a secure blob")
	flag.StringVar(&o.Tunnel, "tunnel", o.Tunnel, "Data tunnelled to the peer once established")
	flag.StringVar(&o.LogLevel, "log", o.LogLevel, "Log level: error, warn, info, debug, trace")
	flag.Parse()

	return o
}

func parseChannels(s string) ([]int, error) {
	var out []int
	for _, f := range strings.Split(s, ",") {
		ch, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil, err
		}
		out = append(out, ch)
	}
	return out, nil
}

func loggerFactory(level string) (logging.LoggerFactory, error) {
	lf := logging.NewDefaultLoggerFactory()
	switch strings.ToLower(level) {
	case "error":
		lf.DefaultLogLevel = logging.LogLevelError
	case "warn":
		lf.DefaultLogLevel = logging.LogLevelWarn
	case "info":
		lf.DefaultLogLevel = logging.LogLevelInfo
	case "debug":
		lf.DefaultLogLevel = logging.LogLevelDebug
	case "trace":
		lf.DefaultLogLevel = logging.LogLevelTrace
	default:
		return nil, fmt.Errorf("unknown log level %q", level)
	}
	return lf, nil
}
