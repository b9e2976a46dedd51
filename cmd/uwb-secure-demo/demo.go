package main

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/backkem/uwb/internal/simse"
	"github.com/backkem/uwb/pkg/capability"
	"github.com/backkem/uwb/pkg/csml"
	"github.com/backkem/uwb/pkg/se"
	"github.com/backkem/uwb/pkg/securechannel"
	"github.com/backkem/uwb/pkg/transport"
	"github.com/pion/logging"
)

const setupTimeout = 10 * time.Second

var demoADF = simse.ADF{
	OID: csml.ObjectIdentifier{0x2A, 0x86, 0x48, 0x86, 0xF7, 0x0D, 0x01},
	Key: []byte("uwb-demo-adf-key"),
}

// device is one simulated UWB device.
type device struct {
	name    string
	session *securechannel.Session

	once     sync.Once
	rds      chan []byte
	failures chan securechannel.SetupError
}

func (d *device) callbacks() securechannel.Callbacks {
	return securechannel.Callbacks{
		OnStatusChanged: func(from, to securechannel.Status) {
			fmt.Printf("[%s] %s -> %s\n", d.name, from, to)
		},
		OnSetupError: func(err securechannel.SetupError) {
			select {
			case d.failures <- err:
			default:
			}
		},
		OnRDSAvailable: func(rds []byte) {
			d.once.Do(func() { d.rds <- rds })
		},
		OnSessionAborted: func() {
			fmt.Printf("[%s] secure session aborted\n", d.name)
		},
	}
}

func newDevice(name string, role securechannel.Role, adfs []simse.ADF, info securechannel.SessionInfo,
	conn transport.Transport, lf logging.LoggerFactory,
) (*device, error) {
	applet, err := simse.New(simse.Config{ADFs: adfs, LoggerFactory: lf})
	if err != nil {
		return nil, err
	}
	ch, err := se.NewLogicalChannel(se.LogicalChannelConfig{Terminal: applet, LoggerFactory: lf})
	if err != nil {
		return nil, err
	}
	sessionInfo, err := securechannel.NewSessionInfo(info)
	if err != nil {
		return nil, err
	}

	d := &device{
		name:     name,
		rds:      make(chan []byte, 1),
		failures: make(chan securechannel.SetupError, 1),
	}
	d.session, err = securechannel.New(securechannel.Config{
		Role:          role,
		Channel:       ch,
		Transport:     conn,
		Info:          sessionInfo,
		Callbacks:     d.callbacks(),
		LoggerFactory: lf,
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (d *device) waitRDS() (*simse.RDS, error) {
	select {
	case b := <-d.rds:
		return simse.ParseRDS(b)
	case err := <-d.failures:
		return nil, fmt.Errorf("%s: %w", d.name, err)
	case <-time.After(setupTimeout):
		return nil, fmt.Errorf("%s: timed out waiting for the ranging data set", d.name)
	}
}

func negotiate(opts Options) (*capability.Capability, error) {
	local := capability.NewBuilder().
		DeviceRoles(capability.RoleInitiator | capability.RoleResponder).
		RangingMethod(capability.MethodDSTWRDeferred | capability.MethodSSTWRDeferred).
		STSConfig(capability.STSStatic | capability.STSDynamic).
		Channels(opts.Channels).
		RframeConfig(capability.RframeSP1 | capability.RframeSP3).
		HoppingMode(true).
		Build()
	remote := capability.NewBuilder().
		DeviceRoles(capability.RoleResponder).
		RangingMethod(capability.MethodDSTWRDeferred).
		STSConfig(capability.STSDynamic).
		Channels(opts.RemoteChannels).
		RframeConfig(capability.RframeSP3).
		Build()

	// The peer's capability arrives over the wire in practice.
	wire := remote.Bytes()
	fmt.Printf("remote capability: % X\n", wire)
	peer, err := capability.FromBytes(wire)
	if err != nil {
		return nil, err
	}
	if !capability.IsCompatible(local, peer) {
		return nil, errors.New("capabilities are not compatible")
	}
	fmt.Printf("negotiated: %s\n", capability.Negotiate(local, peer, opts.Multicast))
	return local, nil
}

func run(opts Options) error {
	lf, err := loggerFactory(opts.LogLevel)
	if err != nil {
		return err
	}

	caps, err := negotiate(opts)
	if err != nil {
		return err
	}

	var devs [2]*device
	var ready sync.WaitGroup
	ready.Add(1)
	handler := func(i int) transport.Handler {
		return func(data []byte) {
			ready.Wait()
			devs[i].session.ProcessRemoteCommandOrResponse(data)
		}
	}
	pair, err := transport.NewConnPair(handler(0), handler(1), lf)
	if err != nil {
		return err
	}
	defer pair.Close()

	initiatorInfo := securechannel.SessionInfo{Capability: caps, OID: demoADF.OID, Multicast: opts.Multicast}
	responderInfo := initiatorInfo
	responderADFs := []simse.ADF{demoADF}
	if opts.SwapIn {
		responderADFs = nil
		responderInfo.SecureBlob = simse.SecureBlob(demoADF)
		responderInfo.ControleeInfo = &csml.ControleeInfo{Version: csml.ControleeInfoVersion, Capability: caps}
	}

	devs[0], err = newDevice("initiator", securechannel.RoleInitiator, []simse.ADF{demoADF}, initiatorInfo, pair.Conn(0), lf)
	if err != nil {
		ready.Done()
		return err
	}
	devs[1], err = newDevice("responder", securechannel.RoleResponder, responderADFs, responderInfo, pair.Conn(1), lf)
	ready.Done()
	if err != nil {
		_ = devs[0].session.Close()
		return err
	}
	for _, d := range devs {
		defer d.session.Close()
	}

	for _, d := range devs {
		if err := d.session.Init(); err != nil {
			return err
		}
	}
	if err := devs[0].session.OpenSecureChannel(); err != nil {
		return err
	}

	for _, d := range devs {
		rds, err := d.waitRDS()
		if err != nil {
			return err
		}
		fmt.Printf("[%s] session ID %08X, session key %X\n", d.name, rds.SessionID, rds.SessionKey)
	}

	if opts.Tunnel == "" {
		return nil
	}
	answer := make(chan error, 1)
	err = devs[0].session.TunnelToRemoteDevice([]byte(opts.Tunnel), func(data []byte, err error) {
		if err == nil {
			fmt.Printf("[initiator] tunnel answer: %q\n", data)
		}
		answer <- err
	})
	if err != nil {
		return err
	}
	select {
	case err := <-answer:
		return err
	case <-time.After(setupTimeout):
		return errors.New("timed out waiting for the tunnel answer")
	}
}
