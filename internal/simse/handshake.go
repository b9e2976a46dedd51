package simse

import (
	"io"

	"github.com/backkem/uwb/pkg/csml"
	"github.com/backkem/uwb/pkg/iso7816"
)

func dispatchResponse(r *csml.DispatchResponse) *iso7816.ResponseAPDU {
	return iso7816.NewResponse(r.Bytes(), iso7816.SWNoError)
}

func toRemote(data []byte, events ...csml.Notification) *iso7816.ResponseAPDU {
	return dispatchResponse(&csml.DispatchResponse{
		Status:        csml.DispatchToRemote,
		Data:          data,
		Notifications: events,
	})
}

func notify(event csml.EventID, data []byte) csml.Notification {
	return csml.Notification{Format: csml.NotificationFormatGeneral, Event: event, Data: data}
}

func peerCommand(ins byte, data []byte) []byte {
	cmd := &iso7816.CommandAPDU{CLA: csml.CLAProprietary, INS: ins, Data: data, Ne: iso7816.MaxShortNe}
	return cmd.MustBytes()
}

func (a *Applet) challenge() ([]byte, error) {
	b := make([]byte, ChallengeSize)
	if _, err := io.ReadFull(a.config.Rand, b); err != nil {
		return nil, err
	}
	return b, nil
}

// abort ends the handshake on cs and reports it to the host.
func (a *Applet) abort(cs *channelState, reason string) *iso7816.ResponseAPDU {
	if a.log != nil {
		a.log.Warnf("secure session aborted: %s", reason)
	}
	cs.phase = phaseIdle
	cs.keys = nil
	cs.tunnelPending = false
	return dispatchResponse(&csml.DispatchResponse{
		Status:        csml.DispatchComplete,
		Notifications: []csml.Notification{notify(csml.EventSecureSessionAborted, nil)},
	})
}

// initiateTransaction starts the handshake as initiator. The first
// message for the peer selects the same ADF on its applet.
func (a *Applet) initiateTransaction(cs *channelState, cmd *iso7816.CommandAPDU) *iso7816.ResponseAPDU {
	if cs.adf == nil {
		return status(iso7816.SWConditionsNotSatisfied)
	}
	oid, err := csml.ParseObjectIdentifier(cmd.Data)
	if err != nil || !oid.Equal(cs.adf.OID) {
		return status(iso7816.SWWrongData)
	}
	cs.phase = phaseAwaitSelectADF
	cs.keys = nil
	return toRemote(csml.SelectADFCommand(oid).MustBytes())
}

func (a *Applet) dispatch(cs *channelState, cmd *iso7816.CommandAPDU) *iso7816.ResponseAPDU {
	d, err := iso7816.ParseDatum(cmd.Data)
	if err != nil || d.Tag != csml.TagProprietary {
		return status(iso7816.SWWrongData)
	}
	children, err := d.Children()
	if err != nil {
		return status(iso7816.SWWrongData)
	}
	payload, ok := iso7816.Find(children, csml.TagDispatchData)
	if !ok {
		return status(iso7816.SWWrongData)
	}

	switch {
	case cs.tunnelPending:
		return a.tunnelResponse(cs, payload.Value)
	case cs.phase.initiating():
		return a.initiatorStep(cs, payload.Value)
	default:
		return a.responderStep(cs, payload.Value)
	}
}

// initiatorStep handles the peer's response to the previous handshake
// command.
func (a *Applet) initiatorStep(cs *channelState, payload []byte) *iso7816.ResponseAPDU {
	resp, err := iso7816.ParseResponseAPDU(payload)
	if err != nil {
		return a.abort(cs, err.Error())
	}
	if !resp.IsSuccess() {
		return a.abort(cs, "peer answered "+resp.SW.String())
	}

	switch cs.phase {
	case phaseAwaitSelectADF:
		rI, err := a.challenge()
		if err != nil {
			return a.abort(cs, err.Error())
		}
		cs.rI = rI
		cs.phase = phaseAwaitChallenge
		return toRemote(peerCommand(INSGeneralAuthenticate, rI))

	case phaseAwaitChallenge:
		if len(resp.Data) != ChallengeSize+CryptogramSize {
			return a.abort(cs, "bad challenge response length")
		}
		rR := resp.Data[:ChallengeSize]
		keys, err := deriveKeys(cs.adf.Key, cs.rI, rR)
		if err != nil {
			return a.abort(cs, err.Error())
		}
		if !keys.verify(labelResponder, cs.rI, rR, resp.Data[ChallengeSize:]) {
			return a.abort(cs, "responder cryptogram mismatch")
		}
		cryptogram, err := keys.cryptogram(labelInitiator, cs.rI, rR)
		if err != nil {
			return a.abort(cs, err.Error())
		}
		cs.rR = rR
		cs.keys = keys
		cs.phase = phaseAwaitConfirm
		return toRemote(peerCommand(INSExternalAuthenticate, cryptogram),
			notify(csml.EventSecureChannelEstablished, nil))

	default:
		cs.phase = phaseEstablished
		return dispatchResponse(&csml.DispatchResponse{
			Status:        csml.DispatchComplete,
			Notifications: []csml.Notification{notify(csml.EventRDSAvailable, cs.keys.rds())},
		})
	}
}

// responderStep handles a command from the peer's applet.
func (a *Applet) responderStep(cs *channelState, payload []byte) *iso7816.ResponseAPDU {
	cmd, err := iso7816.ParseCommandAPDU(payload)
	if err != nil {
		return toRemote(status(iso7816.SWWrongLength).Bytes())
	}

	switch {
	case csml.IsSelectADF(cmd):
		oid, err := csml.ParseObjectIdentifier(cmd.Data)
		if err != nil {
			return toRemote(status(iso7816.SWWrongData).Bytes())
		}
		adf, ok := a.adfs[string(oid)]
		if !ok {
			cs.adf = nil
			cs.phase = phaseIdle
			return toRemote(status(iso7816.SWFileNotFound).Bytes())
		}
		cs.adf = &adf
		cs.phase = phaseADFSelected
		cs.keys = nil
		return toRemote(iso7816.ResponseSuccess.Bytes(), notify(csml.EventADFSelected, oid))

	case cmd.Is(csml.CLAProprietary, INSGeneralAuthenticate):
		if cs.phase != phaseADFSelected || len(cmd.Data) != ChallengeSize {
			return toRemote(status(iso7816.SWConditionsNotSatisfied).Bytes())
		}
		rR, err := a.challenge()
		if err != nil {
			return toRemote(status(iso7816.SWUnknown).Bytes())
		}
		keys, err := deriveKeys(cs.adf.Key, cmd.Data, rR)
		if err != nil {
			return toRemote(status(iso7816.SWUnknown).Bytes())
		}
		cryptogram, err := keys.cryptogram(labelResponder, cmd.Data, rR)
		if err != nil {
			return toRemote(status(iso7816.SWUnknown).Bytes())
		}
		cs.rI = cmd.Data
		cs.rR = rR
		cs.keys = keys
		cs.phase = phaseAwaitAuthentication
		data := append(append([]byte{}, rR...), cryptogram...)
		return toRemote(iso7816.NewResponse(data, iso7816.SWNoError).Bytes())

	case cmd.Is(csml.CLAProprietary, INSExternalAuthenticate):
		if cs.phase != phaseAwaitAuthentication {
			return toRemote(status(iso7816.SWConditionsNotSatisfied).Bytes())
		}
		if !cs.keys.verify(labelInitiator, cs.rI, cs.rR, cmd.Data) {
			if a.log != nil {
				a.log.Warn("initiator cryptogram mismatch")
			}
			cs.phase = phaseIdle
			cs.keys = nil
			return toRemote(status(iso7816.SWSecurityNotSatisfied).Bytes(),
				notify(csml.EventSecureSessionAborted, nil))
		}
		cs.phase = phaseEstablished
		return toRemote(iso7816.ResponseSuccess.Bytes(),
			notify(csml.EventSecureChannelEstablished, nil),
			notify(csml.EventRDSAvailable, cs.keys.rds()))

	case cmd.Is(csml.CLAProprietary, csml.INSTunnel):
		if cs.phase != phaseEstablished {
			return toRemote(status(iso7816.SWConditionsNotSatisfied).Bytes())
		}
		return toRemote(iso7816.NewResponse(cmd.Data, iso7816.SWNoError).Bytes())

	default:
		return toRemote(status(iso7816.SWInsNotSupported).Bytes())
	}
}

// tunnel wraps host data for the peer applet, which echoes it back.
func (a *Applet) tunnel(cs *channelState, cmd *iso7816.CommandAPDU) *iso7816.ResponseAPDU {
	if cs.phase != phaseEstablished || cs.tunnelPending {
		return status(iso7816.SWConditionsNotSatisfied)
	}
	cs.tunnelPending = true
	return toRemote(peerCommand(csml.INSTunnel, cmd.Data))
}

func (a *Applet) tunnelResponse(cs *channelState, payload []byte) *iso7816.ResponseAPDU {
	cs.tunnelPending = false
	resp, err := iso7816.ParseResponseAPDU(payload)
	if err != nil {
		return status(iso7816.SWWrongData)
	}
	if !resp.IsSuccess() {
		return status(resp.SW)
	}
	return dispatchResponse(&csml.DispatchResponse{Status: csml.DispatchToHost, Data: resp.Data})
}
