package securechannel

import (
	"context"
	"errors"

	"github.com/backkem/uwb/pkg/csml"
	"github.com/backkem/uwb/pkg/iso7816"
)

// swapIn installs the provisioned ADF. On failure it returns the response
// to report to the peer.
func (s *Session) swapIn(ctx context.Context) (*iso7816.ResponseAPDU, bool) {
	info := s.config.Info
	resp, err := s.config.Channel.Transmit(ctx, csml.SwapInADFCommand(info.SecureBlob, info.ControleeInfo))
	if err != nil {
		if s.log != nil {
			s.log.Warnf("swap in ADF %s failed: %v", info.OID, err)
		}
		return iso7816.ResponseUnknownError, false
	}
	if !resp.IsSuccess() {
		if s.log != nil {
			s.log.Warnf("swap in ADF %s failed: %s", info.OID, resp.SW)
		}
		return resp, false
	}
	s.swappedIn = true
	return resp, true
}

// dispatch forwards a message from the peer to the applet.
func (s *Session) dispatch(payload []byte) error {
	ctx, cancel := s.opContext()
	defer cancel()

	resp, err := s.config.Channel.Transmit(ctx, csml.DispatchCommand(payload))
	if err != nil {
		return err
	}
	return s.applyDispatchResponse(resp)
}

// applyDispatchResponse routes the applet's data and handles its
// notifications.
func (s *Session) applyDispatchResponse(resp *iso7816.ResponseAPDU) error {
	r, err := csml.ParseDispatchResponse(resp)
	if err != nil {
		return err
	}

	switch r.Status {
	case csml.DispatchToRemote:
		if len(r.Data) > 0 {
			s.queueSend(r.Data)
		}
	case csml.DispatchToHost:
		s.completeTunnel(r.Data, nil)
	}

	for _, n := range r.Notifications {
		s.handleNotification(n)
	}
	return nil
}

func (s *Session) handleNotification(n csml.Notification) {
	if s.log != nil {
		s.log.Debugf("applet event %s", n.Event)
	}
	cb := s.config.Callbacks

	switch n.Event {
	case csml.EventADFSelected:
		oid, ok := n.SelectedADF()
		if !ok || !oid.Equal(s.config.Info.OID) {
			if s.log != nil {
				s.log.Warnf("peer selected ADF %s, expected %s", oid, s.config.Info.OID)
			}
			s.setupError(SetupErrorADFNotMatched)
			return
		}
		if s.Status() == StatusChannelOpened {
			s.setStatus(StatusADFSelected)
		}

	case csml.EventSecureChannelEstablished:
		if st := s.Status(); st != StatusADFSelected {
			if s.log != nil {
				s.log.Warnf("secure channel established in %s", st)
			}
			return
		}
		s.setStatus(StatusEstablished)
		if cb.OnEstablished != nil {
			cb.OnEstablished()
		}

	case csml.EventRDSAvailable:
		if cb.OnRDSAvailable != nil {
			cb.OnRDSAvailable(n.Data)
		}

	case csml.EventSecureSessionAborted:
		if cb.OnSessionAborted != nil {
			cb.OnSessionAborted()
		}

	case csml.EventControleeInfoAvailable:
		info, err := csml.ParseControleeInfo(n.Data)
		if err != nil {
			if s.log != nil {
				s.log.Warnf("invalid controlee info: %v", err)
			}
			return
		}
		if cb.OnControleeInfoAvailable != nil {
			cb.OnControleeInfoAvailable(info)
		}
	}
}

// dispatchFailed reports a rejected dispatch to a pending tunnel request,
// or as a setup error while the channel is not yet established.
func (s *Session) dispatchFailed(err error) {
	if s.log != nil {
		s.log.Warnf("dispatch failed: %v", err)
	}
	if s.pending != nil {
		s.completeTunnel(nil, err)
		return
	}
	if s.Status() < StatusEstablished {
		s.setupError(SetupErrorDispatch)
	}
}

func (s *Session) handleTunnel(data []byte, callback ExternalRequestCallback) {
	if !s.Status().channelOpened() {
		callback(nil, ErrIllegalState)
		return
	}
	if s.pending != nil {
		callback(nil, ErrTunnelBusy)
		return
	}

	ctx, cancel := s.opContext()
	defer cancel()

	resp, err := s.config.Channel.Transmit(ctx, csml.TunnelCommand(data))
	if err != nil {
		callback(nil, err)
		return
	}
	s.pending = callback
	if err := s.applyDispatchResponse(resp); err != nil {
		s.completeTunnel(nil, err)
	}
}

func (s *Session) completeTunnel(data []byte, err error) {
	if s.pending == nil {
		if s.log != nil {
			s.log.Debugf("dropping %d bytes for host: no tunnel request", len(data))
		}
		return
	}
	callback := s.pending
	s.pending = nil
	callback(data, err)
}

// failureResponse maps an error to the response reported to the peer.
func failureResponse(err error) *iso7816.ResponseAPDU {
	var sw iso7816.StatusWord
	if errors.As(err, &sw) {
		return iso7816.NewResponse(nil, sw)
	}
	return iso7816.ResponseUnknownError
}
