package securechannel

import (
	"github.com/backkem/uwb/pkg/csml"
	"github.com/backkem/uwb/pkg/iso7816"
)

// handleRemoteCommand handles a command APDU from the initiator, or the
// peer's answer to a pending tunnel request.
func (s *Session) handleRemoteCommand(data []byte) {
	cmd, err := iso7816.ParseCommandAPDU(data)
	if err == nil && csml.IsSelect(cmd) {
		s.handleSelect()
		return
	}

	if s.pending != nil {
		// The peer is answering our tunnel request.
		s.forward(data)
		return
	}

	if err != nil {
		if s.log != nil {
			s.log.Warnf("invalid command from peer: %v", err)
		}
		s.queueSend(iso7816.NewResponse(nil, iso7816.SWWrongLength).Bytes())
		return
	}

	if !s.Status().channelOpened() {
		if s.log != nil {
			s.log.Warnf("rejecting %s in %s", cmd, s.Status())
		}
		s.queueSend(iso7816.ResponseConditionsNotSatisfied.Bytes())
		return
	}

	s.forward(data)
}

// forward dispatches peer data to the SE. A failure is reported locally and
// its status word is returned to the peer.
func (s *Session) forward(data []byte) {
	if err := s.dispatch(data); err != nil {
		s.dispatchFailed(err)
		s.queueSend(failureResponse(err).Bytes())
	}
}

// handleSelect opens the SE channel in answer to the peer's SELECT. The
// peer receives the SELECT response, or the failure status, in every case.
func (s *Session) handleSelect() {
	if s.Status().channelOpened() {
		if s.log != nil {
			s.log.Debug("SE channel already open, acknowledging SELECT")
		}
		s.queueSend(iso7816.ResponseSuccess.Bytes())
		return
	}

	ctx, cancel := s.opContext()
	defer cancel()

	resp, err := s.config.Channel.Open(ctx)
	if err != nil {
		if s.log != nil {
			s.log.Warnf("opening SE channel failed: %v", err)
		}
		s.failOpen(iso7816.ResponseUnknownError)
		return
	}
	if !resp.IsSuccess() {
		if s.log != nil {
			s.log.Warnf("opening SE channel failed: %s", resp.SW)
		}
		s.failOpen(resp)
		return
	}
	s.setStatus(StatusChannelOpened)

	if s.config.Info.SwapInRequired() {
		if swapResp, ok := s.swapIn(ctx); !ok {
			s.closeChannel(ctx)
			s.setStatus(StatusInitialized)
			s.failOpen(swapResp)
			return
		}
	}

	s.queueSend(resp.Bytes())
}

// failOpen informs the peer and reports SetupErrorOpenSEChannel.
func (s *Session) failOpen(resp *iso7816.ResponseAPDU) {
	s.queueSend(resp.Bytes())
	s.setupError(SetupErrorOpenSEChannel)
}
