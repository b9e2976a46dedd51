package securechannel

import (
	"context"

	"github.com/backkem/uwb/pkg/csml"
	"github.com/backkem/uwb/pkg/iso7816"
)

// handleOpen opens the SE channel and selects the applet on the peer.
func (s *Session) handleOpen() {
	if st := s.Status(); st != StatusInitialized {
		if s.log != nil {
			s.log.Warnf("ignoring open in %s", st)
		}
		return
	}

	ctx, cancel := s.opContext()
	defer cancel()

	resp, err := s.config.Channel.Open(ctx)
	if err == nil {
		err = resp.Err()
	}
	if err != nil {
		if s.log != nil {
			s.log.Warnf("opening SE channel failed: %v", err)
		}
		s.setupError(SetupErrorOpenSEChannel)
		return
	}
	s.setStatus(StatusChannelOpened)

	if s.config.Info.SwapInRequired() {
		if _, ok := s.swapIn(ctx); !ok {
			s.abortSetup(ctx, SetupErrorOpenSEChannel)
			return
		}
	}

	s.awaitingSelect = true
	s.queueSend(csml.SelectCommand().MustBytes())
}

// handleRemoteResponse handles a response APDU from the responder.
func (s *Session) handleRemoteResponse(data []byte) {
	resp, err := iso7816.ParseResponseAPDU(data)
	if err != nil {
		if s.log != nil {
			s.log.Warnf("invalid response from peer: %v", err)
		}
		return
	}

	if s.awaitingSelect {
		s.awaitingSelect = false
		if !resp.IsSuccess() {
			if s.log != nil {
				s.log.Warnf("peer rejected SELECT: %s", resp.SW)
			}
			ctx, cancel := s.opContext()
			defer cancel()
			s.abortSetup(ctx, SetupErrorOpenSEChannel)
			return
		}
		s.selectADF()
		return
	}

	if !s.Status().channelOpened() {
		if s.log != nil {
			s.log.Warnf("ignoring response %s in %s", resp.SW, s.Status())
		}
		return
	}

	if err := s.dispatch(data); err != nil {
		s.dispatchFailed(err)
	}
}

// selectADF selects the ADF locally and asks the applet to start the
// transaction with the peer.
func (s *Session) selectADF() {
	ctx, cancel := s.opContext()
	defer cancel()

	oid := s.config.Info.OID
	resp, err := s.config.Channel.Transmit(ctx, csml.SelectADFCommand(oid))
	if err == nil {
		err = resp.Err()
	}
	if err != nil {
		if s.log != nil {
			s.log.Warnf("SELECT ADF %s failed: %v", oid, err)
		}
		s.abortSetup(ctx, SetupErrorSelectADF)
		return
	}
	s.setStatus(StatusADFSelected)

	resp, err = s.config.Channel.Transmit(ctx, csml.InitiateTransactionCommand(oid, s.config.Info.Multicast))
	if err == nil {
		err = s.applyDispatchResponse(resp)
	}
	if err != nil {
		if s.log != nil {
			s.log.Warnf("INITIATE TRANSACTION failed: %v", err)
		}
		s.abortSetup(ctx, SetupErrorInitiateTransaction)
	}
}

// abortSetup closes the SE channel, returns to INITIALIZED and reports e.
// OpenSecureChannel may be called again afterwards.
func (s *Session) abortSetup(ctx context.Context, e SetupError) {
	s.closeChannel(ctx)
	s.setStatus(StatusInitialized)
	s.setupError(e)
}
