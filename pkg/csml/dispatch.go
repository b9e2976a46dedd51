package csml

import (
	"fmt"

	"github.com/backkem/uwb/pkg/iso7816"
)

// DispatchStatus tells the host what to do with the data in a dispatch
// response.
type DispatchStatus uint8

const (
	// DispatchComplete means the exchange is finished; data, if any, is
	// not forwarded.
	DispatchComplete DispatchStatus = 0x00
	// DispatchToRemote means the data must be sent to the peer.
	DispatchToRemote DispatchStatus = 0x80
	// DispatchToHost means the data is for the host application.
	DispatchToHost DispatchStatus = 0x81
)

// String returns the string representation of the dispatch status.
func (s DispatchStatus) String() string {
	switch s {
	case DispatchComplete:
		return "Complete"
	case DispatchToRemote:
		return "ToRemote"
	case DispatchToHost:
		return "ToHost"
	default:
		return fmt.Sprintf("DispatchStatus(0x%02X)", uint8(s))
	}
}

// EventID identifies an applet notification.
type EventID uint8

const (
	EventADFSelected              EventID = 0x00
	EventSecureChannelEstablished EventID = 0x01
	EventSecureSessionAborted     EventID = 0x02
	EventRDSAvailable             EventID = 0x03
	EventControleeInfoAvailable   EventID = 0x04
)

// String returns the string representation of the event.
func (e EventID) String() string {
	switch e {
	case EventADFSelected:
		return "ADFSelected"
	case EventSecureChannelEstablished:
		return "SecureChannelEstablished"
	case EventSecureSessionAborted:
		return "SecureSessionAborted"
	case EventRDSAvailable:
		return "RDSAvailable"
	case EventControleeInfoAvailable:
		return "ControleeInfoAvailable"
	default:
		return fmt.Sprintf("EventID(0x%02X)", uint8(e))
	}
}

// NotificationFormatGeneral is the only notification format defined.
const NotificationFormatGeneral uint8 = 0x00

// Notification is an event raised by the applet inside a dispatch response.
type Notification struct {
	Format uint8
	Event  EventID
	Data   []byte
}

// SelectedADF returns the OID carried by an ADF-selected notification.
func (n Notification) SelectedADF() (ObjectIdentifier, bool) {
	if n.Event != EventADFSelected || len(n.Data) == 0 {
		return nil, false
	}
	return ObjectIdentifier(n.Data), true
}

func (n Notification) datum() iso7816.Datum {
	return iso7816.NewConstructed(TagNotification,
		iso7816.NewDatum(TagNotificationFmt, []byte{n.Format}),
		iso7816.NewDatum(TagNotificationEvent, []byte{byte(n.Event)}),
		iso7816.NewDatum(TagNotificationData, n.Data),
	)
}

// DispatchResponse is the decoded data field of a DISPATCH or TUNNEL
// response.
type DispatchResponse struct {
	Status        DispatchStatus
	Data          []byte
	Notifications []Notification
}

// Bytes encodes the response as 71 { 80 status, 81 data, E1 ... }. The data
// object is omitted when Data is nil.
func (r *DispatchResponse) Bytes() []byte {
	children := []iso7816.Datum{
		iso7816.NewDatum(TagDispatchStatus, []byte{byte(r.Status)}),
	}
	if r.Data != nil {
		children = append(children, iso7816.NewDatum(TagDispatchData, r.Data))
	}
	for _, n := range r.Notifications {
		children = append(children, n.datum())
	}
	return iso7816.NewConstructed(TagProprietary, children...).Bytes()
}

// Notification returns the first notification for event.
func (r *DispatchResponse) Notification(event EventID) (Notification, bool) {
	for _, n := range r.Notifications {
		if n.Event == event {
			return n, true
		}
	}
	return Notification{}, false
}

// ParseDispatchResponse decodes the response to a DISPATCH or TUNNEL
// command. A non-success status word is returned as the error.
func ParseDispatchResponse(resp *iso7816.ResponseAPDU) (*DispatchResponse, error) {
	if err := resp.Err(); err != nil {
		return nil, err
	}
	d, err := iso7816.ParseDatum(resp.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotDispatchResponse, err)
	}
	if d.Tag != TagProprietary {
		return nil, fmt.Errorf("%w: tag %s", ErrNotDispatchResponse, d.Tag)
	}
	children, err := d.Children()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotDispatchResponse, err)
	}

	status, ok := iso7816.Find(children, TagDispatchStatus)
	if !ok || len(status.Value) != 1 {
		return nil, ErrMissingStatus
	}
	r := &DispatchResponse{Status: DispatchStatus(status.Value[0])}
	if data, ok := iso7816.Find(children, TagDispatchData); ok {
		r.Data = data.Value
	}

	for _, c := range children {
		if c.Tag != TagNotification {
			continue
		}
		n, err := parseNotification(c)
		if err != nil {
			return nil, err
		}
		r.Notifications = append(r.Notifications, n)
	}
	return r, nil
}

func parseNotification(d iso7816.Datum) (Notification, error) {
	fields, err := d.Children()
	if err != nil {
		return Notification{}, fmt.Errorf("%w: %w", ErrNotDispatchResponse, err)
	}
	var n Notification
	if f, ok := iso7816.Find(fields, TagNotificationFmt); ok && len(f.Value) == 1 {
		n.Format = f.Value[0]
	}
	ev, ok := iso7816.Find(fields, TagNotificationEvent)
	if !ok || len(ev.Value) != 1 {
		return Notification{}, fmt.Errorf("%w: notification without event", ErrNotDispatchResponse)
	}
	n.Event = EventID(ev.Value[0])
	if data, ok := iso7816.Find(fields, TagNotificationData); ok {
		n.Data = data.Value
	}
	return n, nil
}
