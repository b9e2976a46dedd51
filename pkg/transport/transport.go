// Package transport carries APDU bytes between two UWB devices.
//
// The secure channel treats the transport as a pipe of discrete messages:
// every Send delivers exactly one byte slice to the peer's Handler. Conn
// provides this over a net.Conn, either packet-oriented (one datagram per
// message) or stream-oriented with a length prefix. Pipe provides an
// in-memory pair of connections for tests and demos.
package transport

// Transport sends one message to the peer.
type Transport interface {
	Send(data []byte) error
}

// Handler is called for each message received from the peer. It runs on
// the transport's read goroutine and must not block for long.
type Handler func(data []byte)

// Func adapts a function to the Transport interface.
type Func func(data []byte) error

// Send calls f.
func (f Func) Send(data []byte) error {
	return f(data)
}
