// uwb-secure-demo negotiates UWB session parameters between two simulated
// devices and sets up a FiRa secure channel between their secure elements.
//
// Both devices run in-process: each has a simulated FiRa applet behind a
// logical channel, and the two sessions talk over an in-memory pipe.
//
// Usage:
//
//	uwb-secure-demo [options]
//
// Options:
//
//	-channels        Local UWB channels (default: 5,9)
//	-remote-channels Peer UWB channels (default: 9)
//	-multicast       Run a one-to-many session
//	-swap            Swap the responder's ADF in from a secure blob
//	-tunnel          Data tunnelled to the peer (default: "hello")
//	-log             Log level (default: warn)
//
// Example:
//
//	uwb-secure-demo -channels 5,9 -remote-channels 5 -swap
package main

import (
	"log"
)

func main() {
	opts := ParseFlags()

	if err := run(opts); err != nil {
		log.Fatalf("Demo failed: %v", err)
	}
}
