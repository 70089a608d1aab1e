// Package hub wires the transport, decoder, reconciler and router into
// one start/stoppable pipeline mirroring the TOMMY hub's zones.
package hub
