// Package zone holds the domain core: decoding hub messages, keeping
// the motion sensor set in step with the hub's zone roster, and routing
// motion observations to sensors.
//
// The hub is the source of truth for which zones exist. Every message on
// the zone topics can carry a roster snapshot; the Reconciler diffs each
// snapshot against the last one and converges the local sensor set, the
// entity registry and the device registry onto it. The Router then
// applies the motion half of state messages to individual sensors.
//
// All mutation happens on the transport's single dispatch goroutine.
// Locks in this package exist to let the HTTP API read sensor state
// concurrently, not to coordinate writers.
package zone
