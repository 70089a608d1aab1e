// Package api provides the HTTP REST API and WebSocket server for the
// TOMMY core.
//
// It exposes the reconciled zone set with live motion state, the
// persisted device and entity registries, system status, and a
// WebSocket feed of zone lifecycle and motion events.
//
// The server follows the same lifecycle pattern as the other
// infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// All reads go through interfaces backed by the reconciler's snapshot,
// so handlers never block the reconciliation goroutine.
package api
