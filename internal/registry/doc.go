// Package registry provides the SQLite-backed device and entity
// registries the reconciler converges onto. Devices group sensors by
// zone; entities are the individual motion sensors. All operations are
// idempotent so roster replays and retries settle on the same rows.
package registry
