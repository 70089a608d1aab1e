// Package database provides SQLite connectivity for the tommy-core registries.
//
// It manages:
//   - Connection setup with WAL mode and busy-timeout pragmas
//   - Embedded schema migrations, applied in version order
//   - Health checks and lifecycle management
//
// SQLite is used as a single-writer store for the entity and device
// registries; the connection pool is pinned to one connection to match
// SQLite's writer model.
package database
