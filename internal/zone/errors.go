package zone

import "errors"

// Sentinel errors for zone processing. Callers match with errors.Is.
var (
	// ErrMalformedPayload indicates a hub message that could not be
	// parsed as JSON or lacked required fields.
	ErrMalformedPayload = errors.New("malformed hub payload")

	// ErrEntityNotFound is returned by registries when an entity row
	// does not exist.
	ErrEntityNotFound = errors.New("entity not found")

	// ErrDeviceNotFound is returned by registries when a device row
	// does not exist.
	ErrDeviceNotFound = errors.New("device not found")
)
