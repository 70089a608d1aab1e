package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/nerrad567/tommy-core/internal/zone"
)

// DeviceRepository persists device rows in SQLite. One device exists per
// zone plus one for the hub itself; zone devices reference the hub
// through via_device.
type DeviceRepository struct {
	db         *sql.DB
	instanceID string
}

// NewDeviceRepository creates a device repository scoped to one hub
// instance.
func NewDeviceRepository(db *sql.DB, instanceID string) *DeviceRepository {
	return &DeviceRepository{db: db, instanceID: instanceID}
}

// EnsureDevice upserts a device row, refreshing the name if the row
// already exists. Used at startup to bootstrap the hub's own device.
//
// Returns:
//   - error: nil on success, otherwise the underlying database error
func (r *DeviceRepository) EnsureDevice(ctx context.Context, identifier, name, viaDevice string) error {
	query := `INSERT INTO devices (id, identifier, name, via_device)
		VALUES (?, ?, ?, NULLIF(?, ''))
		ON CONFLICT(identifier) DO UPDATE SET
			name = excluded.name,
			updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')`

	_, err := r.db.ExecContext(ctx, query, uuid.NewString(), identifier, name, viaDevice)
	if err != nil {
		return fmt.Errorf("ensuring device %s: %w", identifier, err)
	}
	return nil
}

// LookupDeviceByZone resolves a zone's device identifier.
//
// Returns:
//   - string: The device identifier
//   - error: zone.ErrDeviceNotFound if no row exists
func (r *DeviceRepository) LookupDeviceByZone(ctx context.Context, zoneID string) (string, error) {
	identifier := zone.DeviceIdentifier(r.instanceID, zoneID)

	var found string
	query := `SELECT identifier FROM devices WHERE identifier = ?`
	err := r.db.QueryRowContext(ctx, query, identifier).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return "", zone.ErrDeviceNotFound
	}
	if err != nil {
		return "", fmt.Errorf("looking up device for zone %s: %w", zoneID, err)
	}
	return found, nil
}

// UpdateDeviceName renames a device. The row is only touched when the
// name actually differs, so replayed renames do not churn updated_at.
func (r *DeviceRepository) UpdateDeviceName(ctx context.Context, identifier, name string) error {
	query := `UPDATE devices SET
			name = ?,
			updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')
		WHERE identifier = ? AND name != ?`

	_, err := r.db.ExecContext(ctx, query, name, identifier, name)
	if err != nil {
		return fmt.Errorf("renaming device %s: %w", identifier, err)
	}
	return nil
}

// RemoveDevice deletes a device row. Removing a missing device is a
// no-op.
func (r *DeviceRepository) RemoveDevice(ctx context.Context, identifier string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM devices WHERE identifier = ?`, identifier)
	if err != nil {
		return fmt.Errorf("removing device %s: %w", identifier, err)
	}
	return nil
}

// Device is one persisted device row.
type Device struct {
	ID         string `json:"id"`
	Identifier string `json:"identifier"`
	Name       string `json:"name"`
	ViaDevice  string `json:"via_device,omitempty"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

// ListDevices returns all devices ordered by identifier.
func (r *DeviceRepository) ListDevices(ctx context.Context) ([]Device, error) {
	query := `SELECT id, identifier, name, COALESCE(via_device, ''), created_at, updated_at
		FROM devices ORDER BY identifier`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing devices: %w", err)
	}
	defer rows.Close()

	var devices []Device
	for rows.Next() {
		var d Device
		if err := rows.Scan(&d.ID, &d.Identifier, &d.Name, &d.ViaDevice, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning device row: %w", err)
		}
		devices = append(devices, d)
	}
	return devices, rows.Err()
}
