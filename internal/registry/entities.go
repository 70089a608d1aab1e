package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/nerrad567/tommy-core/internal/zone"
)

// EntityRepository persists motion-sensor entity registrations in
// SQLite. Registration is idempotent so roster replays converge to the
// same rows.
type EntityRepository struct {
	db *sql.DB
}

// NewEntityRepository creates an entity repository.
func NewEntityRepository(db *sql.DB) *EntityRepository {
	return &EntityRepository{db: db}
}

// CreateSensorEntities registers a batch of sensors and their devices in
// a single transaction. Existing devices have their name refreshed;
// existing entities are left untouched.
//
// Returns:
//   - error: nil on success; on error the whole batch is rolled back
func (r *EntityRepository) CreateSensorEntities(ctx context.Context, specs []zone.SensorSpec) error {
	if len(specs) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning registration transaction: %w", err)
	}
	defer tx.Rollback()

	deviceQuery := `INSERT INTO devices (id, identifier, name, via_device)
		VALUES (?, ?, ?, NULLIF(?, ''))
		ON CONFLICT(identifier) DO UPDATE SET
			name = excluded.name,
			updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')`

	entityQuery := `INSERT OR IGNORE INTO entities (unique_id, zone_id, device_identifier)
		VALUES (?, ?, ?)`

	for _, spec := range specs {
		if _, err := tx.ExecContext(ctx, deviceQuery,
			uuid.NewString(), spec.DeviceIdentifier, spec.DeviceName, spec.ViaDevice,
		); err != nil {
			return fmt.Errorf("registering device %s: %w", spec.DeviceIdentifier, err)
		}

		if _, err := tx.ExecContext(ctx, entityQuery,
			spec.UniqueID, spec.ZoneID, spec.DeviceIdentifier,
		); err != nil {
			return fmt.Errorf("registering entity %s: %w", spec.UniqueID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing registration: %w", err)
	}
	return nil
}

// RemoveEntity deletes an entity registration. Removing a missing entity
// is a no-op.
func (r *EntityRepository) RemoveEntity(ctx context.Context, uniqueID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM entities WHERE unique_id = ?`, uniqueID)
	if err != nil {
		return fmt.Errorf("removing entity %s: %w", uniqueID, err)
	}
	return nil
}

// ClearEntityLabelOverride drops any user-assigned label so the entity
// name follows the zone name again after a rename.
func (r *EntityRepository) ClearEntityLabelOverride(ctx context.Context, uniqueID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE entities SET label_override = NULL WHERE unique_id = ?`, uniqueID)
	if err != nil {
		return fmt.Errorf("clearing label override for %s: %w", uniqueID, err)
	}
	return nil
}

// SetEntityLabelOverride records a user-assigned label for an entity.
//
// Returns:
//   - error: zone.ErrEntityNotFound if no row exists
func (r *EntityRepository) SetEntityLabelOverride(ctx context.Context, uniqueID, label string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE entities SET label_override = ? WHERE unique_id = ?`, label, uniqueID)
	if err != nil {
		return fmt.Errorf("setting label override for %s: %w", uniqueID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("setting label override for %s: %w", uniqueID, err)
	}
	if affected == 0 {
		return zone.ErrEntityNotFound
	}
	return nil
}

// Entity is one persisted entity row.
type Entity struct {
	UniqueID         string `json:"unique_id"`
	ZoneID           string `json:"zone_id"`
	DeviceIdentifier string `json:"device_identifier"`
	LabelOverride    string `json:"label_override,omitempty"`
	CreatedAt        string `json:"created_at"`
}

// LookupEntityByUniqueID fetches one entity row.
//
// Returns:
//   - *Entity: The entity when found
//   - error: zone.ErrEntityNotFound if missing
func (r *EntityRepository) LookupEntityByUniqueID(ctx context.Context, uniqueID string) (*Entity, error) {
	query := `SELECT unique_id, zone_id, device_identifier, COALESCE(label_override, ''), created_at
		FROM entities WHERE unique_id = ?`

	var e Entity
	err := r.db.QueryRowContext(ctx, query, uniqueID).Scan(
		&e.UniqueID, &e.ZoneID, &e.DeviceIdentifier, &e.LabelOverride, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, zone.ErrEntityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("looking up entity %s: %w", uniqueID, err)
	}
	return &e, nil
}

// ListEntities returns all entity rows ordered by unique ID.
func (r *EntityRepository) ListEntities(ctx context.Context) ([]Entity, error) {
	query := `SELECT unique_id, zone_id, device_identifier, COALESCE(label_override, ''), created_at
		FROM entities ORDER BY unique_id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing entities: %w", err)
	}
	defer rows.Close()

	var entities []Entity
	for rows.Next() {
		var e Entity
		if err := rows.Scan(&e.UniqueID, &e.ZoneID, &e.DeviceIdentifier, &e.LabelOverride, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning entity row: %w", err)
		}
		entities = append(entities, e)
	}
	return entities, rows.Err()
}
