package registry

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/nerrad567/tommy-core/internal/zone"
)

// setupTestDB creates an in-memory SQLite database with the registry
// tables.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	schema := `
		CREATE TABLE devices (
			id TEXT PRIMARY KEY,
			identifier TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			via_device TEXT,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		) STRICT;
		CREATE INDEX idx_devices_via_device ON devices(via_device);

		CREATE TABLE entities (
			unique_id TEXT PRIMARY KEY,
			zone_id TEXT NOT NULL,
			device_identifier TEXT NOT NULL,
			label_override TEXT,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		) STRICT;
		CREATE INDEX idx_entities_zone_id ON entities(zone_id);
		CREATE INDEX idx_entities_device_identifier ON entities(device_identifier);
	`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		t.Fatalf("failed to create test schema: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})
	return db
}

const testInstance = "tommy-hub"

func testSpecs(zones ...string) []zone.SensorSpec {
	specs := make([]zone.SensorSpec, 0, len(zones)/2)
	for i := 0; i+1 < len(zones); i += 2 {
		specs = append(specs, zone.NewSensorSpec(testInstance, zone.ZoneInfo{
			ID:   zones[i],
			Name: zones[i+1],
		}))
	}
	return specs
}

// =============================================================================
// Entity Registration Tests
// =============================================================================

func TestCreateSensorEntities(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEntityRepository(db)
	ctx := context.Background()

	err := repo.CreateSensorEntities(ctx, testSpecs("z1", "Hall", "z2", "Kitchen"))
	if err != nil {
		t.Fatalf("CreateSensorEntities() error = %v", err)
	}

	entities, err := repo.ListEntities(ctx)
	if err != nil {
		t.Fatalf("ListEntities() error = %v", err)
	}
	if len(entities) != 2 {
		t.Fatalf("ListEntities() returned %d rows, want 2", len(entities))
	}
	if entities[0].UniqueID != "tommy-hub_zone_z1_motion" {
		t.Errorf("UniqueID = %q", entities[0].UniqueID)
	}
	if entities[0].DeviceIdentifier != "tommy-hub_z1" {
		t.Errorf("DeviceIdentifier = %q", entities[0].DeviceIdentifier)
	}

	devices, err := NewDeviceRepository(db, testInstance).ListDevices(ctx)
	if err != nil {
		t.Fatalf("ListDevices() error = %v", err)
	}
	if len(devices) != 2 {
		t.Fatalf("ListDevices() returned %d rows, want 2", len(devices))
	}
	if devices[0].Name != "TOMMY (Hall)" {
		t.Errorf("device name = %q", devices[0].Name)
	}
	if devices[0].ViaDevice != testInstance {
		t.Errorf("via_device = %q, want %q", devices[0].ViaDevice, testInstance)
	}
}

func TestCreateSensorEntitiesIdempotent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEntityRepository(db)
	ctx := context.Background()

	specs := testSpecs("z1", "Hall")
	if err := repo.CreateSensorEntities(ctx, specs); err != nil {
		t.Fatalf("first CreateSensorEntities() error = %v", err)
	}
	if err := repo.CreateSensorEntities(ctx, specs); err != nil {
		t.Fatalf("second CreateSensorEntities() error = %v", err)
	}

	entities, _ := repo.ListEntities(ctx)
	if len(entities) != 1 {
		t.Errorf("ListEntities() returned %d rows after replay, want 1", len(entities))
	}
}

func TestCreateSensorEntitiesRefreshesDeviceName(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEntityRepository(db)
	ctx := context.Background()

	if err := repo.CreateSensorEntities(ctx, testSpecs("z1", "Hall")); err != nil {
		t.Fatalf("CreateSensorEntities() error = %v", err)
	}
	if err := repo.CreateSensorEntities(ctx, testSpecs("z1", "Hallway")); err != nil {
		t.Fatalf("CreateSensorEntities() error = %v", err)
	}

	devices, _ := NewDeviceRepository(db, testInstance).ListDevices(ctx)
	if len(devices) != 1 {
		t.Fatalf("ListDevices() returned %d rows, want 1", len(devices))
	}
	if devices[0].Name != "TOMMY (Hallway)" {
		t.Errorf("device name = %q, want TOMMY (Hallway)", devices[0].Name)
	}
}

func TestCreateSensorEntitiesEmptyBatch(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEntityRepository(db)

	if err := repo.CreateSensorEntities(context.Background(), nil); err != nil {
		t.Errorf("CreateSensorEntities(nil) error = %v", err)
	}
}

// =============================================================================
// Entity Removal and Label Tests
// =============================================================================

func TestRemoveEntity(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEntityRepository(db)
	ctx := context.Background()

	if err := repo.CreateSensorEntities(ctx, testSpecs("z1", "Hall")); err != nil {
		t.Fatalf("CreateSensorEntities() error = %v", err)
	}

	if err := repo.RemoveEntity(ctx, "tommy-hub_zone_z1_motion"); err != nil {
		t.Fatalf("RemoveEntity() error = %v", err)
	}

	_, err := repo.LookupEntityByUniqueID(ctx, "tommy-hub_zone_z1_motion")
	if !errors.Is(err, zone.ErrEntityNotFound) {
		t.Errorf("LookupEntityByUniqueID() error = %v, want ErrEntityNotFound", err)
	}

	// Removing again is a no-op.
	if err := repo.RemoveEntity(ctx, "tommy-hub_zone_z1_motion"); err != nil {
		t.Errorf("repeat RemoveEntity() error = %v", err)
	}
}

func TestLabelOverrideLifecycle(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEntityRepository(db)
	ctx := context.Background()

	if err := repo.CreateSensorEntities(ctx, testSpecs("z1", "Hall")); err != nil {
		t.Fatalf("CreateSensorEntities() error = %v", err)
	}

	uniqueID := "tommy-hub_zone_z1_motion"
	if err := repo.SetEntityLabelOverride(ctx, uniqueID, "Front Hall Motion"); err != nil {
		t.Fatalf("SetEntityLabelOverride() error = %v", err)
	}

	entity, err := repo.LookupEntityByUniqueID(ctx, uniqueID)
	if err != nil {
		t.Fatalf("LookupEntityByUniqueID() error = %v", err)
	}
	if entity.LabelOverride != "Front Hall Motion" {
		t.Errorf("LabelOverride = %q", entity.LabelOverride)
	}

	if err := repo.ClearEntityLabelOverride(ctx, uniqueID); err != nil {
		t.Fatalf("ClearEntityLabelOverride() error = %v", err)
	}
	entity, _ = repo.LookupEntityByUniqueID(ctx, uniqueID)
	if entity.LabelOverride != "" {
		t.Errorf("LabelOverride = %q after clear, want empty", entity.LabelOverride)
	}
}

func TestSetEntityLabelOverrideMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEntityRepository(db)

	err := repo.SetEntityLabelOverride(context.Background(), "no-such-entity", "Label")
	if !errors.Is(err, zone.ErrEntityNotFound) {
		t.Errorf("SetEntityLabelOverride() error = %v, want ErrEntityNotFound", err)
	}
}

// =============================================================================
// Device Repository Tests
// =============================================================================

func TestEnsureDeviceBootstrapsHub(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDeviceRepository(db, testInstance)
	ctx := context.Background()

	if err := repo.EnsureDevice(ctx, testInstance, "TOMMY", ""); err != nil {
		t.Fatalf("EnsureDevice() error = %v", err)
	}
	// Re-running at the next startup refreshes rather than duplicates.
	if err := repo.EnsureDevice(ctx, testInstance, "TOMMY", ""); err != nil {
		t.Fatalf("repeat EnsureDevice() error = %v", err)
	}

	devices, err := repo.ListDevices(ctx)
	if err != nil {
		t.Fatalf("ListDevices() error = %v", err)
	}
	if len(devices) != 1 {
		t.Fatalf("ListDevices() returned %d rows, want 1", len(devices))
	}
	if devices[0].ViaDevice != "" {
		t.Errorf("hub via_device = %q, want empty", devices[0].ViaDevice)
	}
}

func TestLookupDeviceByZone(t *testing.T) {
	db := setupTestDB(t)
	entities := NewEntityRepository(db)
	devices := NewDeviceRepository(db, testInstance)
	ctx := context.Background()

	if err := entities.CreateSensorEntities(ctx, testSpecs("z1", "Hall")); err != nil {
		t.Fatalf("CreateSensorEntities() error = %v", err)
	}

	identifier, err := devices.LookupDeviceByZone(ctx, "z1")
	if err != nil {
		t.Fatalf("LookupDeviceByZone() error = %v", err)
	}
	if identifier != "tommy-hub_z1" {
		t.Errorf("identifier = %q, want tommy-hub_z1", identifier)
	}

	_, err = devices.LookupDeviceByZone(ctx, "z9")
	if !errors.Is(err, zone.ErrDeviceNotFound) {
		t.Errorf("LookupDeviceByZone(z9) error = %v, want ErrDeviceNotFound", err)
	}
}

func TestUpdateDeviceName(t *testing.T) {
	db := setupTestDB(t)
	entities := NewEntityRepository(db)
	devices := NewDeviceRepository(db, testInstance)
	ctx := context.Background()

	if err := entities.CreateSensorEntities(ctx, testSpecs("z1", "Hall")); err != nil {
		t.Fatalf("CreateSensorEntities() error = %v", err)
	}

	if err := devices.UpdateDeviceName(ctx, "tommy-hub_z1", "TOMMY (Hallway)"); err != nil {
		t.Fatalf("UpdateDeviceName() error = %v", err)
	}

	list, _ := devices.ListDevices(ctx)
	if list[0].Name != "TOMMY (Hallway)" {
		t.Errorf("name = %q, want TOMMY (Hallway)", list[0].Name)
	}

	// Renaming to the current name and renaming a missing device are
	// both no-ops.
	if err := devices.UpdateDeviceName(ctx, "tommy-hub_z1", "TOMMY (Hallway)"); err != nil {
		t.Errorf("same-name UpdateDeviceName() error = %v", err)
	}
	if err := devices.UpdateDeviceName(ctx, "tommy-hub_z9", "TOMMY (Ghost)"); err != nil {
		t.Errorf("missing-device UpdateDeviceName() error = %v", err)
	}
}

func TestRemoveDevice(t *testing.T) {
	db := setupTestDB(t)
	entities := NewEntityRepository(db)
	devices := NewDeviceRepository(db, testInstance)
	ctx := context.Background()

	if err := entities.CreateSensorEntities(ctx, testSpecs("z1", "Hall")); err != nil {
		t.Fatalf("CreateSensorEntities() error = %v", err)
	}

	if err := devices.RemoveDevice(ctx, "tommy-hub_z1"); err != nil {
		t.Fatalf("RemoveDevice() error = %v", err)
	}
	if _, err := devices.LookupDeviceByZone(ctx, "z1"); !errors.Is(err, zone.ErrDeviceNotFound) {
		t.Errorf("LookupDeviceByZone() error = %v after removal, want ErrDeviceNotFound", err)
	}

	if err := devices.RemoveDevice(ctx, "tommy-hub_z1"); err != nil {
		t.Errorf("repeat RemoveDevice() error = %v", err)
	}
}

// TestReconcilerAgainstSQLite wires the real repositories under the
// reconciler and walks a roster through add, rename and remove.
func TestReconcilerAgainstSQLite(t *testing.T) {
	db := setupTestDB(t)
	entities := NewEntityRepository(db)
	devices := NewDeviceRepository(db, testInstance)
	ctx := context.Background()

	r := zone.NewReconciler(testInstance, entities, devices)

	r.Update(ctx, []zone.ZoneInfo{{ID: "z1", Name: "Hall"}, {ID: "z2", Name: "Kitchen"}})
	rows, _ := entities.ListEntities(ctx)
	if len(rows) != 2 {
		t.Fatalf("entities = %d after add, want 2", len(rows))
	}

	r.Update(ctx, []zone.ZoneInfo{{ID: "z1", Name: "Hallway"}, {ID: "z2", Name: "Kitchen"}})
	list, _ := devices.ListDevices(ctx)
	var hallway bool
	for _, d := range list {
		if d.Identifier == "tommy-hub_z1" && d.Name == "TOMMY (Hallway)" {
			hallway = true
		}
	}
	if !hallway {
		t.Error("device not renamed after roster rename")
	}

	r.Update(ctx, []zone.ZoneInfo{{ID: "z2", Name: "Kitchen"}})
	rows, _ = entities.ListEntities(ctx)
	if len(rows) != 1 || rows[0].ZoneID != "z2" {
		t.Errorf("entities = %+v after removal, want only z2", rows)
	}
	if _, err := devices.LookupDeviceByZone(ctx, "z1"); !errors.Is(err, zone.ErrDeviceNotFound) {
		t.Error("device for removed zone still present")
	}
}
