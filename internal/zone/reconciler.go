package zone

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// EntityRegistry persists sensor entity registrations. Implementations
// must be idempotent: registering an existing entity or removing a
// missing one is not an error.
type EntityRegistry interface {
	// CreateSensorEntities registers a batch of sensors and their
	// devices in one transaction.
	CreateSensorEntities(ctx context.Context, specs []SensorSpec) error

	// RemoveEntity deletes one entity registration by unique ID.
	RemoveEntity(ctx context.Context, uniqueID string) error

	// ClearEntityLabelOverride drops any user-assigned label so the
	// entity's display name follows the zone name again.
	ClearEntityLabelOverride(ctx context.Context, uniqueID string) error
}

// DeviceRegistry persists the device rows that group sensors by zone.
type DeviceRegistry interface {
	// LookupDeviceByZone resolves a zone's device identifier, or
	// ErrDeviceNotFound.
	LookupDeviceByZone(ctx context.Context, zoneID string) (string, error)

	// UpdateDeviceName renames a device. A no-op when the name already
	// matches.
	UpdateDeviceName(ctx context.Context, identifier, name string) error

	// RemoveDevice deletes a device row. Removing a missing device is
	// not an error.
	RemoveDevice(ctx context.Context, identifier string) error
}

// Reconciler converges the local sensor set onto the hub's zone roster.
//
// Each roster snapshot is diffed against the previous one: new zones get
// a motion sensor and registry rows, vanished zones get theirs removed,
// and renamed zones have their display names refreshed. The diff is
// driven purely by set membership, so replayed or duplicated snapshots
// reconcile to no work.
//
// Update is only ever called from the transport's dispatch goroutine;
// the lock exists for concurrent readers (the HTTP API) rather than for
// competing writers.
type Reconciler struct {
	instanceID string

	entities EntityRegistry
	devices  DeviceRegistry
	events   EventSink
	logger   Logger

	mu       sync.RWMutex
	snapshot map[string]string // zone ID -> name, last applied roster
	sensors  map[string]*MotionSensor
}

// NewReconciler creates a reconciler for the given hub instance. The
// registries may be nil, in which case roster changes are tracked but
// nothing is persisted.
func NewReconciler(instanceID string, entities EntityRegistry, devices DeviceRegistry) *Reconciler {
	return &Reconciler{
		instanceID: instanceID,
		entities:   entities,
		devices:    devices,
		logger:     noopLogger{},
		snapshot:   make(map[string]string),
		sensors:    make(map[string]*MotionSensor),
	}
}

// SetLogger sets the logger for the reconciler.
func (r *Reconciler) SetLogger(logger Logger) {
	if logger != nil {
		r.logger = logger
	}
}

// SetEventSink registers the sink notified of zone lifecycle and motion
// changes.
func (r *Reconciler) SetEventSink(sink EventSink) {
	r.events = sink
}

// Update reconciles the sensor set against a roster snapshot.
//
// Zones are processed additions first, then removals, then renames. A
// failure on one zone is logged and does not block the others, and the
// stored snapshot is replaced unconditionally so a transient error is
// retried only when the hub's roster actually changes again.
func (r *Reconciler) Update(ctx context.Context, roster []ZoneInfo) {
	current := make(map[string]string, len(roster))
	for _, z := range roster {
		current[z.ID] = z.Name
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var added, removed, renamed []ZoneInfo
	for id, name := range current {
		prev, ok := r.snapshot[id]
		switch {
		case !ok:
			added = append(added, ZoneInfo{ID: id, Name: name})
		case prev != name:
			renamed = append(renamed, ZoneInfo{ID: id, Name: name})
		}
	}
	for id, name := range r.snapshot {
		if _, ok := current[id]; !ok {
			removed = append(removed, ZoneInfo{ID: id, Name: name})
		}
	}

	// Deterministic processing order for logs and tests.
	sortZones(added)
	sortZones(removed)
	sortZones(renamed)

	if len(added) > 0 {
		r.addZones(ctx, added)
	}
	for _, z := range removed {
		r.removeZone(ctx, z)
	}
	for _, z := range renamed {
		r.renameZone(ctx, z)
	}

	r.snapshot = current
}

// addZones creates sensors and registry rows for new zones in one batch.
func (r *Reconciler) addZones(ctx context.Context, zones []ZoneInfo) {
	if r.entities == nil {
		r.logger.Warn("entity registry unavailable, skipping zone additions",
			"count", len(zones),
		)
		return
	}

	specs := make([]SensorSpec, 0, len(zones))
	for _, z := range zones {
		specs = append(specs, NewSensorSpec(r.instanceID, z))
	}

	if err := r.entities.CreateSensorEntities(ctx, specs); err != nil {
		r.logger.Error("sensor registration failed",
			"count", len(specs),
			"error", err,
		)
	}

	for i, z := range zones {
		sensor := NewMotionSensor(specs[i])
		if r.events != nil {
			zone := z
			sensor.Attach(func(s *MotionSensor) {
				motion, ok := s.CurrentState()
				if ok {
					r.events.MotionChanged(ZoneInfo{ID: zone.ID, Name: s.Name()}, motion)
				}
			})
		}
		r.sensors[z.ID] = sensor
		r.logger.Info("zone added", "zone_id", z.ID, "name", z.Name)
		if r.events != nil {
			r.events.ZoneAdded(z)
		}
	}
}

// removeZone drops a vanished zone's sensor, entity row and device row.
// The hub's own device is never removed.
func (r *Reconciler) removeZone(ctx context.Context, z ZoneInfo) {
	delete(r.sensors, z.ID)

	if r.entities != nil {
		uniqueID := SensorUniqueID(r.instanceID, z.ID)
		if err := r.entities.RemoveEntity(ctx, uniqueID); err != nil {
			r.logger.Error("entity removal failed",
				"zone_id", z.ID,
				"unique_id", uniqueID,
				"error", err,
			)
		}
	}

	if r.devices != nil {
		identifier, err := r.devices.LookupDeviceByZone(ctx, z.ID)
		switch {
		case errors.Is(err, ErrDeviceNotFound):
			// Already gone.
		case err != nil:
			r.logger.Error("device lookup failed", "zone_id", z.ID, "error", err)
		case identifier == r.instanceID:
			r.logger.Warn("refusing to remove hub device", "zone_id", z.ID)
		default:
			if err := r.devices.RemoveDevice(ctx, identifier); err != nil {
				r.logger.Error("device removal failed",
					"zone_id", z.ID,
					"identifier", identifier,
					"error", err,
				)
			}
		}
	}

	r.logger.Info("zone removed", "zone_id", z.ID, "name", z.Name)
	if r.events != nil {
		r.events.ZoneRemoved(z)
	}
}

// renameZone refreshes display names after a zone rename: the device
// name, the entity's label override, and the in-memory sensor.
func (r *Reconciler) renameZone(ctx context.Context, z ZoneInfo) {
	previous := r.snapshot[z.ID]

	if r.devices != nil {
		identifier := DeviceIdentifier(r.instanceID, z.ID)
		if err := r.devices.UpdateDeviceName(ctx, identifier, DeviceName(z.Name)); err != nil {
			r.logger.Error("device rename failed",
				"zone_id", z.ID,
				"identifier", identifier,
				"error", err,
			)
		}
	}

	if r.entities != nil {
		uniqueID := SensorUniqueID(r.instanceID, z.ID)
		if err := r.entities.ClearEntityLabelOverride(ctx, uniqueID); err != nil {
			r.logger.Error("label override reset failed",
				"zone_id", z.ID,
				"unique_id", uniqueID,
				"error", err,
			)
		}
	}

	if sensor, ok := r.sensors[z.ID]; ok {
		sensor.SetName(z.Name)
		sensor.SetDeviceInfo(DeviceName(z.Name))
		if sensor.Attached() {
			sensor.PublishState()
		}
	}

	r.logger.Info("zone renamed",
		"zone_id", z.ID,
		"previous", previous,
		"name", z.Name,
	)
	if r.events != nil {
		r.events.ZoneRenamed(z, previous)
	}
}

// Reset discards the in-memory zone table without touching the
// registries. Used on orchestrator shutdown: persisted rows survive so
// the next start reconciles against them instead of re-creating
// everything.
func (r *Reconciler) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshot = make(map[string]string)
	r.sensors = make(map[string]*MotionSensor)
}

// SensorByZone returns the sensor tracking a zone, if one exists.
func (r *Reconciler) SensorByZone(zoneID string) (*MotionSensor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sensor, ok := r.sensors[zoneID]
	return sensor, ok
}

// Snapshot returns the last applied roster, sorted by zone ID.
func (r *Reconciler) Snapshot() []ZoneInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	zones := make([]ZoneInfo, 0, len(r.snapshot))
	for id, name := range r.snapshot {
		zones = append(zones, ZoneInfo{ID: id, Name: name})
	}
	sortZones(zones)
	return zones
}

// Sensors returns all tracked sensors, sorted by zone ID.
func (r *Reconciler) Sensors() []*MotionSensor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sensors := make([]*MotionSensor, 0, len(r.sensors))
	for _, s := range r.sensors {
		sensors = append(sensors, s)
	}
	sort.Slice(sensors, func(i, j int) bool {
		return sensors[i].ZoneID() < sensors[j].ZoneID()
	})
	return sensors
}

func sortZones(zones []ZoneInfo) {
	sort.Slice(zones, func(i, j int) bool { return zones[i].ID < zones[j].ID })
}
