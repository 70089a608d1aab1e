package zone

import "fmt"

// ZoneInfo is one zone as reported by the hub's roster.
type ZoneInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SensorSpec describes one motion sensor entity to be registered,
// including the device it belongs to. Identifiers are derived from the
// hub instance and zone IDs so they stay stable across restarts.
type SensorSpec struct {
	UniqueID         string
	ZoneID           string
	ZoneName         string
	DeviceIdentifier string
	DeviceName       string
	ViaDevice        string
}

// SensorUniqueID derives the stable entity identifier for a zone's
// motion sensor.
func SensorUniqueID(instanceID, zoneID string) string {
	return fmt.Sprintf("%s_zone_%s_motion", instanceID, zoneID)
}

// DeviceIdentifier derives the stable device identifier for a zone.
// The hub device itself is identified by the bare instance ID.
func DeviceIdentifier(instanceID, zoneID string) string {
	return fmt.Sprintf("%s_%s", instanceID, zoneID)
}

// DeviceName formats the display name for a zone's device.
func DeviceName(zoneName string) string {
	return fmt.Sprintf("TOMMY (%s)", zoneName)
}

// NewSensorSpec builds the full spec for a zone under the given hub
// instance.
func NewSensorSpec(instanceID string, z ZoneInfo) SensorSpec {
	return SensorSpec{
		UniqueID:         SensorUniqueID(instanceID, z.ID),
		ZoneID:           z.ID,
		ZoneName:         z.Name,
		DeviceIdentifier: DeviceIdentifier(instanceID, z.ID),
		DeviceName:       DeviceName(z.Name),
		ViaDevice:        instanceID,
	}
}

// EventSink receives zone lifecycle and motion notifications. All
// methods are invoked from the single reconciliation goroutine.
type EventSink interface {
	ZoneAdded(zone ZoneInfo)
	ZoneRemoved(zone ZoneInfo)
	ZoneRenamed(zone ZoneInfo, previousName string)
	MotionChanged(zone ZoneInfo, motion bool)
}
