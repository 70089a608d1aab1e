package zone

import "sync"

// MotionSensor holds the motion state of one zone.
//
// State starts unknown: until the first motion message for the zone
// arrives, CurrentState reports ok=false. Sensors are mutated only from
// the reconciliation goroutine, but read concurrently by the API layer,
// so access is guarded.
type MotionSensor struct {
	mu sync.RWMutex

	uniqueID         string
	zoneID           string
	name             string
	deviceIdentifier string
	deviceName       string

	motion bool
	known  bool

	// publish is invoked after every observable change (state, name or
	// device info) while attached. Nil until Attach.
	publish func(s *MotionSensor)
}

// NewMotionSensor creates a sensor from its registration spec.
func NewMotionSensor(spec SensorSpec) *MotionSensor {
	return &MotionSensor{
		uniqueID:         spec.UniqueID,
		zoneID:           spec.ZoneID,
		name:             spec.ZoneName,
		deviceIdentifier: spec.DeviceIdentifier,
		deviceName:       spec.DeviceName,
	}
}

// UniqueID returns the sensor's stable entity identifier.
func (s *MotionSensor) UniqueID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.uniqueID
}

// ZoneID returns the hub zone this sensor tracks.
func (s *MotionSensor) ZoneID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.zoneID
}

// Name returns the sensor's display name, which follows the zone name.
func (s *MotionSensor) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

// DeviceInfo returns the identifier and display name of the device the
// sensor belongs to.
func (s *MotionSensor) DeviceInfo() (identifier, name string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.deviceIdentifier, s.deviceName
}

// CurrentState returns the last observed motion state. ok is false until
// the first state update arrives.
func (s *MotionSensor) CurrentState() (motion, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.motion, s.known
}

// SetState records a motion observation. Returns true if the observable
// state changed, which includes the transition from unknown to known.
func (s *MotionSensor) SetState(motion bool) bool {
	s.mu.Lock()
	if s.known && s.motion == motion {
		s.mu.Unlock()
		return false
	}
	s.motion = motion
	s.known = true
	fn := s.publish
	s.mu.Unlock()

	if fn != nil {
		fn(s)
	}
	return true
}

// SetName updates the display name after a zone rename.
func (s *MotionSensor) SetName(name string) {
	s.mu.Lock()
	s.name = name
	s.mu.Unlock()
}

// SetDeviceInfo updates the owning device's display name after a zone
// rename. The identifier never changes.
func (s *MotionSensor) SetDeviceInfo(deviceName string) {
	s.mu.Lock()
	s.deviceName = deviceName
	s.mu.Unlock()
}

// Attach registers the publish hook. A sensor is attached once its
// entity registration has completed; until then changes are held
// locally.
func (s *MotionSensor) Attach(publish func(s *MotionSensor)) {
	s.mu.Lock()
	s.publish = publish
	s.mu.Unlock()
}

// Attached reports whether a publish hook is registered.
func (s *MotionSensor) Attached() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.publish != nil
}

// PublishState re-announces the sensor through its publish hook, if
// attached. Used after renames so downstream consumers see the new
// names without waiting for the next motion change.
func (s *MotionSensor) PublishState() {
	s.mu.RLock()
	fn := s.publish
	s.mu.RUnlock()
	if fn != nil {
		fn(s)
	}
}
