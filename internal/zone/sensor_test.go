package zone

import "testing"

func testSpec() SensorSpec {
	return NewSensorSpec("tommy-hub", ZoneInfo{ID: "z1", Name: "Hall"})
}

func TestSensorIdentifiers(t *testing.T) {
	s := NewMotionSensor(testSpec())

	if s.UniqueID() != "tommy-hub_zone_z1_motion" {
		t.Errorf("UniqueID() = %q", s.UniqueID())
	}
	if s.ZoneID() != "z1" {
		t.Errorf("ZoneID() = %q", s.ZoneID())
	}
	identifier, name := s.DeviceInfo()
	if identifier != "tommy-hub_z1" {
		t.Errorf("device identifier = %q", identifier)
	}
	if name != "TOMMY (Hall)" {
		t.Errorf("device name = %q", name)
	}
}

func TestSensorStateUnknownUntilFirstUpdate(t *testing.T) {
	s := NewMotionSensor(testSpec())

	if _, ok := s.CurrentState(); ok {
		t.Error("CurrentState() ok = true before any update")
	}

	if !s.SetState(false) {
		t.Error("SetState() = false for first observation")
	}
	if motion, ok := s.CurrentState(); !ok || motion {
		t.Errorf("CurrentState() = (%v, %v), want (false, true)", motion, ok)
	}
}

func TestSensorSetStateDeduplicates(t *testing.T) {
	s := NewMotionSensor(testSpec())

	s.SetState(true)
	if s.SetState(true) {
		t.Error("SetState() = true for unchanged state")
	}
	if !s.SetState(false) {
		t.Error("SetState() = false for changed state")
	}
}

func TestSensorPublishHook(t *testing.T) {
	s := NewMotionSensor(testSpec())

	var calls int
	s.Attach(func(*MotionSensor) { calls++ })

	s.SetState(true)
	s.SetState(true) // deduplicated, no publish
	s.PublishState()

	if calls != 2 {
		t.Errorf("publish calls = %d, want 2", calls)
	}
	if !s.Attached() {
		t.Error("Attached() = false after Attach")
	}
}

func TestSensorRename(t *testing.T) {
	s := NewMotionSensor(testSpec())

	s.SetName("Hallway")
	s.SetDeviceInfo("TOMMY (Hallway)")

	if s.Name() != "Hallway" {
		t.Errorf("Name() = %q", s.Name())
	}
	identifier, name := s.DeviceInfo()
	if identifier != "tommy-hub_z1" {
		t.Error("device identifier must not change on rename")
	}
	if name != "TOMMY (Hallway)" {
		t.Errorf("device name = %q", name)
	}
}
