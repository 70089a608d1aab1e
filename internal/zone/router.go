package zone

// SensorLookup resolves zone IDs to their sensors. Implemented by the
// Reconciler.
type SensorLookup interface {
	SensorByZone(zoneID string) (*MotionSensor, bool)
}

// Router applies decoded motion updates to the matching sensor.
//
// Updates for zones with no sensor are ignored: the hub can emit motion
// for a zone before its roster entry has been reconciled, and the next
// state message fills the gap. Updates that do not change the sensor's
// state are absorbed without notifying anyone.
type Router struct {
	sensors SensorLookup
	logger  Logger
}

// NewRouter creates a router over the given sensor set.
func NewRouter(sensors SensorLookup) *Router {
	return &Router{
		sensors: sensors,
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the router.
func (r *Router) SetLogger(logger Logger) {
	if logger != nil {
		r.logger = logger
	}
}

// Route delivers one motion observation. Returns true if a sensor's
// state changed as a result.
func (r *Router) Route(zoneID string, motion bool) bool {
	sensor, ok := r.sensors.SensorByZone(zoneID)
	if !ok {
		r.logger.Debug("motion for unknown zone ignored", "zone_id", zoneID)
		return false
	}

	if !sensor.SetState(motion) {
		return false
	}

	r.logger.Debug("motion state changed",
		"zone_id", zoneID,
		"motion", motion,
	)
	return true
}
