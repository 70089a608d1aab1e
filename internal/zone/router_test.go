package zone

import (
	"context"
	"testing"
)

func newRoutedReconciler(t *testing.T) (*Reconciler, *Router) {
	t.Helper()
	r, _, _ := newTestReconciler()
	r.Update(context.Background(), roster("z1", "Hall"))
	return r, NewRouter(r)
}

func TestRouteUnknownZone(t *testing.T) {
	_, router := newRoutedReconciler(t)

	if router.Route("no-such-zone", true) {
		t.Error("Route() = true for unknown zone, want false")
	}
}

func TestRouteSetsState(t *testing.T) {
	r, router := newRoutedReconciler(t)

	if !router.Route("z1", true) {
		t.Fatal("Route() = false, want true")
	}

	sensor, _ := r.SensorByZone("z1")
	motion, ok := sensor.CurrentState()
	if !ok || !motion {
		t.Errorf("CurrentState() = (%v, %v), want (true, true)", motion, ok)
	}
}

func TestRouteDeduplicates(t *testing.T) {
	r, router := newRoutedReconciler(t)
	sink := &fakeSink{}
	r.SetEventSink(sink)

	// Re-add so the sensor picks up the sink's publish hook.
	r.Update(context.Background(), roster())
	r.Update(context.Background(), roster("z1", "Hall"))

	if !router.Route("z1", true) {
		t.Fatal("first Route() = false, want true")
	}
	if router.Route("z1", true) {
		t.Error("duplicate Route() = true, want false")
	}
	if !router.Route("z1", false) {
		t.Error("transition Route() = false, want true")
	}

	if len(sink.motion) != 2 {
		t.Errorf("motion notifications = %v, want 2", sink.motion)
	}
}

func TestRouteFirstObservationAlwaysChanges(t *testing.T) {
	_, router := newRoutedReconciler(t)

	// Even "no motion" is a change while the state is unknown.
	if !router.Route("z1", false) {
		t.Error("first clear observation should count as a change")
	}
	if router.Route("z1", false) {
		t.Error("repeated clear observation should not count as a change")
	}
}
