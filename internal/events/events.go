// Package events defines the typed events emitted by the reconciliation
// core and the bus they travel on. Interested parties (the websocket
// hub, tests) subscribe by event type.
package events

import (
	"time"

	eventbus "github.com/jilio/ebu"

	"github.com/nerrad567/tommy-core/internal/zone"
)

// MotionChanged is emitted whenever a sensor's motion state changes, and
// again after a rename so consumers pick up the new names.
type MotionChanged struct {
	ZoneID   string    `json:"zone_id"`
	ZoneName string    `json:"zone_name"`
	Motion   bool      `json:"motion"`
	At       time.Time `json:"at"`
}

// ZoneAdded is emitted when a zone appears in the hub's roster.
type ZoneAdded struct {
	ZoneID   string    `json:"zone_id"`
	ZoneName string    `json:"zone_name"`
	At       time.Time `json:"at"`
}

// ZoneRemoved is emitted when a zone vanishes from the hub's roster.
type ZoneRemoved struct {
	ZoneID   string    `json:"zone_id"`
	ZoneName string    `json:"zone_name"`
	At       time.Time `json:"at"`
}

// ZoneRenamed is emitted when a zone keeps its ID but changes name.
type ZoneRenamed struct {
	ZoneID       string    `json:"zone_id"`
	ZoneName     string    `json:"zone_name"`
	PreviousName string    `json:"previous_name"`
	At           time.Time `json:"at"`
}

// Bus adapts the event bus to the sink interface the reconciler
// notifies. Publishing is synchronous; slow consumers subscribe
// asynchronously so they cannot stall reconciliation.
type Bus struct {
	bus *eventbus.EventBus
	now func() time.Time
}

// NewBus wraps an event bus.
func NewBus(bus *eventbus.EventBus) *Bus {
	return &Bus{bus: bus, now: time.Now}
}

// Underlying exposes the wrapped bus for subscribers.
func (b *Bus) Underlying() *eventbus.EventBus {
	return b.bus
}

func (b *Bus) ZoneAdded(z zone.ZoneInfo) {
	eventbus.Publish(b.bus, ZoneAdded{ZoneID: z.ID, ZoneName: z.Name, At: b.now()})
}

func (b *Bus) ZoneRemoved(z zone.ZoneInfo) {
	eventbus.Publish(b.bus, ZoneRemoved{ZoneID: z.ID, ZoneName: z.Name, At: b.now()})
}

func (b *Bus) ZoneRenamed(z zone.ZoneInfo, previousName string) {
	eventbus.Publish(b.bus, ZoneRenamed{
		ZoneID:       z.ID,
		ZoneName:     z.Name,
		PreviousName: previousName,
		At:           b.now(),
	})
}

func (b *Bus) MotionChanged(z zone.ZoneInfo, motion bool) {
	eventbus.Publish(b.bus, MotionChanged{
		ZoneID:   z.ID,
		ZoneName: z.Name,
		Motion:   motion,
		At:       b.now(),
	})
}
