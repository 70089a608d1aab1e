package zone

import (
	"encoding/json"
	"fmt"
)

// Motion state literals used by the hub on the zone-state topic.
const (
	motionDetected = "detected"
	motionHolding  = "holding"
	motionClear    = "clear"
)

// StateUpdate is a decoded zone-state message. Roster is the complete
// zone set carried alongside the motion event; an empty Roster means the
// hub reported zero zones.
type StateUpdate struct {
	ZoneID string
	Motion bool
	Roster []ZoneInfo
}

// rawState mirrors the hub's zone-state JSON. Pointer fields distinguish
// absent keys from zero values so presence can be validated.
type rawState struct {
	ZoneID *string     `json:"zoneId"`
	Motion *string     `json:"motion"`
	Zones  *[]rawEntry `json:"zones"`
}

// rawConfig mirrors the hub's zone-config JSON.
type rawConfig struct {
	Zones *[]rawEntry `json:"zones"`
}

type rawEntry struct {
	ID   *string `json:"id"`
	Name *string `json:"name"`
}

// Decoder parses hub payloads into domain values. Malformed messages are
// reported as ErrMalformedPayload so callers can drop them. Rosters are
// all-or-nothing: a single entry missing its id or name rejects the whole
// message, so a partial snapshot is never applied.
type Decoder struct {
	logger Logger
}

// NewDecoder creates a decoder with no-op logging.
func NewDecoder() *Decoder {
	return &Decoder{logger: noopLogger{}}
}

// SetLogger sets the logger for the decoder.
func (d *Decoder) SetLogger(logger Logger) {
	if logger != nil {
		d.logger = logger
	}
}

// DecodeRoster parses a zone-config payload into the zones it lists.
//
// Returns:
//   - ErrMalformedPayload: payload is not valid JSON, the zones array is
//     missing, or an entry lacks an id or name
func (d *Decoder) DecodeRoster(payload []byte) ([]ZoneInfo, error) {
	var raw rawConfig
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if raw.Zones == nil {
		return nil, fmt.Errorf("%w: zones missing", ErrMalformedPayload)
	}
	return collectZones(*raw.Zones)
}

// DecodeState parses a zone-state payload.
//
// The motion literal is mapped conservatively: detected and holding mean
// motion, clear means no motion, and anything else is treated as no
// motion with a warning so a hub firmware change degrades safely instead
// of latching a sensor on.
//
// Returns:
//   - ErrMalformedPayload: payload is not valid JSON, any of zoneId,
//     motion, or zones is missing, or a zone entry lacks an id or name
func (d *Decoder) DecodeState(payload []byte) (StateUpdate, error) {
	var raw rawState
	if err := json.Unmarshal(payload, &raw); err != nil {
		return StateUpdate{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if raw.ZoneID == nil || raw.Motion == nil || raw.Zones == nil {
		return StateUpdate{}, fmt.Errorf("%w: zoneId, motion, or zones missing", ErrMalformedPayload)
	}

	roster, err := collectZones(*raw.Zones)
	if err != nil {
		return StateUpdate{}, err
	}

	update := StateUpdate{ZoneID: *raw.ZoneID, Roster: roster}

	switch *raw.Motion {
	case motionDetected, motionHolding:
		update.Motion = true
	case motionClear:
		update.Motion = false
	default:
		d.logger.Warn("unrecognised motion state, treating as clear",
			"zone_id", update.ZoneID,
			"motion", *raw.Motion,
		)
		update.Motion = false
	}

	return update, nil
}

// collectZones validates roster entries. Every entry must carry an id
// and a name.
func collectZones(entries []rawEntry) ([]ZoneInfo, error) {
	zones := make([]ZoneInfo, 0, len(entries))
	for i, entry := range entries {
		if entry.ID == nil || *entry.ID == "" || entry.Name == nil {
			return nil, fmt.Errorf("%w: zone entry %d missing id or name", ErrMalformedPayload, i)
		}
		zones = append(zones, ZoneInfo{ID: *entry.ID, Name: *entry.Name})
	}
	return zones, nil
}
