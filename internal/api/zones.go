package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// zoneResponse is one zone with its live motion state. Motion is null
// until the first state update for the zone arrives.
type zoneResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Motion     *bool  `json:"motion"`
	UniqueID   string `json:"unique_id,omitempty"`
	DeviceID   string `json:"device_identifier,omitempty"`
	DeviceName string `json:"device_name,omitempty"`
}

// handleListZones returns the reconciled zone set with motion state.
func (s *Server) handleListZones(w http.ResponseWriter, _ *http.Request) {
	snapshot := s.zones.Snapshot()

	zones := make([]zoneResponse, 0, len(snapshot))
	for _, z := range snapshot {
		zones = append(zones, s.zoneResponseFor(z.ID, z.Name))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"zones": zones,
		"count": len(zones),
	})
}

// handleGetZone returns one zone by ID.
func (s *Server) handleGetZone(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeBadRequest(w, "zone id is required")
		return
	}

	for _, z := range s.zones.Snapshot() {
		if z.ID == id {
			writeJSON(w, http.StatusOK, s.zoneResponseFor(z.ID, z.Name))
			return
		}
	}
	writeNotFound(w, "zone not found: "+id)
}

// zoneResponseFor assembles the response for one zone, folding in the
// sensor's live state when a sensor exists.
func (s *Server) zoneResponseFor(id, name string) zoneResponse {
	resp := zoneResponse{ID: id, Name: name}

	sensor, ok := s.zones.SensorByZone(id)
	if !ok {
		return resp
	}

	resp.UniqueID = sensor.UniqueID()
	resp.DeviceID, resp.DeviceName = sensor.DeviceInfo()
	if motion, known := sensor.CurrentState(); known {
		resp.Motion = &motion
	}
	return resp
}

// handleListDevices returns the persisted device registry.
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	if s.devices == nil {
		writeJSON(w, http.StatusOK, map[string]any{"devices": []any{}, "count": 0})
		return
	}

	devices, err := s.devices.ListDevices(r.Context())
	if err != nil {
		s.logger.Error("listing devices failed", "error", err)
		writeInternalError(w, "failed to list devices")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"devices": devices,
		"count":   len(devices),
	})
}

// handleListEntities returns the persisted entity registry.
func (s *Server) handleListEntities(w http.ResponseWriter, r *http.Request) {
	if s.entities == nil {
		writeJSON(w, http.StatusOK, map[string]any{"entities": []any{}, "count": 0})
		return
	}

	entities, err := s.entities.ListEntities(r.Context())
	if err != nil {
		s.logger.Error("listing entities failed", "error", err)
		writeInternalError(w, "failed to list entities")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"entities": entities,
		"count":    len(entities),
	})
}
