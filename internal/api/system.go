package api

import (
	"net/http"
	"runtime"
	"time"
)

// systemResponse is the system status payload.
type systemResponse struct {
	Version       string `json:"version"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	HubConnected  bool   `json:"hub_connected"`
	ZoneCount     int    `json:"zone_count"`
	WSClients     int    `json:"ws_clients"`
	Goroutines    int    `json:"goroutines"`
	GoVersion     string `json:"go_version"`
}

// handleSystem returns runtime and pipeline status for monitoring.
func (s *Server) handleSystem(w http.ResponseWriter, _ *http.Request) {
	connected := false
	if s.hubState != nil {
		connected = s.hubState.Connected()
	}

	clients := 0
	if s.hub != nil {
		clients = s.hub.ClientCount()
	}

	writeJSON(w, http.StatusOK, systemResponse{
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
		HubConnected:  connected,
		ZoneCount:     len(s.zones.Snapshot()),
		WSClients:     clients,
		Goroutines:    runtime.NumGoroutine(),
		GoVersion:     runtime.Version(),
	})
}
