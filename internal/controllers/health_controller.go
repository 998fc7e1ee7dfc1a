package controllers

import (
	"fmt"
	"leetfresh/internal/services"
	"net/http"
	"time"
)

const (
	healthOK     = "ok"
	healthNoData = "no_data"
)

type HealthController struct {
	orchestrator services.SyncOrchestratorInterface
	snapshots    services.FreshnessCacheInterface
	pages        services.PageRegistryInterface
	startTime    time.Time
	clock        func() time.Time
}

type healthResponse struct {
	Status        string  `json:"status"`
	Uptime        string  `json:"uptime"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	SyncState     string  `json:"sync_state"`
	OpenPages     int     `json:"open_pages"`

	Username    string `json:"username,omitempty"`
	Problems    int    `json:"problems"`
	Generation  uint64 `json:"generation"`
	LastUpdated string `json:"last_updated,omitempty"`
	SnapshotAge string `json:"snapshot_age,omitempty"`
}

// Health reports liveness plus the state of the freshness snapshot. A daemon
// that has never synced is still healthy; it reports status no_data.
func (hc *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	now := hc.clock()
	uptime := now.Sub(hc.startTime)
	resp := healthResponse{
		Status:        healthNoData,
		Uptime:        formatDuration(uptime),
		UptimeSeconds: uptime.Seconds(),
		SyncState:     hc.orchestrator.State().String(),
		OpenPages:     hc.pages.Len(),
	}
	if snap := hc.snapshots.Current(); snap != nil {
		updated := time.UnixMilli(snap.LastUpdated).UTC()
		resp.Status = healthOK
		resp.Username = snap.Username
		resp.Problems = len(snap.Problems)
		resp.Generation = snap.Generation
		resp.LastUpdated = updated.Format(time.RFC3339)
		resp.SnapshotAge = formatDuration(now.Sub(updated))
	}

	writeJSON(w, http.StatusOK, resp)
}

func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
}

func NewHealthController(orchestrator services.SyncOrchestratorInterface, snapshots services.FreshnessCacheInterface, pages services.PageRegistryInterface) *HealthController {
	return &HealthController{
		orchestrator: orchestrator,
		snapshots:    snapshots,
		pages:        pages,
		startTime:    time.Now(),
		clock:        time.Now,
	}
}
