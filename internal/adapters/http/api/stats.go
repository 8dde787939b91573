package api

import (
	"maps"
	"net/http"
	"time"
)

// StatsProvider reports engine statistics.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// StatsHandler serves engine stats plus the server's own uptime.
type StatsHandler struct {
	provider StatsProvider
	started  time.Time
	now      func() time.Time
}

// NewStatsHandler creates a stats handler; uptime counts from now.
func NewStatsHandler(provider StatsProvider) *StatsHandler {
	return &StatsHandler{provider: provider, started: time.Now(), now: time.Now}
}

// HandleStats handles GET /stats requests.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, _ *http.Request) {
	stats := make(map[string]interface{})
	maps.Copy(stats, h.provider.GetStats())
	uptime := h.now().Sub(h.started)
	stats["uptime"] = uptime.Truncate(time.Second).String()
	stats["uptimeSeconds"] = int64(uptime.Seconds())
	writeJSON(w, http.StatusOK, stats)
}
