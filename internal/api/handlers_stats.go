package api

import (
	"net/http"
)

// handleSimilarityStats reports which provider is active and how the
// embedding endpoint has been behaving.
func (s *Server) handleSimilarityStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"provider": s.sim.Info(),
		"degraded": s.sim.Degraded(),
		"calls":    s.sim.Stats().Snapshot(),
	})
}
