package api

import "net/http"

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"queue_depth":   s.orchestrator.QueueDepth(),
		"open_sessions": s.orchestrator.Sessions().Len(),
		"conversions":   s.orchestrator.Worker().Stats(),
	})
}
