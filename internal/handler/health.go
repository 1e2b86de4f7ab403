package handler

import "net/http"

// HandleHealth: GET /api/health -> 200 {"status": "ok"}
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
