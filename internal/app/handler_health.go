package app

import (
	"encoding/json"
	"net/http"

	"github.com/Kirosoft/ProductOwnerCoPilot/internal/core/constants"
)

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set(constants.ContentTypeHeader, constants.ContentTypeJSON)
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(payload)
}

// healthHandler handles health check requests
func (a *Application) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "healthy"})
}
