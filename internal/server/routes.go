package server

import (
	"encoding/json"
	"net/http"

	"github.com/jackzampolin/sightread/internal/server/endpoints"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeDetail writes the endpoints' {"detail": msg} error body.
func writeDetail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, endpoints.ErrorResponse{Detail: msg})
}
