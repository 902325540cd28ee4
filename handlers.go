package railtracker

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// handleTrains returns the current animated fleet snapshot.
func (s *Server) handleTrains(w http.ResponseWriter, r *http.Request) {
	positions := s.fleet.Positions()
	writeJSON(w, http.StatusOK, map[string]any{"trains": positions})
}

// handleFollow proxies upcoming ETAs for a single run.
func (s *Server) handleFollow(w http.ResponseWriter, r *http.Request) {
	rn := chi.URLParam(r, "rn")
	if rn == "" || strings.IndexFunc(rn, func(c rune) bool { return c < '0' || c > '9' }) >= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid run number"})
		return
	}
	if s.follower == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "follow not available"})
		return
	}
	result, err := s.follower.Follow(r.Context(), rn)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "failed to fetch train details"})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleGeoJSON serves the bundled network geometry.
func (s *Server) handleGeoJSON(w http.ResponseWriter, r *http.Request) {
	data, err := os.ReadFile(s.geojsonPath)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "network geometry not found"})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}
