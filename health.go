package railtracker

import "net/http"

type healthResponse struct {
	Status           string `json:"status"`
	Vehicles         int    `json:"vehicles"`
	LastRefreshEpoch int64  `json:"last_refresh_epoch"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:   "ok",
		Vehicles: s.fleet.VehicleCount(),
	}
	if t := s.fleet.LastRefresh(); !t.IsZero() {
		resp.LastRefreshEpoch = t.Unix()
	}
	writeJSON(w, http.StatusOK, resp)
}
