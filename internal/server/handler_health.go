package server

import (
	"net/http"
	"runtime"
	"time"

	"github.com/me/chorewheel/pkg/model"
)

type healthResponse struct {
	Status       string     `json:"status"`
	Version      string     `json:"version"`
	GoVersion    string     `json:"go_version"`
	Uptime       string     `json:"uptime"`
	Scheduler    string     `json:"scheduler"`
	LastRollover *time.Time `json:"last_rollover,omitempty"`
	Carried      int        `json:"carried"`
	Today        string     `json:"today"`
	Horizon      int        `json:"horizon"`
	MaxHorizon   int        `json:"max_horizon"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	resp := healthResponse{
		Status:     "healthy",
		Version:    Version,
		GoVersion:  runtime.Version(),
		Uptime:     time.Since(s.startTime).Round(time.Second).String(),
		Scheduler:  "disabled",
		Today:      s.tracker.Today().Format(model.DateFormat),
		Horizon:    s.tracker.Horizon(),
		MaxHorizon: s.tracker.MaxHorizon(),
	}
	if s.scheduler != nil {
		resp.Scheduler = "enabled"
		last, carried := s.scheduler.Stats()
		if !last.IsZero() {
			resp.LastRollover = &last
		}
		resp.Carried = carried
	}
	respondOK(w, reqID, resp)
}
