package http

import (
	"encoding/json"
	"net/http"

	"ocstat/internal/schedulers"
)

// JobLister is satisfied by *schedulers.Scheduler.
type JobLister interface {
	Jobs() []schedulers.JobStatus
}

type healthResponse struct {
	Status string                 `json:"status"`
	Jobs   []schedulers.JobStatus `json:"jobs"`
}

type healthHandler struct {
	jobs JobLister
}

func NewHealthHandler(jobs JobLister) AppHttpHandler {
	return &healthHandler{jobs: jobs}
}

// Handle processes GET /healthz requests. A job whose last run failed does
// not make the process unhealthy; the error code is reported next to it.
func (h *healthHandler) Handle(w http.ResponseWriter, r *http.Request) error {
	resp := healthResponse{Status: "ok", Jobs: []schedulers.JobStatus{}}
	if h.jobs != nil {
		resp.Jobs = h.jobs.Jobs()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
	return nil
}
