package requests

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/kilianp07/evdemand/core/request"
)

// Status is the JSON view of a scheduled request.
type Status struct {
	ApplianceID    string `json:"appliance_id"`
	Kind           string `json:"kind"`
	State          string `json:"state"`
	Enabled        bool   `json:"enabled"`
	MinWh          *int   `json:"min_wh"`
	MaxWh          *int   `json:"max_wh"`
	OptionalEnergy bool   `json:"optional_energy"`
	Description    string `json:"description"`
}

// Source gives access to the scheduled requests.
type Source interface {
	Requests() []request.Request
	Get(applianceID string) (request.Request, bool)
}

func statusOf(req request.Request, t time.Time) Status {
	return Status{
		ApplianceID:    req.ApplianceID(),
		Kind:           req.Kind(),
		State:          request.StateOf(req, t).String(),
		Enabled:        req.Enabled(),
		MinWh:          req.Min(t),
		MaxWh:          req.Max(t),
		OptionalEnergy: req.UsesOptionalEnergy(),
		Description:    req.String(),
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// NewStatusHandler returns an HTTP handler exposing request status data via
// GET /api/requests. The kind and state query parameters filter the output.
func NewStatusHandler(src Source, now func() time.Time) http.Handler {
	if now == nil {
		now = time.Now
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		kind := r.URL.Query().Get("kind")
		state := r.URL.Query().Get("state")
		t := now()
		out := []Status{}
		for _, req := range src.Requests() {
			st := statusOf(req, t)
			if kind != "" && st.Kind != kind {
				continue
			}
			if state != "" && st.State != state {
				continue
			}
			out = append(out, st)
		}
		writeJSON(w, out)
	})
}

// NewDetailHandler returns an HTTP handler exposing a single request via
// GET /api/requests/{appliance_id}.
func NewDetailHandler(src Source, now func() time.Time) http.Handler {
	if now == nil {
		now = time.Now
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["appliance_id"]
		req, ok := src.Get(id)
		if !ok {
			http.Error(w, "unknown appliance "+id, http.StatusNotFound)
			return
		}
		writeJSON(w, statusOf(req, now()))
	})
}
