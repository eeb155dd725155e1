package vehicles

import (
	"encoding/json"
	"net/http"

	"github.com/kilianp07/evdemand/core/model"
)

// Lister lists the known vehicle profiles.
type Lister interface {
	List() []model.Vehicle
}

// NewListHandler returns an HTTP handler exposing the vehicle profiles via GET /api/vehicles.
func NewListHandler(src Lister) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(src.List()); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}
