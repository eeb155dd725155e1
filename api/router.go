// Package api exposes the scheduler state and the Prometheus metrics over HTTP.
package api

import (
	"io"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/kilianp07/evdemand/api/requests"
	"github.com/kilianp07/evdemand/api/vehicles"
	"github.com/kilianp07/evdemand/core/logger"
	"github.com/kilianp07/evdemand/infra/metrics"
)

// Deps are the data sources served by the router.
type Deps struct {
	Requests requests.Source
	Vehicles vehicles.Lister
	Log      logger.Logger
	Now      func() time.Time
}

// NewRouter builds the HTTP routes. Every request is logged at debug level
// and panics in handlers are turned into 500 responses.
func NewRouter(d Deps) http.Handler {
	log := logger.OrNop(d.Log)
	r := mux.NewRouter()
	r.HandleFunc("/health", healthHandler).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler(nil)).Methods(http.MethodGet)
	if d.Requests != nil {
		r.Handle("/api/requests", requests.NewStatusHandler(d.Requests, d.Now)).Methods(http.MethodGet)
		r.Handle("/api/requests/{appliance_id}", requests.NewDetailHandler(d.Requests, d.Now)).Methods(http.MethodGet)
	}
	if d.Vehicles != nil {
		r.Handle("/api/vehicles", vehicles.NewListHandler(d.Vehicles)).Methods(http.MethodGet)
	}
	logged := handlers.CustomLoggingHandler(io.Discard, r, func(_ io.Writer, p handlers.LogFormatterParams) {
		log.Debugw("http request", map[string]any{
			"method": p.Request.Method,
			"path":   p.URL.Path,
			"status": p.StatusCode,
			"size":   p.Size,
		})
	})
	return handlers.RecoveryHandler(handlers.RecoveryLogger(recoveryLogger{log}))(logged)
}

type recoveryLogger struct {
	log logger.Logger
}

func (l recoveryLogger) Println(args ...interface{}) {
	l.log.Errorf("http handler panic: %v", args)
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
