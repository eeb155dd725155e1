package request

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/evdemand/core/logger"
	"github.com/kilianp07/evdemand/core/meter"
	"github.com/kilianp07/evdemand/core/vehicle"
)

// Config describes a request loaded from configuration. Start and End are
// RFC 3339 timestamps; empty values leave the window open.
type Config struct {
	ApplianceID                  string `json:"appliance_id"`
	Kind                         string `json:"kind"`
	Start                        string `json:"start"`
	End                          string `json:"end"`
	AcceptControlRecommendations *bool  `json:"accept_control_recommendations"`

	VehicleID *int `json:"vehicle_id"`
	TargetSoc *int `json:"target_soc"`

	MinEnergyWh *int `json:"min_energy_wh"`
	MaxEnergyWh *int `json:"max_energy_wh"`

	MinRuntimeSeconds *int `json:"min_runtime_seconds"`
	MaxRuntimeSeconds *int `json:"max_runtime_seconds"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Kind == "" {
		c.Kind = KindSoc
	}
}

// Validate checks mandatory fields for the configured kind.
func (c Config) Validate() error {
	if c.ApplianceID == "" {
		return fmt.Errorf("appliance_id is required")
	}
	switch c.Kind {
	case KindSoc:
	case KindEnergy:
		if c.MaxEnergyWh == nil {
			return fmt.Errorf("%s: max_energy_wh is required", c.ApplianceID)
		}
	case KindRuntime:
		if c.MaxRuntimeSeconds == nil {
			return fmt.Errorf("%s: max_runtime_seconds is required", c.ApplianceID)
		}
	default:
		return fmt.Errorf("%s: %w %q", c.ApplianceID, ErrUnknownKind, c.Kind)
	}
	if _, _, err := c.window(); err != nil {
		return err
	}
	return nil
}

func (c Config) window() (time.Time, time.Time, error) {
	var start, end time.Time
	var err error
	if c.Start != "" {
		if start, err = time.Parse(time.RFC3339, c.Start); err != nil {
			return start, end, fmt.Errorf("%s: start: %w", c.ApplianceID, err)
		}
	}
	if c.End != "" {
		if end, err = time.Parse(time.RFC3339, c.End); err != nil {
			return start, end, fmt.Errorf("%s: end: %w", c.ApplianceID, err)
		}
	}
	if !start.IsZero() && !end.IsZero() && !end.After(start) {
		return start, end, fmt.Errorf("%s: end must be after start", c.ApplianceID)
	}
	return start, end, nil
}

// Deps are the collaborators shared by requests built from configuration.
type Deps struct {
	Vehicles vehicle.Registry
	Meters   *meter.Store
	Log      logger.Logger
}

// FromConfig builds the request described by cfg. Every request logs with
// a fresh plan_id field.
func FromConfig(cfg Config, deps Deps) (Request, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := logger.OrNop(deps.Log).With(map[string]any{"plan_id": uuid.NewString()})
	start, end, _ := cfg.window()
	base := Base{
		ID:                           cfg.ApplianceID,
		Start:                        start,
		End:                          end,
		AcceptControlRecommendations: cfg.AcceptControlRecommendations,
	}
	if deps.Meters != nil {
		base.Meter = deps.Meters.Get(cfg.ApplianceID)
	}
	switch cfg.Kind {
	case KindEnergy:
		return NewEnergyRequest(base, cfg.MinEnergyWh, *cfg.MaxEnergyWh, log), nil
	case KindRuntime:
		return NewRuntimeRequest(base, cfg.MinRuntimeSeconds, *cfg.MaxRuntimeSeconds, log), nil
	default:
		return NewSocRequest(base, cfg.TargetSoc, cfg.VehicleID, deps.Vehicles, log), nil
	}
}
