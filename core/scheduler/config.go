package scheduler

import "time"

// Config defines the scheduling loop parameters.
type Config struct {
	TickIntervalSeconds int `json:"tick_interval_seconds"`
	// RemoveFinished drops requests from the scheduler once they finish.
	RemoveFinished bool `json:"remove_finished"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.TickIntervalSeconds <= 0 {
		c.TickIntervalSeconds = 60
	}
}

// TickInterval returns the tick period.
func (c Config) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalSeconds) * time.Second
}
