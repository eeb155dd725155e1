package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/evdemand/core/metrics"
	"github.com/kilianp07/evdemand/core/model"
	"github.com/kilianp07/evdemand/core/request"
	"github.com/kilianp07/evdemand/core/scheduler"
	"github.com/kilianp07/evdemand/infra/mqtt"
)

type Config struct {
	MQTT      mqtt.Config      `json:"mqtt"`
	Scheduler scheduler.Config `json:"scheduler"`
	Metrics   metrics.Config   `json:"metrics"`
	Logging   LoggingConfig    `json:"logging"`
	Vehicles  []model.Vehicle  `json:"vehicles"`
	Requests  []request.Config `json:"requests"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults applies the defaults of every section.
func (c *Config) SetDefaults() {
	c.MQTT.SetDefaults()
	c.Scheduler.SetDefaults()
	c.Metrics.SetDefaults()
	c.Logging.SetDefaults()
	for i := range c.Requests {
		c.Requests[i].SetDefaults()
	}
}

// Validate checks every section and cross references between them.
func (c Config) Validate() error {
	if err := c.MQTT.Validate(); err != nil {
		return err
	}
	if err := c.Metrics.Validate(); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	vehicles := map[int]bool{}
	for _, v := range c.Vehicles {
		if vehicles[v.ID] {
			return fmt.Errorf("duplicate vehicle id %d", v.ID)
		}
		if err := v.Validate(); err != nil {
			return err
		}
		vehicles[v.ID] = true
	}
	appliances := map[string]bool{}
	for _, r := range c.Requests {
		if err := r.Validate(); err != nil {
			return err
		}
		if appliances[r.ApplianceID] {
			return fmt.Errorf("duplicate request for appliance %s", r.ApplianceID)
		}
		appliances[r.ApplianceID] = true
	}
	return nil
}
