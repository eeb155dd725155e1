package metrics

import "fmt"

// Config defines settings for metrics sinks.
type Config struct {
	PrometheusEnabled bool     `json:"prometheus_enabled"`
	PrometheusPort    string   `json:"prometheus_port"`
	InfluxEnabled     bool     `json:"influx_enabled"`
	InfluxURL         string   `json:"influx_url"`
	InfluxToken       string   `json:"influx_token"`
	InfluxOrg         string   `json:"influx_org"`
	InfluxBucket      string   `json:"influx_bucket"`
	KafkaEnabled      bool     `json:"kafka_enabled"`
	KafkaBrokers      []string `json:"kafka_brokers"`
	KafkaTopic        string   `json:"kafka_topic"`
	// LogEvents writes every recorded event to the service log.
	LogEvents bool `json:"log_events"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.PrometheusPort == "" {
		c.PrometheusPort = ":2112"
	}
	if c.KafkaTopic == "" {
		c.KafkaTopic = "evdemand.events"
	}
}

// Validate checks that enabled sinks are fully configured.
func (c Config) Validate() error {
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("kafka sink requires kafka_brokers")
	}
	if c.InfluxEnabled && c.InfluxURL == "" {
		return fmt.Errorf("influx sink requires influx_url")
	}
	return nil
}
