package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/kilianp07/evdemand/core/events"
	"github.com/kilianp07/evdemand/core/meter"
	"github.com/kilianp07/evdemand/infra/logger"
	"github.com/kilianp07/evdemand/internal/eventbus"
)

// Default topics. A single "+" segment in the subscription topics carries
// the appliance identifier; SwitchTopic is a format string taking it.
const (
	DefaultSocTopic    = "charger/+/soc"
	DefaultMeterTopic  = "meter/+/energy"
	DefaultSwitchTopic = "appliance/%s/switch"
)

// Config defines the connection parameters for the Paho MQTT client.
type Config struct {
	Broker      string          `json:"broker"`
	ClientID    string          `json:"client_id"`
	Username    string          `json:"username"`
	Password    string          `json:"password"`
	SocTopic    string          `json:"soc_topic"`
	MeterTopic  string          `json:"meter_topic"`
	SwitchTopic string          `json:"switch_topic"`
	UseTLS      bool            `json:"use_tls"`
	ClientCert  string          `json:"client_cert"`
	ClientKey   string          `json:"client_key"`
	CABundle    string          `json:"ca_bundle"`
	AuthMethod  string          `json:"auth_method"`
	QoS         map[string]byte `json:"qos"`
	LWTTopic    string          `json:"lwt_topic"`
	LWTPayload  string          `json:"lwt_payload"`
	LWTQoS      byte            `json:"lwt_qos"`
	LWTRetain   bool            `json:"lwt_retain"`
	MaxRetries  int             `json:"max_retries"`
	BackoffMS   int             `json:"backoff_ms"`
	TLSConfig   *tls.Config     `json:"-"`
}

// SetDefaults applies the default topics and retry settings.
func (c *Config) SetDefaults() {
	if c.SocTopic == "" {
		c.SocTopic = DefaultSocTopic
	}
	if c.MeterTopic == "" {
		c.MeterTopic = DefaultMeterTopic
	}
	if c.SwitchTopic == "" {
		c.SwitchTopic = DefaultSwitchTopic
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.BackoffMS <= 0 {
		c.BackoffMS = 100
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.Broker == "" {
		return fmt.Errorf("mqtt broker is required")
	}
	for _, topic := range []string{c.SocTopic, c.MeterTopic} {
		if topic != "" && wildcardIndex(topic) < 0 {
			return fmt.Errorf("topic %q needs a single + segment for the appliance id", topic)
		}
	}
	if c.SwitchTopic != "" && strings.Count(c.SwitchTopic, "%s") != 1 {
		return fmt.Errorf("switch topic %q needs exactly one %%s", c.SwitchTopic)
	}
	return nil
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

// PahoClient receives charger SOC and meter readings and sends appliance
// switch commands over MQTT.
type PahoClient struct {
	cli    pahoClient
	cfg    Config
	bus    *eventbus.TypedBus[events.SocChangedEvent]
	meters *meter.Store
	logger logger.Logger
	now    func() time.Time
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// NewPahoClient connects to the broker. SOC reports are published on bus and
// meter readings stored in meters; either may be nil to skip the subscription.
func NewPahoClient(cfg Config, bus *eventbus.TypedBus[events.SocChangedEvent], meters *meter.Store, log logger.Logger) (*PahoClient, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.New("mqtt_client")
	}
	pc := &PahoClient{cfg: cfg, bus: bus, meters: meters, logger: log, now: time.Now}

	opts.OnConnect = func(c paho.Client) {
		log.Infof("MQTT connected")
		pc.subscribe(c)
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	pc.cli = c
	return pc, nil
}

func (p *PahoClient) subscribe(c pahoClient) {
	if p.bus != nil {
		if token := c.Subscribe(p.cfg.SocTopic, p.qos("soc"), p.onSoc); token.Wait() && token.Error() != nil {
			p.logger.Errorf("subscribe %s: %v", p.cfg.SocTopic, token.Error())
		}
	}
	if p.meters != nil {
		if token := c.Subscribe(p.cfg.MeterTopic, p.qos("meter"), p.onMeter); token.Wait() && token.Error() != nil {
			p.logger.Errorf("subscribe %s: %v", p.cfg.MeterTopic, token.Error())
		}
	}
}

func (p *PahoClient) qos(kind string) byte {
	if q, ok := p.cfg.QoS[kind]; ok {
		return q
	}
	return 0
}

// NewClientOptions builds mqtt client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.AuthMethod == "username_password" || cfg.AuthMethod == "both" || cfg.AuthMethod == "" {
		if cfg.Username != "" {
			opts.SetUsername(cfg.Username)
		}
		if cfg.Password != "" {
			opts.SetPassword(cfg.Password)
		}
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	if cfg.LWTTopic != "" {
		opts.SetWill(cfg.LWTTopic, cfg.LWTPayload, cfg.LWTQoS, cfg.LWTRetain)
	}
	return opts, nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in the config.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(caBytes)
	cfg := &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}
	return cfg, nil
}

func wildcardIndex(pattern string) int {
	idx := -1
	for i, seg := range strings.Split(pattern, "/") {
		if seg == "+" {
			if idx >= 0 {
				return -1
			}
			idx = i
		}
	}
	return idx
}

// applianceFromTopic extracts the segment matched by the + wildcard of pattern.
func applianceFromTopic(pattern, topic string) (string, bool) {
	idx := wildcardIndex(pattern)
	segs := strings.Split(topic, "/")
	if idx < 0 || idx >= len(segs) || segs[idx] == "" {
		return "", false
	}
	return segs[idx], true
}

type socMessage struct {
	Soc       *float64 `json:"soc"`
	Timestamp int64    `json:"timestamp"`
}

type meterMessage struct {
	EnergyKWh *float64 `json:"energy_kwh"`
}

func (p *PahoClient) onSoc(_ paho.Client, msg paho.Message) {
	id, ok := applianceFromTopic(p.cfg.SocTopic, msg.Topic())
	if !ok {
		p.logger.Warnf("soc report on unexpected topic %s", msg.Topic())
		return
	}
	var m socMessage
	if err := json.Unmarshal(msg.Payload(), &m); err != nil {
		p.logger.Errorf("failed to decode soc report: %v", err)
		return
	}
	if m.Soc == nil {
		p.logger.Warnf("soc report for %s without soc", id)
		return
	}
	ts := p.now()
	if m.Timestamp > 0 {
		ts = time.UnixMilli(m.Timestamp)
	}
	if p.bus.Publish(events.SocChangedEvent{ApplianceID: id, Timestamp: ts, SocPercent: *m.Soc}) == 0 {
		p.logger.Warnf("soc report for %s not delivered", id)
	}
}

func (p *PahoClient) onMeter(_ paho.Client, msg paho.Message) {
	id, ok := applianceFromTopic(p.cfg.MeterTopic, msg.Topic())
	if !ok {
		p.logger.Warnf("meter reading on unexpected topic %s", msg.Topic())
		return
	}
	var m meterMessage
	if err := json.Unmarshal(msg.Payload(), &m); err != nil {
		p.logger.Errorf("failed to decode meter reading: %v", err)
		return
	}
	if m.EnergyKWh == nil {
		p.logger.Warnf("meter reading for %s without energy_kwh", id)
		return
	}
	p.meters.Get(id).Set(*m.EnergyKWh)
}

// Switch publishes an on/off command for the appliance, retrying with
// exponential backoff.
func (p *PahoClient) Switch(applianceID string, on bool) error {
	cmdID := uuid.NewString()
	cmd := struct {
		CommandID   string `json:"command_id"`
		ApplianceID string `json:"appliance_id"`
		On          bool   `json:"on"`
		Timestamp   int64  `json:"timestamp"`
	}{
		CommandID:   cmdID,
		ApplianceID: applianceID,
		On:          on,
		Timestamp:   p.now().UnixMilli(),
	}
	payload, err := json.Marshal(cmd)
	if err != nil {
		return err
	}

	topic := fmt.Sprintf(p.cfg.SwitchTopic, applianceID)
	backoff := time.Duration(p.cfg.BackoffMS) * time.Millisecond
	var publishErr error
	for attempt := 0; attempt <= p.cfg.MaxRetries; attempt++ {
		token := p.cli.Publish(topic, p.qos("switch"), false, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			p.logger.Infof("sent switch %s on=%t to %s", cmdID, on, topic)
			return nil
		}
		p.logger.Errorf("publish attempt %d failed: %v", attempt+1, publishErr)
		if attempt < p.cfg.MaxRetries {
			time.Sleep(backoff * time.Duration(1<<attempt))
		}
	}
	return fmt.Errorf("switch %s: %w", applianceID, publishErr)
}

// Disconnect gracefully closes the MQTT connection.
func (p *PahoClient) Disconnect() {
	if p.cli != nil && p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
}
