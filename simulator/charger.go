// Package simulator emulates wallboxes charging a vehicle: it follows switch
// commands and reports SOC and metered energy over MQTT.
package simulator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/evdemand/core/logger"
	"github.com/kilianp07/evdemand/infra/mqtt"
)

// Publisher is the part of the MQTT client used by a charger.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

// Charger simulates a wallbox with a connected vehicle.
type Charger struct {
	ID       string
	Battery  *Battery
	Interval time.Duration

	mu        sync.Mutex
	on        bool
	delivered float64
	client    Publisher
	log       logger.Logger
	now       func() time.Time
}

// NewCharger creates a charger publishing through client.
func NewCharger(id string, b *Battery, interval time.Duration, client Publisher, log logger.Logger) *Charger {
	return &Charger{
		ID:       id,
		Battery:  b,
		Interval: interval,
		client:   client,
		log:      logger.OrNop(log).With(map[string]any{"charger": id}),
		now:      time.Now,
	}
}

// On reports whether the charger currently draws power.
func (c *Charger) On() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.on
}

// DeliveredKWh returns the energy metered since the simulation started.
func (c *Charger) DeliveredKWh() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.delivered
}

func (c *Charger) onSwitch(_ paho.Client, msg paho.Message) {
	var m struct {
		CommandID string `json:"command_id"`
		On        bool   `json:"on"`
	}
	if err := json.Unmarshal(msg.Payload(), &m); err != nil {
		c.log.Errorf("decode switch command: %v", err)
		return
	}
	c.mu.Lock()
	c.on = m.On
	c.mu.Unlock()
	c.log.Infof("switch %s on=%t", m.CommandID, m.On)
}

// Step advances the simulation by dt and publishes SOC and meter reports.
func (c *Charger) Step(dt time.Duration) error {
	c.mu.Lock()
	if c.on {
		c.delivered += c.Battery.Charge(dt)
	}
	delivered := c.delivered
	c.mu.Unlock()

	ts := c.now().UnixMilli()
	soc, err := json.Marshal(map[string]any{"soc": c.Battery.SocPercent(), "timestamp": ts})
	if err != nil {
		return err
	}
	if err := c.publish(topicFor(mqtt.DefaultSocTopic, c.ID), soc); err != nil {
		return err
	}
	energy, err := json.Marshal(map[string]any{"energy_kwh": delivered})
	if err != nil {
		return err
	}
	return c.publish(topicFor(mqtt.DefaultMeterTopic, c.ID), energy)
}

func (c *Charger) publish(topic string, payload []byte) error {
	token := c.client.Publish(topic, 0, false, payload)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// Run subscribes to switch commands and steps every Interval until ctx is done.
func (c *Charger) Run(ctx context.Context) error {
	topic := fmt.Sprintf(mqtt.DefaultSwitchTopic, c.ID)
	if token := c.client.Subscribe(topic, 0, c.onSwitch); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	ticker := time.NewTicker(c.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := c.Step(c.Interval); err != nil {
				c.log.Errorf("step: %v", err)
			}
		}
	}
}

func topicFor(pattern, id string) string {
	return strings.Replace(pattern, "+", id, 1)
}
