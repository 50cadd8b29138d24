package mqtt

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/sprinkler-controller/internal/config"
	"github.com/thatsimonsguy/sprinkler-controller/internal/model"
)

const (
	connectTimeout    = 10 * time.Second
	publishTimeout    = 5 * time.Second
	disconnectQuiesce = 1000 // milliseconds
)

var (
	ErrConnectionFailed = errors.New("mqtt: connection failed")
	ErrPublishFailed    = errors.New("mqtt: publish failed")
	ErrTimeout          = errors.New("mqtt: operation timed out")
)

// client is the subset of pahomqtt.Client the publisher needs.
type client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) pahomqtt.Token
	Disconnect(quiesce uint)
}

// Publisher writes controller state to retained topics under a prefix:
//
//	<prefix>/availability          online | offline
//	<prefix>/controller            controller summary (JSON)
//	<prefix>/station/<idx>         station (JSON)
//	<prefix>/station/<idx>/status  0 | 1
//	<prefix>/program/<idx>         program (JSON)
type Publisher struct {
	client client
	prefix string
	qos    byte
}

func Connect(cfg config.MQTT) (*Publisher, error) {
	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(connectTimeout)
	opts.SetWill(cfg.TopicPrefix+"/availability", "offline", cfg.QoS, true)
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		log.Warn().Err(err).Msg("MQTT connection lost")
	})

	c := pahomqtt.NewClient(opts)
	token := c.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, connectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	p := NewPublisher(c, cfg.TopicPrefix, cfg.QoS)
	if err := p.publish("availability", "online"); err != nil {
		c.Disconnect(disconnectQuiesce)
		return nil, err
	}

	log.Info().Str("broker", cfg.Broker).Str("prefix", cfg.TopicPrefix).Msg("MQTT publisher connected")
	return p, nil
}

func NewPublisher(c client, prefix string, qos byte) *Publisher {
	return &Publisher{client: c, prefix: prefix, qos: qos}
}

type controllerSummary struct {
	Enabled         bool   `json:"enabled"`
	FirmwareVersion string `json:"firmware_version"`
	HardwareType    string `json:"hardware_type"`
	NumStations     int    `json:"num_stations"`
	NumPrograms     int    `json:"num_programs"`
}

// PublishController publishes the controller summary, every station and
// every program. Publishing stops at the first failure.
func (p *Publisher) PublishController(c *model.Controller) error {
	summary := controllerSummary{
		Enabled:         c.Enabled(),
		FirmwareVersion: c.FirmwareVersion(),
		HardwareType:    c.HardwareType(),
		NumStations:     c.NumStations(),
		NumPrograms:     c.NumPrograms(),
	}
	if err := p.publishJSON("controller", summary); err != nil {
		return err
	}

	for _, s := range c.Stations() {
		if err := p.publishJSON(fmt.Sprintf("station/%d", s.Index), s); err != nil {
			return err
		}
		if err := p.publish(fmt.Sprintf("station/%d/status", s.Index), fmt.Sprint(s.Status)); err != nil {
			return err
		}
	}
	for _, prog := range c.Programs() {
		if err := p.publishJSON(fmt.Sprintf("program/%d", prog.Index), prog); err != nil {
			return err
		}
	}
	return nil
}

func (p *Publisher) Close() {
	if err := p.publish("availability", "offline"); err != nil {
		log.Warn().Err(err).Msg("Failed to publish offline status")
	}
	p.client.Disconnect(disconnectQuiesce)
}

func (p *Publisher) publishJSON(topic string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrPublishFailed, topic, err)
	}
	return p.publish(topic, payload)
}

func (p *Publisher) publish(topic string, payload any) error {
	full := p.prefix + "/" + topic
	token := p.client.Publish(full, p.qos, true, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("%w: %s", ErrTimeout, full)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrPublishFailed, full, err)
	}
	return nil
}
