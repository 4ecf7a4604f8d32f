// Package mqttpush implements the MQTT push driver: push documents
// published to a configured topic are decoded and forwarded like any
// other transport's readings.
package mqttpush

import (
	"context"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wxforge/wxforge/internal/stations"
	"github.com/wxforge/wxforge/internal/types"
)

const (
	connectTimeout    = 10 * time.Second
	disconnectQuiesce = 250 // milliseconds, paho's Disconnect unit
)

// Station is the MQTT push adapter.
type Station struct {
	ctx    context.Context
	cancel context.CancelFunc
	deps   stations.Deps
	logger *zap.SugaredLogger
	client mqtt.Client
}

// NewStation builds the adapter.
func NewStation(deps stations.Deps) (stations.Adapter, error) {
	cfg := deps.Config
	if cfg.MQTTBroker == "" || cfg.MQTTTopic == "" {
		return nil, fmt.Errorf("station [%s] requires mqtt_broker and mqtt_topic: %w",
			cfg.Name, types.ErrConfiguration)
	}

	ctx, cancel := context.WithCancel(deps.Ctx)
	s := &Station{
		ctx:    ctx,
		cancel: cancel,
		deps:   deps,
		logger: deps.Logger,
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID("wxforge-" + cfg.Name + "-" + uuid.NewString()[:8]).
		SetAutoReconnect(true).
		SetConnectTimeout(connectTimeout).
		SetOnConnectHandler(s.onConnect).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			s.logger.Warnf("station [%s] MQTT connection lost: %v", cfg.Name, err)
		})
	s.client = mqtt.NewClient(opts)
	return s, nil
}

func (s *Station) StationName() string {
	return s.deps.Config.Name
}

// Start connects to the broker. The subscription happens in the
// on-connect handler so it survives reconnects.
func (s *Station) Start() error {
	s.logger.Infof("starting MQTT push station [%s] against %s", s.deps.Config.Name, s.deps.Config.MQTTBroker)

	token := s.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return fmt.Errorf("station [%s] MQTT connect timed out: %w", s.deps.Config.Name, types.ErrTransientTransport)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("station [%s] MQTT connect: %w: %w", s.deps.Config.Name, err, types.ErrTransientTransport)
	}
	return nil
}

// Stop unsubscribes and disconnects.
func (s *Station) Stop() error {
	s.logger.Infof("stopping MQTT push station [%s]", s.deps.Config.Name)
	s.cancel()

	if s.client.IsConnected() {
		s.client.Unsubscribe(s.deps.Config.MQTTTopic)
		s.client.Disconnect(disconnectQuiesce)
	}
	return nil
}

func (s *Station) onConnect(client mqtt.Client) {
	topic := s.deps.Config.MQTTTopic
	token := client.Subscribe(topic, 1, s.onMessage)
	if !token.WaitTimeout(connectTimeout) || token.Error() != nil {
		s.logger.Errorf("station [%s] subscribing to %s: %v", s.deps.Config.Name, topic, token.Error())
		return
	}
	s.logger.Infof("station [%s] subscribed to %s", s.deps.Config.Name, topic)
}

func (s *Station) onMessage(_ mqtt.Client, msg mqtt.Message) {
	batch, err := stations.DecodeDocument(msg.Payload(), s.deps.Config.Name)
	if err != nil {
		s.logger.Warnf("station [%s] rejected push document on %s: %v",
			s.deps.Config.Name, msg.Topic(), err)
		return
	}

	select {
	case s.deps.Out <- batch:
	case <-s.ctx.Done():
	}
}
