package ingest

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dongbab/power-demand-prediction-platform-sub000/internal/metrics"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// MQTTConfig holds the subscriber settings. Broker and Topic are required.
type MQTTConfig struct {
	Broker   string
	Topic    string
	ClientID string
	QoS      byte
}

// MQTTSubscriber buffers session readings published by charging stations.
// Messages without a station field take it from a "stations/<id>/..." topic.
type MQTTSubscriber struct {
	cfg      MQTTConfig
	client   mqtt.Client
	store    *SessionStore
	logger   *zap.Logger
	recorder Recorder
}

// NewMQTTSubscriber prepares a client for cfg. Call Start to connect.
func NewMQTTSubscriber(cfg MQTTConfig, store *SessionStore, logger *zap.Logger, rec Recorder) (*MQTTSubscriber, error) {
	if strings.TrimSpace(cfg.Broker) == "" {
		return nil, errors.New("mqtt broker must not be empty")
	}
	if strings.TrimSpace(cfg.Topic) == "" {
		return nil, errors.New("mqtt topic must not be empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if rec == nil {
		rec = nopRecorder{}
	}
	if store == nil {
		store = NewSessionStore(0)
	}

	s := &MQTTSubscriber{cfg: cfg, store: store, logger: logger, recorder: rec}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(func(c mqtt.Client) {
			// Subscriptions do not survive a reconnect with a clean session.
			if err := s.subscribe(c); err != nil {
				s.logger.Error("failed to subscribe",
					zap.String("op", "ingest.MQTTSubscriber.onConnect"),
					zap.String("topic", cfg.Topic),
					zap.Error(err),
				)
			}
		}).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			s.logger.Warn("mqtt connection lost",
				zap.String("op", "ingest.MQTTSubscriber.onConnectionLost"),
				zap.Error(err),
			)
		})
	s.client = mqtt.NewClient(opts)
	return s, nil
}

// Start connects to the broker, waiting at most timeout for the first attempt.
func (s *MQTTSubscriber) Start(timeout time.Duration) error {
	token := s.client.Connect()
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("timed out connecting to %s", s.cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("connect to %s: %w", s.cfg.Broker, err)
	}
	s.logger.Info("mqtt subscriber started",
		zap.String("op", "ingest.MQTTSubscriber.Start"),
		zap.String("broker", s.cfg.Broker),
		zap.String("topic", s.cfg.Topic),
	)
	return nil
}

// Close disconnects from the broker.
func (s *MQTTSubscriber) Close() {
	if s.client != nil && s.client.IsConnected() {
		s.client.Disconnect(250)
	}
}

func (s *MQTTSubscriber) subscribe(c mqtt.Client) error {
	token := c.Subscribe(s.cfg.Topic, s.cfg.QoS, func(_ mqtt.Client, msg mqtt.Message) {
		s.handle(msg.Topic(), msg.Payload())
	})
	token.Wait()
	return token.Error()
}

func (s *MQTTSubscriber) handle(topic string, payload []byte) {
	reading, err := DecodeReading(payload, StationFromTopic(topic))
	if err != nil {
		s.recorder.IngestMessage("mqtt", metrics.OutcomeInvalid)
		s.logger.Warn("dropping session message",
			zap.String("op", "ingest.MQTTSubscriber.handle"),
			zap.String("topic", topic),
			zap.Error(err),
		)
		return
	}
	buffer(s.store, s.recorder, s.logger, "mqtt", reading)
}
