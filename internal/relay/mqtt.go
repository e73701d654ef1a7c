package relay

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/NowakAdmin/ScaleBridge/internal/config"
	"github.com/NowakAdmin/ScaleBridge/internal/scale"
)

const (
	mqttConnectTimeout    = 10 * time.Second
	mqttPublishTimeout    = 5 * time.Second
	mqttDisconnectQuiesce = 250 // milliseconds
	mqttKeepAlive         = 60 * time.Second
	mqttQueueSize         = 128

	availabilityOnline  = "online"
	availabilityOffline = "offline"
)

// MQTTSink publishes events on <prefix>/weight and <prefix>/status. Status
// messages are retained so a late subscriber learns the connection state at
// once. <prefix>/availability carries online/offline, with offline set as the
// last will.
//
// Deliver only queues; a single goroutine talks to the broker so the hub is
// never held up by a slow acknowledgement.
type MQTTSink struct {
	client pahomqtt.Client
	prefix string
	qos    byte
	logger zerolog.Logger

	queue     chan message
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

func DialMQTT(cfg config.MQTTConfig, logger zerolog.Logger) (*MQTTSink, error) {
	prefix := strings.Trim(cfg.TopicPrefix, "/")
	if prefix == "" {
		return nil, errors.New("relay: mqtt topic prefix is required")
	}

	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.SetConnectTimeout(mqttConnectTimeout)
	opts.SetKeepAlive(mqttKeepAlive)
	opts.SetWill(availabilityTopic(prefix), availabilityOffline, byte(cfg.QoS), true)

	opts.SetOnConnectHandler(func(c pahomqtt.Client) {
		c.Publish(availabilityTopic(prefix), byte(cfg.QoS), true, availabilityOnline)
		logger.Info().Str("broker", cfg.Broker).Msg("MQTT połączony")
	})
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		logger.Warn().Err(err).Msg("MQTT rozłączony")
	})

	client := pahomqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(mqttConnectTimeout) {
		client.Disconnect(0)
		return nil, fmt.Errorf("relay: connecting to mqtt %s: timeout after %v", cfg.Broker, mqttConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("relay: connecting to mqtt %s: %w", cfg.Broker, err)
	}

	return newMQTTSink(client, prefix, byte(cfg.QoS), logger), nil
}

func newMQTTSink(client pahomqtt.Client, prefix string, qos byte, logger zerolog.Logger) *MQTTSink {
	s := &MQTTSink{
		client: client,
		prefix: prefix,
		qos:    qos,
		logger: logger,
		queue:  make(chan message, mqttQueueSize),
		done:   make(chan struct{}),
	}

	s.wg.Add(1)
	go s.run()

	return s
}

func availabilityTopic(prefix string) string {
	return prefix + "/availability"
}

func (s *MQTTSink) Deliver(ev scale.Event) error {
	select {
	case <-s.done:
		return ErrSinkClosed
	default:
	}

	msg, err := encode(ev)
	if err != nil {
		return err
	}

	select {
	case s.queue <- msg:
	default:
		s.logger.Debug().Str("type", msg.kind).Msg("MQTT: kolejka pełna, pominięto zdarzenie")
	}

	return nil
}

func (s *MQTTSink) run() {
	defer s.wg.Done()

	for {
		select {
		case <-s.done:
			return
		case msg := <-s.queue:
			s.publish(s.prefix+"/"+msg.kind, msg.payload, msg.kind == scale.EventStatus)
		}
	}
}

func (s *MQTTSink) publish(topic string, payload any, retained bool) {
	if !s.client.IsConnectionOpen() {
		return
	}

	token := s.client.Publish(topic, s.qos, retained, payload)
	if !token.WaitTimeout(mqttPublishTimeout) {
		s.logger.Warn().Str("topic", topic).Msg("MQTT: przekroczono czas publikacji")
		return
	}
	if err := token.Error(); err != nil {
		s.logger.Warn().Err(err).Str("topic", topic).Msg("MQTT: błąd publikacji")
	}
}

// Close publishes a graceful offline marker and disconnects.
func (s *MQTTSink) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.wg.Wait()

		s.publish(availabilityTopic(s.prefix), availabilityOffline, true)
		s.client.Disconnect(mqttDisconnectQuiesce)
	})
	return nil
}
