// Package mqttprobe tests MQTT broker connectivity for the mqtt
// section of a frigate config. It connects, subscribes to the
// availability topic frigate will publish on, and disconnects again,
// leaving nothing behind on the broker.
package mqttprobe

import (
	"context"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arlott/frigatemx/internal/frigateconf"
	"github.com/arlott/frigatemx/internal/logging"
)

const (
	// connectTimeout bounds the broker handshake.
	connectTimeout = 5 * time.Second

	// disconnectQuiesce is how many milliseconds paho gets to flush
	// the DISCONNECT packet before the socket drops.
	disconnectQuiesce = 250
)

// Config describes the broker to probe. It mirrors the mqtt section of
// a frigate config file; credentials are optional.
type Config struct {
	Host        string
	Port        int
	Username    string
	Password    string
	TopicPrefix string
}

// brokerURL returns the paho broker URL, defaulting the port the way
// frigate does.
func (c Config) brokerURL() string {
	port := c.Port
	if port == 0 {
		port = frigateconf.DefaultMQTTPort
	}
	return fmt.Sprintf("tcp://%s:%d", c.Host, port)
}

// availabilityTopic returns the topic frigate announces itself on.
func (c Config) availabilityTopic() string {
	prefix := c.TopicPrefix
	if prefix == "" {
		prefix = frigateconf.DefaultTopicPrefix
	}
	return prefix + "/available"
}

// Test connects to the broker described by cfg, subscribes to frigate's
// availability topic and disconnects. A nil return means the mqtt
// section would work as configured.
func Test(ctx context.Context, cfg Config) error {
	if cfg.Host == "" {
		return errors.New("broker host is required")
	}

	broker := cfg.brokerURL()

	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID("frigatemx-probe-" + uuid.New().String())
	opts.SetConnectTimeout(connectTimeout)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(false)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}

	client := mqtt.NewClient(opts)
	defer client.Disconnect(disconnectQuiesce)

	if err := waitToken(ctx, client.Connect()); err != nil {
		return fmt.Errorf("failed to connect to MQTT broker at %s: %w", broker, err)
	}

	topic := cfg.availabilityTopic()
	noop := func(mqtt.Client, mqtt.Message) {}
	if err := waitToken(ctx, client.Subscribe(topic, 0, noop)); err != nil {
		return fmt.Errorf("connected, but subscribing to %s failed (check broker ACLs): %w", topic, err)
	}
	if err := waitToken(ctx, client.Unsubscribe(topic)); err != nil {
		return fmt.Errorf("failed to unsubscribe from %s: %w", topic, err)
	}

	logging.Debug("MQTT broker probe succeeded",
		zap.String("broker", broker),
		zap.String("topic", topic),
	)
	return nil
}

// waitToken blocks until the token resolves or the context ends.
func waitToken(ctx context.Context, token mqtt.Token) error {
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}
