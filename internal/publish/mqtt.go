// Package publish mirrors the cached unit state to an MQTT broker and accepts
// commands from it.
package publish

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Handler receives messages for a subscription.
type Handler func(topic string, payload []byte)

// ClientAPI is the broker surface the Bridge needs.
type ClientAPI interface {
	Subscribe(topic string, cb Handler) error
	PublishWith(topic string, payload []byte, retain bool) error
	Disconnect()
}

// Client is a paho-backed ClientAPI.
type Client struct {
	cli    mqtt.Client
	logger *slog.Logger
}

// ConnectOptions configures the broker connection.
type ConnectOptions struct {
	Broker   string
	ClientID string
	// WillTopic receives a retained "offline" if the connection drops.
	WillTopic string
}

// Connect dials the broker. The broker URL may carry credentials and use
// the mqtt, tcp, ssl, tls, ws or wss schemes.
func Connect(o ConnectOptions, logger *slog.Logger) (*Client, error) {
	u, err := url.Parse(o.Broker)
	if err != nil {
		return nil, fmt.Errorf("parse broker url: %w", err)
	}

	opts := mqtt.NewClientOptions()
	server := u.Host
	switch u.Scheme {
	case "mqtt", "tcp":
		server = "tcp://" + server
	case "ssl", "tls":
		server = "ssl://" + server
	case "ws", "wss":
		server = u.Scheme + "://" + server + u.Path
	default:
		return nil, fmt.Errorf("unsupported broker scheme %q", u.Scheme)
	}
	opts.AddBroker(server)

	clientID := o.ClientID
	if clientID == "" {
		clientID = "que-bridge-" + time.Now().Format("150405.000")
	}
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.OnConnect = func(mqtt.Client) { logger.Info("MQTT connected", "broker", u.Host) }
	opts.OnConnectionLost = func(_ mqtt.Client, err error) { logger.Error("MQTT connection lost", "error", err) }
	if u.User != nil {
		pw, _ := u.User.Password()
		opts.SetUsername(u.User.Username())
		opts.SetPassword(pw)
	}
	if u.Scheme == "ssl" || u.Scheme == "tls" || u.Scheme == "wss" {
		opts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	}
	if o.WillTopic != "" {
		opts.SetWill(o.WillTopic, availabilityOffline, 1, true)
	}

	cli := mqtt.NewClient(opts)
	if t := cli.Connect(); t.Wait() && t.Error() != nil {
		return nil, fmt.Errorf("connect %s: %w", u.Host, t.Error())
	}
	return &Client{cli: cli, logger: logger}, nil
}

func (c *Client) Subscribe(topic string, cb Handler) error {
	t := c.cli.Subscribe(topic, 1, func(_ mqtt.Client, m mqtt.Message) {
		cb(m.Topic(), m.Payload())
	})
	if t.Wait() && t.Error() != nil {
		return t.Error()
	}
	c.logger.Info("MQTT subscribed", "topic", topic)
	return nil
}

func (c *Client) PublishWith(topic string, payload []byte, retain bool) error {
	t := c.cli.Publish(topic, 0, retain, payload)
	if t.Wait() && t.Error() != nil {
		return t.Error()
	}
	return nil
}

func (c *Client) Disconnect() {
	c.cli.Disconnect(250)
}
