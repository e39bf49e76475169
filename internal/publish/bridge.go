package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"que_bridge/internal/api"
	"que_bridge/internal/hvac"
	"que_bridge/internal/types"
)

const (
	availabilityOnline  = "online"
	availabilityOffline = "offline"

	commandTimeout = 2 * time.Minute
)

// Controller is the unit surface the Bridge drives.
type Controller interface {
	Snapshot() types.HvacStatus
	Submit(ctx context.Context, req hvac.CommandRequest) (api.Result, error)
}

// CommandReply is published on the result topic after each command.
type CommandReply struct {
	Command string     `json:"command"`
	Zone    string     `json:"zone,omitempty"`
	Result  api.Result `json:"result,omitempty"`
	Error   string     `json:"error,omitempty"`
}

// Bridge publishes state under a topic prefix:
//
//	<prefix>/state                  retained unit snapshot
//	<prefix>/zones/<sensorId>/state retained zone snapshot
//	<prefix>/availability           retained online/offline
//	<prefix>/command                inbound hvac.CommandRequest
//	<prefix>/command/result         CommandReply
type Bridge struct {
	client ClientAPI
	unit   Controller
	prefix string
	logger *slog.Logger

	mu           sync.Mutex
	availability string

	inflight sync.WaitGroup
}

// NewBridge creates a Bridge.
func NewBridge(client ClientAPI, unit Controller, prefix string, logger *slog.Logger) *Bridge {
	return &Bridge{
		client: client,
		unit:   unit,
		prefix: strings.TrimRight(prefix, "/"),
		logger: logger,
	}
}

func (b *Bridge) StateTopic() string        { return b.prefix + "/state" }
func (b *Bridge) AvailabilityTopic() string { return b.prefix + "/availability" }
func (b *Bridge) CommandTopic() string      { return b.prefix + "/command" }
func (b *Bridge) ResultTopic() string       { return b.prefix + "/command/result" }

func (b *Bridge) ZoneTopic(sensorID string) string {
	return b.prefix + "/zones/" + sensorID + "/state"
}

// Start subscribes to the command topic. Each command runs in its own
// goroutine under ctx so a slow round trip does not hold up the client's
// message delivery.
func (b *Bridge) Start(ctx context.Context) error {
	return b.client.Subscribe(b.CommandTopic(), func(_ string, payload []byte) {
		b.inflight.Add(1)
		go func() {
			defer b.inflight.Done()
			b.handleCommand(ctx, payload)
		}()
	})
}

// wait blocks until running commands have replied.
func (b *Bridge) wait() {
	b.inflight.Wait()
}

// Publish pushes the cached state. Nothing is published before the first
// successful poll.
func (b *Bridge) Publish() error {
	status := b.unit.Snapshot()

	if err := b.publishAvailability(status.CloudConnected); err != nil {
		return err
	}
	if status.PowerState == "" {
		return nil
	}

	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if err := b.client.PublishWith(b.StateTopic(), data, true); err != nil {
		return fmt.Errorf("publish state: %w", err)
	}

	for _, z := range status.Zones {
		data, err := json.Marshal(z)
		if err != nil {
			return fmt.Errorf("marshal zone %s: %w", z.SensorID, err)
		}
		if err := b.client.PublishWith(b.ZoneTopic(z.SensorID), data, true); err != nil {
			return fmt.Errorf("publish zone %s: %w", z.SensorID, err)
		}
	}

	b.logger.Debug("Published state", "topic", b.StateTopic(), "zones", len(status.Zones))
	return nil
}

// Stop waits for running commands, marks the bridge offline and disconnects.
func (b *Bridge) Stop() {
	b.wait()
	if err := b.client.PublishWith(b.AvailabilityTopic(), []byte(availabilityOffline), true); err != nil {
		b.logger.Warn("Failed to publish availability", "error", err)
	}
	b.client.Disconnect()
}

func (b *Bridge) publishAvailability(connected bool) error {
	value := availabilityOffline
	if connected {
		value = availabilityOnline
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if value == b.availability {
		return nil
	}
	if err := b.client.PublishWith(b.AvailabilityTopic(), []byte(value), true); err != nil {
		return fmt.Errorf("publish availability: %w", err)
	}
	b.availability = value
	return nil
}

func (b *Bridge) handleCommand(ctx context.Context, payload []byte) {
	var req hvac.CommandRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		b.logger.Warn("Invalid command payload", "topic", b.CommandTopic(), "error", err)
		b.reply(CommandReply{Error: err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	b.logger.Info("Command received", "command", req.Command, "zone", req.Zone)
	result, err := b.unit.Submit(ctx, req)
	reply := CommandReply{Command: req.Command, Zone: req.Zone, Result: result}
	if err != nil {
		b.logger.Error("Command failed", "command", req.Command, "error", err)
		reply.Error = err.Error()
	}
	b.reply(reply)

	if err := b.Publish(); err != nil {
		b.logger.Warn("Failed to publish state", "error", err)
	}
}

func (b *Bridge) reply(r CommandReply) {
	data, err := json.Marshal(r)
	if err != nil {
		return
	}
	if err := b.client.PublishWith(b.ResultTopic(), data, false); err != nil {
		b.logger.Warn("Failed to publish command result", "error", err)
	}
}
