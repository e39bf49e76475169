// Package hvac keeps the cached state of one AC unit and its zones in step
// with locally issued commands and polled cloud status.
package hvac

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"que_bridge/internal/api"
	"que_bridge/internal/commands"
	"que_bridge/internal/types"
)

var (
	ErrZoneNotFound   = errors.New("zone not found")
	ErrZoneNotPresent = errors.New("zone missing from latest status")
)

// Client is the cloud surface the Unit drives.
type Client interface {
	Initialize(ctx context.Context) error
	Serial() string
	GetStatus(ctx context.Context) (types.HvacStatus, error)
	RunCommand(ctx context.Context, kind commands.Kind, params commands.Params) (api.Result, error)
}

// Unit is the cached master controller and its zones.
type Unit struct {
	client            Client
	logger            *slog.Logger
	zonesFollowMaster bool
	zonesPushMaster   bool

	// op serializes round trips so a poll and a command never interleave
	// their apply step.
	op sync.Mutex

	mu             sync.RWMutex
	master         types.HvacStatus
	apiError       bool
	cloudConnected bool
	zones          map[string]*Zone
	order          []string
}

// Option configures a Unit.
type Option func(*Unit)

// WithZonesFollowMaster turns on control-all-zones before a master setpoint
// change so every zone tracks the new setpoint.
func WithZonesFollowMaster(on bool) Option {
	return func(u *Unit) { u.zonesFollowMaster = on }
}

// WithZonesPushMaster moves the master setpoint when a zone request falls
// outside the zone's band.
func WithZonesPushMaster(on bool) Option {
	return func(u *Unit) { u.zonesPushMaster = on }
}

func WithLogger(l *slog.Logger) Option {
	return func(u *Unit) { u.logger = l }
}

// NewUnit creates a Unit with an empty cache.
func NewUnit(client Client, opts ...Option) *Unit {
	u := &Unit{
		client: client,
		logger: slog.Default(),
		zones:  make(map[string]*Zone),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Initialize connects to the cloud, selects the system and loads the
// first status.
func (u *Unit) Initialize(ctx context.Context) error {
	if err := u.client.Initialize(ctx); err != nil {
		return fmt.Errorf("initialize client: %w", err)
	}
	if _, err := u.Refresh(ctx); err != nil {
		return fmt.Errorf("initial refresh: %w", err)
	}
	return nil
}

// Serial returns the serial of the controlled system.
func (u *Unit) Serial() string {
	return u.client.Serial()
}

// Refresh polls the cloud. A soft failure leaves the cache untouched and
// marks the unit disconnected; the returned snapshot then has APIError set.
func (u *Unit) Refresh(ctx context.Context) (types.HvacStatus, error) {
	u.op.Lock()
	defer u.op.Unlock()

	if err := u.refresh(ctx); err != nil {
		return types.HvacStatus{}, err
	}
	return u.Snapshot(), nil
}

func (u *Unit) refresh(ctx context.Context) error {
	status, err := u.client.GetStatus(ctx)
	if err != nil {
		refreshes.WithLabelValues("error").Inc()
		return err
	}

	if status.APIError {
		refreshes.WithLabelValues("stale").Inc()
		u.mu.Lock()
		u.apiError = true
		u.cloudConnected = false
		u.mu.Unlock()
		u.logger.Warn("Failed to refresh status, keeping cached state", "serial", u.client.Serial())
		return nil
	}

	refreshes.WithLabelValues("ok").Inc()
	u.apply(status)
	return nil
}

// apply overwrites the cache with a successful poll.
func (u *Unit) apply(status types.HvacStatus) {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.master = status
	u.master.Zones = nil
	u.master.EnabledZones = append([]bool(nil), status.EnabledZones...)
	u.apiError = false
	u.cloudConnected = status.CloudConnected

	seen := make(map[string]bool, len(status.Zones))
	for _, zs := range status.Zones {
		seen[zs.SensorID] = true
		if z, ok := u.zones[zs.SensorID]; ok {
			z.pushStatusUpdate(zs)
			continue
		}
		u.zones[zs.SensorID] = newZone(u, zs)
		u.order = append(u.order, zs.SensorID)
		u.logger.Info("Discovered zone", "zone", zs.Name, "sensor_id", zs.SensorID, "index", zs.Index)
	}

	for id, z := range u.zones {
		if !seen[id] && z.present {
			z.present = false
			u.logger.Warn("Zone missing from status, marking stale", "zone", z.status.Name, "sensor_id", id)
		}
	}
}

// Snapshot returns the cached state. Zones lists the zones present in the
// latest poll ordered by index.
func (u *Unit) Snapshot() types.HvacStatus {
	u.mu.RLock()
	defer u.mu.RUnlock()

	s := u.master
	s.APIError = u.apiError
	s.CloudConnected = u.cloudConnected
	s.EnabledZones = append([]bool(nil), u.master.EnabledZones...)
	s.Zones = make([]types.ZoneStatus, 0, len(u.zones))
	for _, id := range u.order {
		if z := u.zones[id]; z.present {
			s.Zones = append(s.Zones, z.status)
		}
	}
	sort.Slice(s.Zones, func(i, j int) bool { return s.Zones[i].Index < s.Zones[j].Index })
	return s
}

// CloudConnected reports whether the last round trip reached the unit.
func (u *Unit) CloudConnected() bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.cloudConnected
}

// APIError reports whether the last refresh failed.
func (u *Unit) APIError() bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.apiError
}

// Zones returns every zone ever seen, in discovery order.
func (u *Unit) Zones() []*Zone {
	u.mu.RLock()
	defer u.mu.RUnlock()

	out := make([]*Zone, 0, len(u.order))
	for _, id := range u.order {
		out = append(out, u.zones[id])
	}
	return out
}

// Zone looks up a zone by sensor id.
func (u *Unit) Zone(sensorID string) (*Zone, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	z, ok := u.zones[sensorID]
	return z, ok
}

// IssueCommand sends a unit-level command. Zone kinds must go through
// IssueZoneCommand so the zone index comes from the cache.
func (u *Unit) IssueCommand(ctx context.Context, kind commands.Kind, params commands.Params) (api.Result, error) {
	if kind.IsZone() {
		return "", fmt.Errorf("%s: use a zone to issue zone commands", kind)
	}

	u.op.Lock()
	defer u.op.Unlock()

	if u.zonesFollowMaster && isMasterSetpoint(kind) {
		if err := u.ensureControlAllZones(ctx); err != nil {
			return "", err
		}
	}
	return u.run(ctx, kind, params, nil)
}

// IssueZoneCommand sends a zone command addressed by sensor id. value is the
// requested setpoint for setpoint kinds and ignored otherwise.
func (u *Unit) IssueZoneCommand(ctx context.Context, sensorID string, kind commands.Kind, value float64) (api.Result, error) {
	z, ok := u.Zone(sensorID)
	if !ok {
		return "", fmt.Errorf("%s: %w", sensorID, ErrZoneNotFound)
	}
	switch kind {
	case commands.ZoneEnable:
		return z.Enable(ctx)
	case commands.ZoneDisable:
		return z.Disable(ctx)
	case commands.ZoneCoolSetPoint:
		return z.SetCoolSetpoint(ctx, value)
	case commands.ZoneHeatSetPoint:
		return z.SetHeatSetpoint(ctx, value)
	default:
		return "", fmt.Errorf("%s: %w", kind, commands.ErrUnknownKind)
	}
}

// run performs one command round trip and reconciles the cache with the
// result. Callers hold u.op.
func (u *Unit) run(ctx context.Context, kind commands.Kind, params commands.Params, zone *Zone) (api.Result, error) {
	result, err := u.client.RunCommand(ctx, kind, params)
	if err != nil {
		return result, err
	}

	switch result {
	case api.ResultSuccess:
		u.logger.Info("Command applied", "command", kind)
		u.mu.Lock()
		u.applyCommand(kind, params, zone)
		u.cloudConnected = true
		u.mu.Unlock()

	case api.ResultFailure, api.ResultAPIError:
		u.logger.Error("Command failed, refreshing state from cloud", "command", kind, "result", result)
		if err := u.refresh(ctx); err != nil {
			return result, err
		}

	case api.ResultCloudUnreachable:
		u.logger.Warn("Failed to send command, cloud unreachable", "command", kind)
		u.mu.Lock()
		u.cloudConnected = false
		u.mu.Unlock()
	}

	return result, nil
}

// ensureControlAllZones switches control-all-zones on when it is off.
// Callers hold u.op.
func (u *Unit) ensureControlAllZones(ctx context.Context) error {
	u.mu.RLock()
	on := u.master.ControlAllZones
	u.mu.RUnlock()
	if on {
		return nil
	}

	result, err := u.run(ctx, commands.ControlAllZonesOn, commands.Params{}, nil)
	if err != nil {
		return err
	}
	if result != api.ResultSuccess {
		u.logger.Warn("Could not enable control of all zones", "result", result)
	}
	return nil
}

func isMasterSetpoint(kind commands.Kind) bool {
	return kind == commands.CoolSetPoint || kind == commands.HeatSetPoint || kind == commands.HeatCoolSetPoint
}
