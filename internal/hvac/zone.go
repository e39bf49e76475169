package hvac

import (
	"context"
	"fmt"

	"que_bridge/internal/api"
	"que_bridge/internal/commands"
	"que_bridge/internal/types"
)

// Zone is one zone of a Unit, identified by its sensor id. Its cached state
// is guarded by the owning Unit.
type Zone struct {
	unit     *Unit
	sensorID string

	status  types.ZoneStatus
	present bool

	// humiditySensor is fixed when the zone is first seen.
	humiditySensor bool
}

func newZone(u *Unit, zs types.ZoneStatus) *Zone {
	return &Zone{unit: u, sensorID: zs.SensorID, status: zs, present: true, humiditySensor: zs.Humidity.Supported}
}

// pushStatusUpdate overwrites every field from a poll except the humidity
// capability. Callers hold u.mu.
func (z *Zone) pushStatusUpdate(zs types.ZoneStatus) {
	if !z.humiditySensor {
		zs.Humidity = types.Humidity{}
	} else if !zs.Humidity.Supported {
		zs.Humidity = types.Humidity{Percent: z.status.Humidity.Percent, Supported: true}
	}
	z.status = zs
	z.present = true
}

func (z *Zone) SensorID() string {
	return z.sensorID
}

// Status returns the cached zone state.
func (z *Zone) Status() types.ZoneStatus {
	z.unit.mu.RLock()
	defer z.unit.mu.RUnlock()
	return z.status
}

// Present reports whether the zone appeared in the latest successful poll.
func (z *Zone) Present() bool {
	z.unit.mu.RLock()
	defer z.unit.mu.RUnlock()
	return z.present
}

func (z *Zone) Enable(ctx context.Context) (api.Result, error) {
	return z.setEnabled(ctx, commands.ZoneEnable)
}

func (z *Zone) Disable(ctx context.Context) (api.Result, error) {
	return z.setEnabled(ctx, commands.ZoneDisable)
}

func (z *Zone) setEnabled(ctx context.Context, kind commands.Kind) (api.Result, error) {
	u := z.unit
	u.op.Lock()
	defer u.op.Unlock()

	u.mu.RLock()
	present, index := z.present, z.status.Index
	enabled := append([]bool(nil), u.master.EnabledZones...)
	u.mu.RUnlock()

	if !present {
		return "", fmt.Errorf("%s: %w", z.sensorID, ErrZoneNotPresent)
	}
	return u.run(ctx, kind, commands.Params{ZoneIndex: index, EnabledZones: enabled}, z)
}

// SetCoolSetpoint requests a cooling setpoint, clamped to the zone's band.
func (z *Zone) SetCoolSetpoint(ctx context.Context, value float64) (api.Result, error) {
	return z.setSetpoint(ctx, true, value)
}

// SetHeatSetpoint requests a heating setpoint, clamped to the zone's band.
func (z *Zone) SetHeatSetpoint(ctx context.Context, value float64) (api.Result, error) {
	return z.setSetpoint(ctx, false, value)
}

func (z *Zone) setSetpoint(ctx context.Context, cool bool, value float64) (api.Result, error) {
	u := z.unit
	u.op.Lock()
	defer u.op.Unlock()

	if !z.Present() {
		return "", fmt.Errorf("%s: %w", z.sensorID, ErrZoneNotPresent)
	}

	if u.zonesPushMaster && !z.inBand(cool, value) {
		if err := u.pushMaster(ctx, cool, value); err != nil {
			return "", err
		}
		if !z.Present() {
			return "", fmt.Errorf("%s: %w", z.sensorID, ErrZoneNotPresent)
		}
	}

	u.mu.RLock()
	index := z.status.Index
	target := z.clamp(cool, value)
	u.mu.RUnlock()

	if target != value {
		u.logger.Info("Clamped zone setpoint", "zone", z.sensorID, "requested", value, "sent", target)
	}

	if cool {
		return u.run(ctx, commands.ZoneCoolSetPoint, commands.Params{ZoneIndex: index, CoolSetpoint: target}, z)
	}
	return u.run(ctx, commands.ZoneHeatSetPoint, commands.Params{ZoneIndex: index, HeatSetpoint: target}, z)
}

// pushMaster moves the master setpoint of the same kind to value and reloads
// the zone bands. Callers hold u.op.
func (u *Unit) pushMaster(ctx context.Context, cool bool, value float64) error {
	kind := commands.HeatSetPoint
	params := commands.Params{HeatSetpoint: value}
	if cool {
		kind = commands.CoolSetPoint
		params = commands.Params{CoolSetpoint: value}
	}

	u.logger.Info("Zone setpoint outside band, moving master setpoint", "command", kind, "value", value)
	result, err := u.run(ctx, kind, params, nil)
	if err != nil {
		return err
	}
	if result != api.ResultSuccess {
		return nil
	}
	return u.refresh(ctx)
}

func (z *Zone) bounds(cool bool) (lo, hi float64) {
	if cool {
		return z.status.MinCoolSetpoint, z.status.MaxCoolSetpoint
	}
	return z.status.MinHeatSetpoint, z.status.MaxHeatSetpoint
}

func (z *Zone) inBand(cool bool, value float64) bool {
	z.unit.mu.RLock()
	defer z.unit.mu.RUnlock()
	return z.clamp(cool, value) == value
}

// clamp limits value to the zone's band. Zones that report no band are not
// limited. Callers hold u.mu.
func (z *Zone) clamp(cool bool, value float64) float64 {
	lo, hi := z.bounds(cool)
	if lo == 0 && hi == 0 {
		return value
	}
	return clampValue(value, lo, hi)
}

func clampValue(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
