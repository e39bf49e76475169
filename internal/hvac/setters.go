package hvac

import (
	"context"
	"fmt"

	"que_bridge/internal/api"
	"que_bridge/internal/commands"
	"que_bridge/internal/types"
)

func (u *Unit) SetPower(ctx context.Context, on bool) (api.Result, error) {
	return u.IssueCommand(ctx, toggle(on, commands.On, commands.Off), commands.Params{})
}

func (u *Unit) SetAwayMode(ctx context.Context, on bool) (api.Result, error) {
	return u.IssueCommand(ctx, toggle(on, commands.AwayModeOn, commands.AwayModeOff), commands.Params{})
}

func (u *Unit) SetQuietMode(ctx context.Context, on bool) (api.Result, error) {
	return u.IssueCommand(ctx, toggle(on, commands.QuietModeOn, commands.QuietModeOff), commands.Params{})
}

func (u *Unit) SetControlAllZones(ctx context.Context, on bool) (api.Result, error) {
	return u.IssueCommand(ctx, toggle(on, commands.ControlAllZonesOn, commands.ControlAllZonesOff), commands.Params{})
}

// SetClimateMode selects the operating mode.
func (u *Unit) SetClimateMode(ctx context.Context, mode types.ClimateMode) (api.Result, error) {
	for kind, m := range climateModes {
		if m == mode {
			return u.IssueCommand(ctx, kind, commands.Params{})
		}
	}
	return "", fmt.Errorf("climate mode %q: %w", mode, commands.ErrUnknownKind)
}

// SetFanMode selects the fan speed.
func (u *Unit) SetFanMode(ctx context.Context, mode types.FanMode) (api.Result, error) {
	for kind, m := range fanModes {
		if m == mode {
			return u.IssueCommand(ctx, kind, commands.Params{})
		}
	}
	return "", fmt.Errorf("fan mode %q: %w", mode, commands.ErrUnknownKind)
}

func (u *Unit) SetCoolSetpoint(ctx context.Context, value float64) (api.Result, error) {
	return u.IssueCommand(ctx, commands.CoolSetPoint, commands.Params{CoolSetpoint: value})
}

func (u *Unit) SetHeatSetpoint(ctx context.Context, value float64) (api.Result, error) {
	return u.IssueCommand(ctx, commands.HeatSetPoint, commands.Params{HeatSetpoint: value})
}

// SetHeatCoolSetpoint sets both setpoints in one command, as used in auto mode.
func (u *Unit) SetHeatCoolSetpoint(ctx context.Context, cool, heat float64) (api.Result, error) {
	return u.IssueCommand(ctx, commands.HeatCoolSetPoint, commands.Params{CoolSetpoint: cool, HeatSetpoint: heat})
}

func toggle(on bool, yes, no commands.Kind) commands.Kind {
	if on {
		return yes
	}
	return no
}
