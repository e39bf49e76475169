package hvac

import (
	"context"
	"errors"
	"fmt"

	"que_bridge/internal/api"
	"que_bridge/internal/commands"
)

var (
	ErrZoneRequired     = errors.New("zone command without zone")
	ErrSetpointRequired = errors.New("setpoint command without setpoint")
)

// CommandRequest is a command submitted from outside the process, over
// HTTP, MQTT or the CLI. Zone addresses a zone by sensor id. Cool and Heat
// are nil when the caller did not send them.
type CommandRequest struct {
	Command string   `json:"command"`
	Cool    *float64 `json:"cool,omitempty"`
	Heat    *float64 `json:"heat,omitempty"`
	Zone    string   `json:"zone,omitempty"`
}

// Setpoint returns a pointer to v for building a CommandRequest.
func Setpoint(v float64) *float64 {
	return &v
}

// Submit parses and issues req.
func (u *Unit) Submit(ctx context.Context, req CommandRequest) (api.Result, error) {
	kind, err := commands.ParseKind(req.Command)
	if err != nil {
		return "", err
	}

	needCool, needHeat := setpointsFor(kind)
	if needCool && req.Cool == nil {
		return "", fmt.Errorf("%s: cool: %w", kind, ErrSetpointRequired)
	}
	if needHeat && req.Heat == nil {
		return "", fmt.Errorf("%s: heat: %w", kind, ErrSetpointRequired)
	}

	var params commands.Params
	if needCool {
		params.CoolSetpoint = *req.Cool
	}
	if needHeat {
		params.HeatSetpoint = *req.Heat
	}

	if !kind.IsZone() {
		return u.IssueCommand(ctx, kind, params)
	}

	if req.Zone == "" {
		return "", fmt.Errorf("%s: %w", kind, ErrZoneRequired)
	}
	value := params.CoolSetpoint
	if kind == commands.ZoneHeatSetPoint {
		value = params.HeatSetpoint
	}
	return u.IssueZoneCommand(ctx, req.Zone, kind, value)
}

// setpointsFor reports which setpoint values kind carries.
func setpointsFor(kind commands.Kind) (cool, heat bool) {
	switch kind {
	case commands.CoolSetPoint, commands.ZoneCoolSetPoint:
		return true, false
	case commands.HeatSetPoint, commands.ZoneHeatSetPoint:
		return false, true
	case commands.HeatCoolSetPoint:
		return true, true
	}
	return false, false
}
