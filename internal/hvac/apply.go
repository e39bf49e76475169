package hvac

import (
	"que_bridge/internal/commands"
	"que_bridge/internal/types"
)

var (
	climateModes = map[commands.Kind]types.ClimateMode{
		commands.ClimateModeAuto: types.ClimateAuto,
		commands.ClimateModeCool: types.ClimateCool,
		commands.ClimateModeHeat: types.ClimateHeat,
		commands.ClimateModeFan:  types.ClimateFan,
	}
	fanModes = map[commands.Kind]types.FanMode{
		commands.FanModeAuto:       types.FanAuto,
		commands.FanModeAutoCont:   types.FanAutoCont,
		commands.FanModeLow:        types.FanLow,
		commands.FanModeLowCont:    types.FanLowCont,
		commands.FanModeMedium:     types.FanMedium,
		commands.FanModeMediumCont: types.FanMediumCont,
		commands.FanModeHigh:       types.FanHigh,
		commands.FanModeHighCont:   types.FanHighCont,
	}
)

// applyCommand updates only the cached fields targeted by an acknowledged
// command. Callers hold u.mu.
func (u *Unit) applyCommand(kind commands.Kind, params commands.Params, zone *Zone) {
	m := &u.master

	if mode, ok := climateModes[kind]; ok {
		m.ClimateMode = mode
		return
	}
	if mode, ok := fanModes[kind]; ok {
		m.FanMode = mode
		return
	}

	switch kind {
	case commands.On:
		m.PowerState = types.PowerOn
	case commands.Off:
		m.PowerState = types.PowerOff
	case commands.CoolSetPoint:
		m.MasterCoolSetpoint = params.CoolSetpoint
	case commands.HeatSetPoint:
		m.MasterHeatSetpoint = params.HeatSetpoint
	case commands.HeatCoolSetPoint:
		m.MasterCoolSetpoint = params.CoolSetpoint
		m.MasterHeatSetpoint = params.HeatSetpoint
	case commands.ControlAllZonesOn:
		m.ControlAllZones = true
	case commands.ControlAllZonesOff:
		m.ControlAllZones = false
	case commands.AwayModeOn:
		m.AwayMode = true
	case commands.AwayModeOff:
		m.AwayMode = false
	case commands.QuietModeOn:
		m.QuietMode = true
	case commands.QuietModeOff:
		m.QuietMode = false
	case commands.ZoneEnable, commands.ZoneDisable:
		enabled := kind == commands.ZoneEnable
		if zone != nil {
			zone.status.Enabled = enabled
		}
		if i := params.ZoneIndex; i >= 0 && i < len(m.EnabledZones) {
			m.EnabledZones[i] = enabled
		}
	case commands.ZoneCoolSetPoint:
		if zone != nil {
			zone.status.CoolSetpoint = params.CoolSetpoint
		}
	case commands.ZoneHeatSetPoint:
		if zone != nil {
			zone.status.HeatSetpoint = params.HeatSetpoint
		}
	}
}
