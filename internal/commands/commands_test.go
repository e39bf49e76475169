package commands

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_Power(t *testing.T) {
	doc, err := Encode(On, Params{})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{PathPower: true, "type": "set-settings"}, doc.Command)

	doc, err = Encode(Off, Params{})
	require.NoError(t, err)
	assert.Equal(t, false, doc.Command[PathPower])
}

func TestEncode_Modes(t *testing.T) {
	doc, err := Encode(ClimateModeHeat, Params{})
	require.NoError(t, err)
	assert.Equal(t, "HEAT", doc.Command[PathMode])

	doc, err = Encode(FanModeMediumCont, Params{})
	require.NoError(t, err)
	assert.Equal(t, "MED-CONT", doc.Command[PathFanMode])

	doc, err = Encode(FanModeHigh, Params{})
	require.NoError(t, err)
	assert.Equal(t, "HIGH", doc.Command[PathFanMode])
}

func TestEncode_Setpoints(t *testing.T) {
	doc, err := Encode(HeatCoolSetPoint, Params{CoolSetpoint: 24, HeatSetpoint: 19.5})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{PathCoolSetpoint: 24.0, PathHeatSetpoint: 19.5}, doc.Settings())

	doc, err = Encode(CoolSetPoint, Params{CoolSetpoint: 23, HeatSetpoint: 99})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{PathCoolSetpoint: 23.0}, doc.Settings())
}

func TestEncode_Toggles(t *testing.T) {
	cases := map[Kind]struct {
		path  string
		value bool
	}{
		AwayModeOn:         {PathAwayMode, true},
		QuietModeOff:       {PathQuietMode, false},
		ControlAllZonesOn:  {PathControlAllZones, true},
		ControlAllZonesOff: {PathControlAllZones, false},
	}
	for kind, want := range cases {
		doc, err := Encode(kind, Params{})
		require.NoError(t, err, kind)
		assert.Equal(t, map[string]any{want.path: want.value}, doc.Settings(), kind)
	}
}

func TestEncode_ZoneEnableSendsFullArray(t *testing.T) {
	current := []bool{true, false, false, false}

	doc, err := Encode(ZoneEnable, Params{ZoneIndex: 2, EnabledZones: current})
	require.NoError(t, err)

	assert.Equal(t, []bool{true, false, true, false}, doc.Command[PathEnabledZones])
	assert.Equal(t, []bool{true, false, false, false}, current, "input must not be mutated")
}

func TestEncode_ZoneDisable(t *testing.T) {
	doc, err := Encode(ZoneDisable, Params{ZoneIndex: 0, EnabledZones: []bool{true, true}})
	require.NoError(t, err)
	assert.Equal(t, []bool{false, true}, doc.Command[PathEnabledZones])
}

func TestEncode_ZoneEnableErrors(t *testing.T) {
	_, err := Encode(ZoneEnable, Params{ZoneIndex: 4, EnabledZones: []bool{true, false}})
	assert.Error(t, err)

	_, err = Encode(ZoneEnable, Params{ZoneIndex: -1, EnabledZones: []bool{true}})
	assert.Error(t, err)

	_, err = Encode(ZoneDisable, Params{ZoneIndex: 0})
	assert.Error(t, err)
}

func TestEncode_ZoneSetpoints(t *testing.T) {
	doc, err := Encode(ZoneCoolSetPoint, Params{ZoneIndex: 3, CoolSetpoint: 22})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"RemoteZoneInfo[3].TemperatureSetpoint_Cool_oC": 22.0}, doc.Settings())

	doc, err = Encode(ZoneHeatSetPoint, Params{ZoneIndex: 1, HeatSetpoint: 18})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"RemoteZoneInfo[1].TemperatureSetpoint_Heat_oC": 18.0}, doc.Settings())

	_, err = Encode(ZoneHeatSetPoint, Params{ZoneIndex: -2})
	assert.Error(t, err)
}

func TestEncode_Unknown(t *testing.T) {
	_, err := Encode(Kind("TURBO"), Params{})
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestEncode_WireFormat(t *testing.T) {
	doc, err := Encode(ZoneCoolSetPoint, Params{ZoneIndex: 1, CoolSetpoint: 21.5})
	require.NoError(t, err)

	data, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.JSONEq(t, `{"command": {"RemoteZoneInfo[1].TemperatureSetpoint_Cool_oC": 21.5, "type": "set-settings"}}`, string(data))
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("fan-mode-auto-cont")
	require.NoError(t, err)
	assert.Equal(t, FanModeAutoCont, k)

	k, err = ParseKind(" ZONE_ENABLE ")
	require.NoError(t, err)
	assert.Equal(t, ZoneEnable, k)
	assert.True(t, k.IsZone())
	assert.False(t, On.IsZone())

	_, err = ParseKind("defrost")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestKinds_AllEncodable(t *testing.T) {
	kinds := Kinds()
	assert.Len(t, kinds, 27)

	for _, k := range kinds {
		_, err := Encode(k, Params{ZoneIndex: 0, EnabledZones: []bool{false}})
		assert.NoError(t, err, k)
	}
}
