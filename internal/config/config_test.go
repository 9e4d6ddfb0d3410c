package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/berfenger/homesim/internal/core/domain"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDefaults(t *testing.T) {

	require := require.New(t)

	cfg, err := Load(viper.New())
	require.NoError(err)
	require.Equal(time.Minute, cfg.Simulation.Tick)
	require.Equal(time.Minute, cfg.VehiclePollInterval(), "poll follows the tick by default")
	require.Equal(domain.DefaultRoomSpecs, cfg.Rooms)
	require.Equal(domain.DefaultPlaceSpecs, cfg.Places)
	require.Equal("homesim", cfg.MQTT.BaseTopic)
	require.False(cfg.MQTT.Discovery)
	require.Equal("homeassistant", cfg.MQTT.DiscoveryPrefix)
	require.Equal(uint(8080), cfg.Port)
	require.Equal(zap.WarnLevel, cfg.LogLevel)
}

func TestEnvOverrides(t *testing.T) {

	require := require.New(t)

	// Load writes the PORT alias through; register it for cleanup
	t.Setenv("HOMESIM_PORT", "")
	t.Setenv("PORT", "9090")
	t.Setenv("HOMESIM_SIMULATION_TICK", "2s")
	t.Setenv("HOMESIM_VEHICLE_POLL_INTERVAL", "30s")
	t.Setenv("HOMESIM_LOG_LEVEL", "debug")
	t.Setenv("HOMESIM_MQTT_BASE_TOPIC", "MyHome")

	cfg, err := Load(viper.New())
	require.NoError(err)
	require.Equal(uint(9090), cfg.Port)
	require.Equal(2*time.Second, cfg.Simulation.Tick)
	require.Equal(30*time.Second, cfg.VehiclePollInterval())
	require.Equal(zap.DebugLevel, cfg.LogLevel)
	require.Equal("myhome", cfg.MQTT.BaseTopic)
}

func TestConfigFile(t *testing.T) {

	require := require.New(t)

	path := filepath.Join(t.TempDir(), "homesim.yaml")
	err := os.WriteFile(path, []byte(`
rooms:
  - name: Studio
    area: 20
  - name: Porch
    area: 6.5
places:
  - name: Base
    latitude: 40.0
    longitude: -3.0
modbus:
  enabled: true
  url: tcp://127.0.0.1:1502
`), 0o600)
	require.NoError(err)
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load(viper.New())
	require.NoError(err)
	require.Equal([]domain.RoomSpec{{Name: "Studio", Area: 20}, {Name: "Porch", Area: 6.5}}, cfg.Rooms)
	require.Equal([]domain.Place{{Name: "Base", Latitude: 40, Longitude: -3}}, cfg.Places)
	require.True(cfg.Modbus.Enabled)
	require.Equal("tcp://127.0.0.1:1502", cfg.Modbus.URL)
}

func TestValidation(t *testing.T) {

	assert := assert.New(t)

	decode := func(set map[string]any) error {
		v := viper.New()
		SetDefaults(v)
		for k, val := range set {
			v.Set(k, val)
		}
		_, err := Decode(v)
		return err
	}

	assert.NoError(decode(nil))
	assert.Error(decode(map[string]any{"mqtt.base_topic": "home/sim"}))
	assert.Error(decode(map[string]any{"simulation.tick": "1us"}))
	assert.Error(decode(map[string]any{"port": 0}))
	assert.Error(decode(map[string]any{"mqtt.enabled": true, "mqtt.host": ""}))
	assert.Error(decode(map[string]any{"mqtt.discovery": true, "mqtt.discovery_prefix": "home/assistant"}))
	assert.NoError(decode(map[string]any{"mqtt.discovery": false, "mqtt.discovery_prefix": "home/assistant"}), "prefix only matters with discovery on")
	assert.Error(decode(map[string]any{"modbus.enabled": true, "modbus.url": "localhost:502"}))
	assert.Error(decode(map[string]any{"rooms": []map[string]any{{"name": "Attic", "area": 0}}}))
	assert.Error(decode(map[string]any{"rooms": []map[string]any{{"name": "Attic", "area": 5}, {"name": "attic", "area": 6}}}))
	assert.Error(decode(map[string]any{"places": []map[string]any{{"name": "Pole", "latitude": 91, "longitude": 0}}}))
}

func TestCheckMQTTTopic(t *testing.T) {

	assert := assert.New(t)

	topic, err := CheckMQTTTopic("Home_Sim1")
	assert.NoError(err)
	assert.Equal("home_sim1", topic)

	_, err = CheckMQTTTopic("home/sim")
	assert.Error(err)
	_, err = CheckMQTTTopic("")
	assert.Error(err)
}

func TestRedacted(t *testing.T) {

	assert := assert.New(t)

	cfg := Config{MQTT: MQTTConfig{Username: "user", Password: "secret"}}
	r := cfg.Redacted()
	assert.Equal("*redacted*", r.MQTT.Password)
	assert.Equal("secret", cfg.MQTT.Password)
}
