package mqtt

import (
	"encoding/json"
	"testing"

	"github.com/berfenger/homesim/internal/config"
	"github.com/berfenger/homesim/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discoveryClient() *MQTTClient {
	cfg := config.Config{MQTT: config.MQTTConfig{Host: "localhost", Port: 1883, BaseTopic: "homesim", Discovery: true, DiscoveryPrefix: "homeassistant"}}
	return CreateMQTTClient(&cfg, OptsFromConfig(&cfg), nil, nil)
}

func TestSensorDiscoveryMessage(t *testing.T) {

	assert := assert.New(t)

	c := discoveryClient()

	topic, msg, ok := c.SensorDiscoveryMessage(domain.FloatSensor("living_room_temperature", 21.3, 1), "v1.0.0")
	assert.True(ok)
	assert.Equal("homeassistant/sensor/homesim/living_room_temperature/config", topic)
	assert.Equal("homesim/sensor/living_room_temperature/state", msg.StateTopic)
	assert.Equal("temperature", msg.DeviceClass)
	assert.Equal("°C", msg.UnitOfMeasurement)
	assert.Equal("measurement", msg.StateClass)
	assert.Equal("Living room temperature", msg.Name)
	assert.Equal("homesim_living_room_temperature", msg.UniqueId)
	assert.Equal("homesim/bridge/state", msg.AvTopic)
	assert.Equal([]string{"homesim"}, msg.Device.Id)
	assert.Equal("v1.0.0", msg.Device.Version)

	topic, msg, ok = c.SensorDiscoveryMessage(domain.FloatSensor("car_battery", 80, 1), "")
	assert.True(ok)
	assert.Equal("homeassistant/sensor/homesim/car_battery/config", topic)
	assert.Equal("battery", msg.DeviceClass)
	assert.Equal("%", msg.UnitOfMeasurement)

	topic, msg, ok = c.SensorDiscoveryMessage(domain.TextSensor("vacuum_state", "Docked"), "")
	assert.True(ok)
	assert.Equal("homeassistant/sensor/homesim/vacuum_state/config", topic)
	assert.Empty(msg.UnitOfMeasurement)
	assert.Empty(msg.StateClass, "text sensors are not measurements")

	topic, msg, ok = c.SensorDiscoveryMessage(domain.BinarySensor("kitchen_lights", true), "")
	assert.True(ok)
	assert.Equal("homeassistant/binary_sensor/homesim/kitchen_lights/config", topic)
	assert.Equal("homesim/binary_sensor/kitchen_lights/state", msg.StateTopic)
	assert.Equal("light", msg.DeviceClass)
	assert.Equal(MQTT_PAYLOAD_ON, msg.PayloadOn)
	assert.Equal(MQTT_PAYLOAD_OFF, msg.PayloadOff)

	_, _, ok = c.SensorDiscoveryMessage(domain.BridgeStateUpdateEvent{}, "")
	assert.False(ok, "the bridge sensor is announced on its own")
}

func TestBridgeDiscoveryMessage(t *testing.T) {

	require := require.New(t)

	topic, msg := discoveryClient().BridgeDiscoveryMessage("v1.0.0")
	require.Equal("homeassistant/binary_sensor/homesim/bridge_state/config", topic)

	payload, err := json.Marshal(msg)
	require.NoError(err)
	var decoded map[string]any
	require.NoError(json.Unmarshal(payload, &decoded))
	require.Equal("homesim/bridge/state", decoded["state_topic"])
	require.Equal("connectivity", decoded["device_class"])
	require.Equal("online", decoded["payload_on"])
	require.Equal("offline", decoded["payload_off"])
	require.NotContains(decoded, "unit_of_measurement")
}
