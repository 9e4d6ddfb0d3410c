package mqtt

import (
	"fmt"
	"strings"

	"github.com/berfenger/homesim/internal/core/domain"
)

const (
	HA_COMPONENT_SENSOR        = "sensor"
	HA_COMPONENT_BINARY_SENSOR = "binary_sensor"

	bridgeStateId = "bridge_state"
)

type HADiscoveryConfig struct {
	Device            HADiscoveryDevice `json:"device"`
	StateTopic        string            `json:"state_topic"`
	StateClass        string            `json:"state_class,omitempty"`
	DeviceClass       string            `json:"device_class,omitempty"`
	UnitOfMeasurement string            `json:"unit_of_measurement,omitempty"`
	AvTopic           string            `json:"availability_topic,omitempty"`
	EntityCategory    string            `json:"entity_category,omitempty"`
	Name              string            `json:"name"`
	UniqueId          string            `json:"unique_id"`
	Platform          string            `json:"platform"`
	PayloadOn         string            `json:"payload_on,omitempty"`
	PayloadOff        string            `json:"payload_off,omitempty"`
}

type HADiscoveryDevice struct {
	Id           []string `json:"identifiers"`
	Manufacturer string   `json:"manufacturer,omitempty"`
	Version      string   `json:"sw_version,omitempty"`
	Model        string   `json:"model,omitempty"`
	Name         string   `json:"name,omitempty"`
}

func (c *MQTTClient) HADiscoveryTopic(component, sensorId string) string {
	return fmt.Sprintf("%s/%s/%s/%s/config", c.cfg.DiscoveryPrefix, component, c.baseTopic(), sensorId)
}

func (c *MQTTClient) device(version string) HADiscoveryDevice {
	return HADiscoveryDevice{
		Id:           []string{c.baseTopic()},
		Manufacturer: "homesim",
		Model:        "Home simulator",
		Name:         c.baseTopic(),
		Version:      version,
	}
}

// SensorDiscoveryMessage describes the Home Assistant entity that carries
// event. ok is false for events that have no entity.
func (c *MQTTClient) SensorDiscoveryMessage(event domain.SensorUpdateEvent, version string) (topic string, disConfig HADiscoveryConfig, ok bool) {
	id := event.SensorId()
	disConfig = HADiscoveryConfig{
		Device:   c.device(version),
		AvTopic:  c.BridgeStateTopic(),
		Name:     sensorName(id),
		UniqueId: c.baseTopic() + "_" + id,
		Platform: "mqtt",
	}
	switch event.(type) {
	case domain.FloatSensorUpdateEvent:
		disConfig.StateTopic = c.SensorStateTopic(id)
		disConfig.DeviceClass, disConfig.UnitOfMeasurement = measurement(id)
		disConfig.StateClass = "measurement"
		return c.HADiscoveryTopic(HA_COMPONENT_SENSOR, id), disConfig, true
	case domain.TextSensorUpdateEvent:
		disConfig.StateTopic = c.SensorStateTopic(id)
		return c.HADiscoveryTopic(HA_COMPONENT_SENSOR, id), disConfig, true
	case domain.BinarySensorUpdateEvent:
		disConfig.StateTopic = c.BinarySensorStateTopic(id)
		disConfig.PayloadOn = MQTT_PAYLOAD_ON
		disConfig.PayloadOff = MQTT_PAYLOAD_OFF
		if strings.HasSuffix(id, "_lights") {
			disConfig.DeviceClass = "light"
		}
		return c.HADiscoveryTopic(HA_COMPONENT_BINARY_SENSOR, id), disConfig, true
	}
	return "", HADiscoveryConfig{}, false
}

// BridgeDiscoveryMessage describes the connectivity sensor backed by the
// bridge state topic.
func (c *MQTTClient) BridgeDiscoveryMessage(version string) (string, HADiscoveryConfig) {
	return c.HADiscoveryTopic(HA_COMPONENT_BINARY_SENSOR, bridgeStateId), HADiscoveryConfig{
		Device:         c.device(version),
		StateTopic:     c.BridgeStateTopic(),
		DeviceClass:    "connectivity",
		EntityCategory: "diagnostic",
		Name:           "Bridge state",
		UniqueId:       c.baseTopic() + "_" + bridgeStateId,
		Platform:       "mqtt",
		PayloadOn:      MQTT_PAYLOAD_ONLINE,
		PayloadOff:     MQTT_PAYLOAD_OFFLINE,
	}
}

func measurement(sensorId string) (deviceClass, unit string) {
	switch {
	case strings.HasSuffix(sensorId, "_temperature"):
		return "temperature", "°C"
	case strings.HasSuffix(sensorId, "_humidity"):
		return "humidity", "%"
	case sensorId == "car_battery":
		return "battery", "%"
	case strings.HasSuffix(sensorId, "_blinds"):
		return "", "%"
	}
	return "", ""
}

// sensorName turns living_room_temperature into "Living room temperature".
func sensorName(sensorId string) string {
	name := strings.ReplaceAll(sensorId, "_", " ")
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
