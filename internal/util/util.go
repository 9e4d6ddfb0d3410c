package util

import (
	"time"

	"github.com/berfenger/homesim/internal/config"
	"github.com/berfenger/homesim/internal/core/domain"

	"go.uber.org/zap"
)

func LoadTestConfig() config.Config {
	return config.Config{
		LogLevel: zap.DebugLevel,
		Simulation: config.SimulationConfig{
			Tick: 10 * time.Millisecond,
		},
		Rooms:  domain.DefaultRoomSpecs,
		Places: domain.DefaultPlaceSpecs,
		Telemetry: config.TelemetryConfig{
			Interval: 50 * time.Millisecond,
		},
		MQTT: config.MQTTConfig{
			Host:      "localhost",
			Port:      1883,
			BaseTopic: "homesim",
		},
		Modbus: config.ModbusConfig{
			URL: "tcp://127.0.0.1:15502",
		},
		Port:             8080,
		OperationTimeout: time.Second,
	}
}
