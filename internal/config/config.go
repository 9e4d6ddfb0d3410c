package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/berfenger/homesim/internal/core/domain"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	validator "gopkg.in/go-playground/validator.v9"
)

const EnvPrefix = "homesim"

type Config struct {
	LogLevel   zapcore.Level     `mapstructure:"-"`
	Simulation SimulationConfig  `mapstructure:"simulation"`
	Rooms      []domain.RoomSpec `mapstructure:"rooms" validate:"dive"`
	Places     []domain.Place    `mapstructure:"places" validate:"dive"`
	Vehicle    VehicleConfig     `mapstructure:"vehicle"`
	Telemetry  TelemetryConfig   `mapstructure:"telemetry"`
	MQTT       MQTTConfig        `mapstructure:"mqtt"`
	Modbus     ModbusConfig      `mapstructure:"modbus"`
	Port       uint              `mapstructure:"port" validate:"gt=0,lte=65535"`
	HttpLog    bool              `mapstructure:"http_log"`
	// OperationTimeout bounds a single HTTP operation.
	OperationTimeout time.Duration `mapstructure:"operation_timeout" validate:"gt=0"`
}

type SimulationConfig struct {
	// Tick is the wall-clock length of one simulated minute.
	Tick time.Duration `mapstructure:"tick" validate:"gte=1000000"`
}

type VehicleConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval" validate:"gte=0"`
}

type TelemetryConfig struct {
	Interval time.Duration `mapstructure:"interval" validate:"gte=0"`
}

type MQTTConfig struct {
	Enabled   bool
	Host      string
	Port      int `validate:"gte=0,lte=65535"`
	Username  string
	Password  string
	BaseTopic string `mapstructure:"base_topic"`
	// Discovery announces every sensor to Home Assistant under
	// DiscoveryPrefix.
	Discovery       bool
	DiscoveryPrefix string `mapstructure:"discovery_prefix"`
}

type ModbusConfig struct {
	Enabled bool
	URL     string `mapstructure:"url"`
	// UnitId zero answers every unit.
	UnitId uint8 `mapstructure:"unit_id"`
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "warn")
	v.SetDefault("simulation.tick", "1m")
	v.SetDefault("vehicle.poll_interval", "0s")
	v.SetDefault("telemetry.interval", "30s")
	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.host", "localhost")
	v.SetDefault("mqtt.port", 1883)
	v.SetDefault("mqtt.base_topic", "homesim")
	v.SetDefault("mqtt.discovery", false)
	v.SetDefault("mqtt.discovery_prefix", "homeassistant")
	v.SetDefault("modbus.enabled", false)
	v.SetDefault("modbus.url", "tcp://0.0.0.0:5502")
	v.SetDefault("modbus.unit_id", 0)
	v.SetDefault("port", 8080)
	v.SetDefault("http_log", false)
	v.SetDefault("operation_timeout", "5s")
}

// Load reads env vars and, when CONFIG_FILE points to an existing file, that
// file. PORT is an alias of HOMESIM_PORT.
func Load(v *viper.Viper) (*Config, error) {
	if port := os.Getenv("PORT"); port != "" {
		os.Setenv(strings.ToUpper(EnvPrefix)+"_PORT", port)
	}

	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile := os.Getenv("CONFIG_FILE"); cfgFile != "" {
		if _, err := os.Stat(cfgFile); err == nil {
			v.SetConfigFile(cfgFile)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("reading config file %s: %w", cfgFile, err)
			}
		}
	}
	return Decode(v)
}

// Decode unmarshals and validates whatever v currently holds.
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.LogLevel = ParseLogLevel(v.GetString("log_level"))

	if len(cfg.Rooms) == 0 {
		cfg.Rooms = append([]domain.RoomSpec(nil), domain.DefaultRoomSpecs...)
	}
	if len(cfg.Places) == 0 {
		cfg.Places = append([]domain.Place(nil), domain.DefaultPlaceSpecs...)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) Validate() error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	baseTopic, err := CheckMQTTTopic(cfg.MQTT.BaseTopic)
	if err != nil {
		return errors.New("invalid base topic. can only contain letters, numbers and underscores")
	}
	cfg.MQTT.BaseTopic = baseTopic
	if cfg.MQTT.Discovery {
		prefix, err := CheckMQTTTopic(cfg.MQTT.DiscoveryPrefix)
		if err != nil {
			return errors.New("invalid discovery prefix. can only contain letters, numbers and underscores")
		}
		cfg.MQTT.DiscoveryPrefix = prefix
	}
	if cfg.MQTT.Enabled && cfg.MQTT.Host == "" {
		return errors.New("config param mqtt.host is required when mqtt is enabled")
	}
	if cfg.Modbus.Enabled && !strings.HasPrefix(cfg.Modbus.URL, "tcp://") {
		return errors.New("config param modbus.url should look like tcp://host:port")
	}

	// catches duplicates and blank names that the struct tags do not
	if _, err := domain.NewRooms(cfg.Rooms); err != nil {
		return fmt.Errorf("config param rooms: %w", err)
	}
	if _, err := domain.NewPlaces(cfg.Places); err != nil {
		return fmt.Errorf("config param places: %w", err)
	}
	return nil
}

func (cfg *Config) VehiclePollInterval() time.Duration {
	if cfg.Vehicle.PollInterval > 0 {
		return cfg.Vehicle.PollInterval
	}
	return cfg.Simulation.Tick
}

func ParseLogLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zap.DebugLevel
	case "debug":
		return zap.DebugLevel
	case "info":
		return zap.InfoLevel
	case "error":
		return zap.ErrorLevel
	case "warn":
		return zap.WarnLevel
	case "fatal":
		return zap.FatalLevel
	default:
		return zap.InfoLevel
	}
}

var baseTopicRegexp = regexp.MustCompile("^[a-z0-9_]+$")

func CheckMQTTTopic(baseTopic string) (string, error) {
	// check and fix base topic
	lowerBaseTopic := strings.ToLower(baseTopic)
	if !baseTopicRegexp.MatchString(lowerBaseTopic) {
		return "", errors.New("invalid topic. can only contain letters, numbers and underscores")
	}
	return lowerBaseTopic, nil
}

// Redacted hides credentials for logging.
func (cfg Config) Redacted() Config {
	if cfg.MQTT.Username != "" {
		cfg.MQTT.Username = "*redacted*"
	}
	if cfg.MQTT.Password != "" {
		cfg.MQTT.Password = "*redacted*"
	}
	return cfg
}
