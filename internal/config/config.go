// Package config загружает конфигурацию монитора из YAML и переменных окружения
package config

import (
	"os"
	"time"

	"emperror.dev/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/idgaron/Capstone-Software/internal/analytics"
	"github.com/idgaron/Capstone-Software/internal/cache"
	"github.com/idgaron/Capstone-Software/internal/environ"
	"github.com/idgaron/Capstone-Software/internal/ingest"
	"github.com/idgaron/Capstone-Software/internal/monitor"
	"github.com/idgaron/Capstone-Software/internal/source"
)

// ErrInvalid возвращается при некорректной конфигурации
var ErrInvalid = errors.NewPlain("invalid config")

// Виды источников строк
const (
	SourceSerial = "serial"
	SourceFile   = "file"
	SourceStdin  = "stdin"
)

// Config содержит конфигурацию монитора
type Config struct {
	LogLevel string           `yaml:"log_level"`
	Source   SourceConfig     `yaml:"source"`
	Ingest   ingest.Config    `yaml:"ingest"`
	Analyzer analytics.Config `yaml:"analyzer"`
	Monitor  monitor.Options  `yaml:"monitor"`
	HTTP     HTTPConfig       `yaml:"http"`
	Redis    RedisConfig      `yaml:"redis"`
}

// SourceConfig описывает источник строк телеметрии
type SourceConfig struct {
	Kind   string              `yaml:"kind"`
	Serial source.SerialConfig `yaml:"serial"`
	File   string              `yaml:"file"`
	Follow bool                `yaml:"follow"`
}

// HTTPConfig настройки HTTP API
type HTTPConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// RedisConfig настройки публикации кадров в Redis
type RedisConfig struct {
	Enabled         bool `yaml:"enabled"`
	ConnectAttempts int  `yaml:"connect_attempts"`
	cache.Config    `yaml:",inline"`
}

// Default возвращает конфигурацию по умолчанию
func Default() Config {
	return Config{
		LogLevel: "info",
		Source: SourceConfig{
			Kind: SourceSerial,
			Serial: source.SerialConfig{
				Port:        "/dev/ttyACM0",
				Baud:        115200,
				FlushOnOpen: true,
			},
		},
		Ingest: ingest.Config{
			TimestampIndex: 0,
			ValueIndex:     2,
			MinFields:      3,
		},
		// При линейной оси все частоты неотрицательны и PositiveOnly оставляет все W бинов
		Analyzer: analytics.Config{
			WindowSize:   1000,
			SampleRate:   500,
			Normalize:    true,
			PositiveOnly: true,
			Prefill:      true,
			Layout:       analytics.LayoutLinear,
			Taper:        analytics.TaperNone,
		},
		Monitor: monitor.Options{
			UpdateInterval: 25,
			TimeAxis:       monitor.TimeAxisIndex,
			TimestampScale: 1,
		},
		HTTP: HTTPConfig{
			Enabled:         true,
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Redis: RedisConfig{
			ConnectAttempts: 5,
			Config: cache.Config{
				Addr:      "localhost:6379",
				KeyPrefix: cache.DefaultKeyPrefix,
				TTL:       cache.DefaultTTL,
				History:   cache.DefaultHistory,
			},
		},
	}
}

// Load читает YAML поверх значений по умолчанию и применяет переменные окружения.
// Пустой path означает только значения по умолчанию и окружение.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, errors.Wrapf(err, "parse config %s", path)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyEnv применяет переопределения из окружения
func (c *Config) applyEnv() {
	c.Source.Serial.Port = environ.GetString("MONITOR_SERIAL_PORT", c.Source.Serial.Port)
	c.Source.Serial.Baud = environ.GetInt("MONITOR_SERIAL_BAUD", c.Source.Serial.Baud)
	c.Source.Serial.ReadTimeout = environ.GetDuration("MONITOR_SERIAL_READ_TIMEOUT", c.Source.Serial.ReadTimeout)
	c.Analyzer.WindowSize = environ.GetInt("MONITOR_WINDOW_SIZE", c.Analyzer.WindowSize)
	c.Analyzer.SampleRate = environ.GetFloat64("MONITOR_SAMPLE_RATE", c.Analyzer.SampleRate)
	c.Monitor.UpdateInterval = environ.GetInt("MONITOR_UPDATE_INTERVAL", c.Monitor.UpdateInterval)
	c.Monitor.MaxRecords = environ.GetUint64("MONITOR_MAX_RECORDS", c.Monitor.MaxRecords)
	c.Monitor.StopAtTimestamp = environ.GetFloat64("MONITOR_STOP_AT_TIMESTAMP", c.Monitor.StopAtTimestamp)
	c.HTTP.Addr = environ.GetString("MONITOR_HTTP_ADDR", c.HTTP.Addr)
	c.Redis.Addr = environ.GetString("MONITOR_REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = environ.GetString("MONITOR_REDIS_PASSWORD", c.Redis.Password)
	c.Redis.Enabled = environ.GetBool("MONITOR_REDIS_ENABLED", c.Redis.Enabled)
	c.Redis.TTL = environ.GetDuration("MONITOR_REDIS_TTL", c.Redis.TTL)
	c.LogLevel = environ.GetString("MONITOR_LOG_LEVEL", c.LogLevel)
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Source.Kind == "" {
		c.Source.Kind = SourceSerial
	}
	if c.Source.Serial.Baud == 0 {
		c.Source.Serial.Baud = 115200
	}
	if c.Monitor.TimeAxis == "" {
		c.Monitor.TimeAxis = monitor.TimeAxisIndex
	}
	if c.Monitor.TimestampScale == 0 {
		c.Monitor.TimestampScale = 1
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.HTTP.ShutdownTimeout == 0 {
		c.HTTP.ShutdownTimeout = 30 * time.Second
	}
	if c.Redis.ConnectAttempts <= 0 {
		c.Redis.ConnectAttempts = 1
	}
}

// Validate проверяет конфигурацию целиком
func (c *Config) Validate() error {
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrapf(ErrInvalid, "log_level: %v", err)
	}

	switch c.Source.Kind {
	case SourceSerial:
		if c.Source.Serial.Port == "" {
			return errors.Wrap(ErrInvalid, "source.serial.port is required")
		}
		if c.Source.Serial.Baud <= 0 {
			return errors.Wrapf(ErrInvalid, "source.serial.baud must be > 0: %d", c.Source.Serial.Baud)
		}
	case SourceFile:
		if c.Source.File == "" {
			return errors.Wrap(ErrInvalid, "source.file is required")
		}
	case SourceStdin:
	default:
		return errors.Wrapf(ErrInvalid, "unknown source kind %q", c.Source.Kind)
	}

	if err := c.Ingest.Validate(); err != nil {
		return errors.WrapIf(err, "ingest config")
	}
	if err := c.Analyzer.Validate(); err != nil {
		return errors.WrapIf(err, "analyzer config")
	}
	if err := c.Monitor.Validate(); err != nil {
		return errors.WrapIf(err, "monitor config")
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		return errors.Wrap(ErrInvalid, "redis.addr is required when redis is enabled")
	}
	return nil
}
