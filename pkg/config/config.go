// Package config реализует загрузку конфигурации.
package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"
)

// Config конфигурация сервера.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Users  UsersConfig  `yaml:"users"`
	Limits LimitsConfig `yaml:"limits"`
	Log    LogConfig    `yaml:"log"`
	Events EventsConfig `yaml:"events"`

	// Ready закрывается когда сервер полностью готов к приёму соединений.
	// Опциональное поле, используется для тестов.
	Ready chan struct{} `yaml:"-"`
}

// ServerConfig конфигурация TCP сервера.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr возвращает адрес сервера в формате host:port.
func (c ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// UsersConfig расположение базы пользователей.
type UsersConfig struct {
	File string `yaml:"file"`
}

// LimitsConfig конфигурация лимитов.
//
// Нулевые значения таймаутов и MaxVectorSize означают «без ограничения».
// При max_connections = 1 зависший клиент без таймаутов блокирует сервис.
type LimitsConfig struct {
	// MaxConnections количество одновременно обслуживаемых соединений.
	// 1 = строго последовательная обработка.
	MaxConnections int           `yaml:"max_connections"`
	// MaxVectorSize максимальное количество элементов в векторе, 0 = без ограничения.
	MaxVectorSize  uint32        `yaml:"max_vector_size"`
	// AuthTimeout дедлайн на аутентификацию, 0 = без дедлайна.
	AuthTimeout    time.Duration `yaml:"auth_timeout"`
	// IOTimeout дедлайн на каждое чтение/запись при обмене векторами, 0 = без дедлайна.
	IOTimeout      time.Duration `yaml:"io_timeout"`

	// AcceptRatePerSec ограничение частоты приёма соединений, 0 = без ограничения.
	AcceptRatePerSec float64 `yaml:"accept_rate_per_sec"`
	AcceptBurst      int     `yaml:"accept_burst"`
}

// LogConfig конфигурация логирования.
type LogConfig struct {
	Level   string `yaml:"level"`
	Format  string `yaml:"format"`
	File    string `yaml:"file"`    // путь к файлу логов (пустой = stdout)
	Journal string `yaml:"journal"` // журнал событий протокола
}

// EventsConfig публикация событий протокола в NATS.
type EventsConfig struct {
	Enabled       bool          `yaml:"enabled"`
	URLs          []string      `yaml:"urls"`
	Subject       string        `yaml:"subject"`
	ReconnectWait time.Duration `yaml:"reconnect_wait"`
	MaxReconnects int           `yaml:"max_reconnects"`
}

// Validate проверяет корректность конфигурации.
func (c *Config) Validate() error {
	var errs []error

	// Server
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid server port: %d", c.Server.Port))
	}

	// Users
	if c.Users.File == "" {
		errs = append(errs, fmt.Errorf("users.file is required"))
	}

	// Limits
	if c.Limits.MaxConnections < 1 {
		errs = append(errs, fmt.Errorf("limits.max_connections must be positive"))
	}
	if c.Limits.AuthTimeout < 0 {
		errs = append(errs, fmt.Errorf("limits.auth_timeout must not be negative"))
	}
	if c.Limits.IOTimeout < 0 {
		errs = append(errs, fmt.Errorf("limits.io_timeout must not be negative"))
	}
	if c.Limits.AcceptRatePerSec < 0 {
		errs = append(errs, fmt.Errorf("limits.accept_rate_per_sec must not be negative"))
	}
	if c.Limits.AcceptRatePerSec > 0 && c.Limits.AcceptBurst < 1 {
		errs = append(errs, fmt.Errorf("limits.accept_burst must be positive when rate limit is set"))
	}

	// Log
	switch c.Log.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("invalid log.format: %q", c.Log.Format))
	}

	// Events
	if c.Events.Enabled {
		if len(c.Events.URLs) == 0 {
			errs = append(errs, fmt.Errorf("events.urls is required when events are enabled"))
		}
		if c.Events.Subject == "" {
			errs = append(errs, fmt.Errorf("events.subject is required when events are enabled"))
		}
	}

	return errors.Join(errs...)
}

// Default возвращает конфигурацию по умолчанию.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 33333,
		},
		Users: UsersConfig{
			File: "/scale.conf",
		},
		Limits: LimitsConfig{
			MaxConnections: 1,
			AcceptBurst:    1,
		},
		Log: LogConfig{
			Level:   "info",
			Format:  "text",
			Journal: "/log/scale.log",
		},
		Events: EventsConfig{
			URLs:          []string{"nats://localhost:4222"},
			Subject:       "scale.events",
			ReconnectWait: 2 * time.Second,
			MaxReconnects: -1,
		},
	}
}
