package config

import (
	"fmt"
	"net"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel       string      `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort       string      `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	SocketPort     string      `yaml:"socket-port" env:"PORT" env-default:"8080"`
	AllowedOrigins []string    `yaml:"allowed-origins" env:"ALLOWED_ORIGINS" env-default:"*"`
	Matchmaking    Matchmaking `yaml:"matchmaking"`
	Liveness       Liveness    `yaml:"liveness"`
	Connection     Connection  `yaml:"connection"`
	Redis          Redis       `yaml:"redis"`
}

type Matchmaking struct {
	// cleanenv applies env-default to zero values, so a default of true would
	// override an explicit false in the file. Both start true in Load instead.
	QuickEnabled bool   `yaml:"quick-enabled" env:"MATCHMAKING_QUICK_ENABLED"`
	RoomEnabled  bool   `yaml:"room-enabled" env:"MATCHMAKING_ROOM_ENABLED"`
	DefaultMode  string `yaml:"default-mode" env:"MATCHMAKING_DEFAULT_MODE" env-default:"quick"`
	CodeAttempts int    `yaml:"code-attempts" env:"MATCHMAKING_CODE_ATTEMPTS" env-default:"32"`
}

type Liveness struct {
	Interval     time.Duration `yaml:"interval" env:"LIVENESS_INTERVAL" env-default:"30s"`
	WriteTimeout time.Duration `yaml:"write-timeout" env:"LIVENESS_WRITE_TIMEOUT" env-default:"10s"`
}

type Connection struct {
	SendBuffer int   `yaml:"send-buffer" env:"CONNECTION_SEND_BUFFER" env-default:"32"`
	ReadLimit  int64 `yaml:"read-limit" env:"CONNECTION_READ_LIMIT" env-default:"4096"`
}

type Redis struct {
	Enabled bool          `yaml:"enabled" env:"REDIS_ENABLED" env-default:"false"`
	Host    string        `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port    string        `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Timeout time.Duration `yaml:"timeout" env:"REDIS_TIMEOUT" env-default:"2s"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

// Load - reads path, applies environment overrides and checks the result.
func Load(path string) (*Config, error) {
	config := &Config{
		Matchmaking: Matchmaking{QuickEnabled: true, RoomEnabled: true},
	}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("unable to load config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

func (that *Config) Validate() error {
	if !that.Matchmaking.QuickEnabled && !that.Matchmaking.RoomEnabled {
		return fmt.Errorf("at least one matchmaking mode must be enabled")
	}

	if !that.Matchmaking.Enabled(that.Matchmaking.DefaultMode) {
		return fmt.Errorf("default mode %q is unknown or disabled", that.Matchmaking.DefaultMode)
	}

	if that.Liveness.Interval <= 0 {
		return fmt.Errorf("liveness interval must be positive, got %s", that.Liveness.Interval)
	}

	if that.Connection.SendBuffer <= 0 {
		return fmt.Errorf("send buffer must be positive, got %d", that.Connection.SendBuffer)
	}

	return nil
}

// Enabled - reports whether mode ("quick" or "room") may be used.
func (that *Matchmaking) Enabled(mode string) bool {
	switch mode {
	case "quick":
		return that.QuickEnabled
	case "room":
		return that.RoomEnabled
	default:
		return false
	}
}

func (that *Redis) GetRedisAddr() string {
	return net.JoinHostPort(that.Host, that.Port)
}
