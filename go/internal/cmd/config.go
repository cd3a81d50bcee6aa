package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mcdev12/voterelay/go/internal/relay/decision"
)

const defaultPort = 8080

type Config struct {
	Port int `yaml:"-"`

	Decision struct {
		WindowSeconds int           `yaml:"window_seconds"`
		TickInterval  time.Duration `yaml:"tick_interval"`
	} `yaml:"decision"`

	HTTP struct {
		StaticDir      string   `yaml:"static_dir"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"http"`

	WebSocket struct {
		WriteTimeout      time.Duration `yaml:"write_timeout"`
		ReadTimeout       time.Duration `yaml:"read_timeout"`
		PingInterval      time.Duration `yaml:"ping_interval"`
		MaxMessageSize    int64         `yaml:"max_message_size"`
		SendBuffer        int           `yaml:"send_buffer"`
		MessagesPerSecond float64       `yaml:"messages_per_second"`
		Burst             int           `yaml:"burst"`
	} `yaml:"websocket"`

	NATS struct {
		URL     string `yaml:"url"`
		Subject string `yaml:"subject"`
	} `yaml:"nats"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

func defaultConfig() *Config {
	var c Config
	c.Port = defaultPort
	c.Decision.WindowSeconds = decision.DefaultWindowSeconds
	c.Decision.TickInterval = time.Second
	c.HTTP.StaticDir = "public"
	c.HTTP.AllowedOrigins = []string{"*"}
	c.WebSocket.WriteTimeout = 10 * time.Second
	c.WebSocket.ReadTimeout = 60 * time.Second
	c.WebSocket.PingInterval = 30 * time.Second
	c.WebSocket.MaxMessageSize = 64 * 1024
	c.WebSocket.SendBuffer = 256
	c.WebSocket.MessagesPerSecond = 20
	c.WebSocket.Burst = 40
	c.NATS.Subject = "relay.decisions"
	c.Log.Level = "info"
	c.Log.Format = "console"
	return &c
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// loadConfig applies, in order: defaults, the YAML file at path (if any),
// then environment overrides.
func loadConfig(path string) (*Config, error) {
	config := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	port, err := detectPort(os.Getenv("PORT"))
	if err != nil {
		return nil, err
	}
	config.Port = port

	if v := os.Getenv("DECISION_WINDOW_SECONDS"); v != "" {
		window, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("DECISION_WINDOW_SECONDS must be a number: %w", err)
		}
		config.Decision.WindowSeconds = window
	}

	config.HTTP.StaticDir = getEnv("STATIC_DIR", config.HTTP.StaticDir)
	config.NATS.URL = getEnv("NATS_URL", config.NATS.URL)
	config.NATS.Subject = getEnv("NATS_SUBJECT", config.NATS.Subject)
	config.Log.Level = getEnv("LOG_LEVEL", config.Log.Level)
	config.Log.Format = getEnv("LOG_FORMAT", config.Log.Format)

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// detectPort treats an unset, empty or zero PORT as the default
func detectPort(value string) (int, error) {
	if value == "" || value == "0" {
		return defaultPort, nil
	}
	port, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("PORT must be a number: %w", err)
	}
	return port, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.Decision.WindowSeconds < 0 {
		errs = append(errs, fmt.Errorf("decision.window_seconds must not be negative, got %d", c.Decision.WindowSeconds))
	}
	if c.Decision.TickInterval <= 0 {
		errs = append(errs, fmt.Errorf("decision.tick_interval must be positive, got %s", c.Decision.TickInterval))
	}
	if c.WebSocket.PingInterval <= 0 {
		errs = append(errs, fmt.Errorf("websocket.ping_interval must be positive, got %s", c.WebSocket.PingInterval))
	}
	if c.WebSocket.SendBuffer <= 0 {
		errs = append(errs, fmt.Errorf("websocket.send_buffer must be positive, got %d", c.WebSocket.SendBuffer))
	}
	if c.WebSocket.MessagesPerSecond > 0 && c.WebSocket.Burst <= 0 {
		errs = append(errs, fmt.Errorf("websocket.burst must be positive when rate limiting, got %d", c.WebSocket.Burst))
	}
	return errors.Join(errs...)
}
