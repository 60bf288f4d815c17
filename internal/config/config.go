// Package config reads runtime configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the full runtime configuration. BOT_TOKEN is the opaque bearer
// credential; its absence is a fatal startup error.
type Config struct {
	BotToken      string `env:"BOT_TOKEN,required"`
	GatewayURL    string `env:"GATEWAY_URL" envDefault:"wss://gateway.example.com/ws"`
	CommandPrefix string `env:"COMMAND_PREFIX" envDefault:"!"`

	// EventIntents narrows the gateway event subscription; 0 means the
	// blanket subscription.
	EventIntents int `env:"EVENT_INTENTS" envDefault:"0"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"LOG_FILE"`

	// ShutdownTimeout bounds how long shutdown waits for in-flight
	// command invocations before abandoning them.
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// New loads configuration. A missing .env file is fine; missing required
// variables are not.
func New() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}
