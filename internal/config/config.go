// Package config provides configuration for the chat server.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds the server configuration.
type Config struct {
	HTTP     HTTP     `yaml:"http"`
	WS       WS       `yaml:"ws"`
	Database Database `yaml:"database"`
	LLM      LLM      `yaml:"llm"`
	Chat     Chat     `yaml:"chat"`
	Policy   Policy   `yaml:"policy"`
	Log      Log      `yaml:"log"`
}

// HTTP holds server settings.
type HTTP struct {
	Port            int           `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// WS holds WebSocket connection settings.
type WS struct {
	PingInterval   time.Duration `yaml:"ping_interval" env:"WS_PING_INTERVAL" env-default:"30s"`
	WriteTimeout   time.Duration `yaml:"write_timeout" env:"WS_WRITE_TIMEOUT" env-default:"10s"`
	ReadTimeout    time.Duration `yaml:"read_timeout" env:"WS_READ_TIMEOUT" env-default:"60s"`
	MaxMessageSize int64         `yaml:"max_message_size" env:"WS_MAX_MESSAGE_SIZE" env-default:"65536"`
}

// Database holds the sqlite DSN.
type Database struct {
	DSN string `yaml:"dsn" env:"DATABASE_URL" env-default:"file:hazeaihub.db?mode=rwc&_txlock=immediate&_busy_timeout=5000"`
}

// LLM holds upstream endpoint settings.
type LLM struct {
	BaseURL         string        `yaml:"base_url" env:"LLM_BASE_URL" env-default:"https://dashscope.aliyuncs.com/compatible-mode/v1"`
	APIKey          string        `yaml:"api_key" env:"DASHSCOPE_API_KEY"`
	Model           string        `yaml:"model" env:"LLM_MODEL" env-default:"deepseek-r1"`
	Timeout         time.Duration `yaml:"timeout" env:"LLM_TIMEOUT" env-default:"60s"`
	ThinkingCapable bool          `yaml:"thinking_capable" env:"LLM_THINKING_CAPABLE" env-default:"true"`
	Mock            bool          `yaml:"mock" env:"LLM_MOCK" env-default:"false"`
}

// Chat holds turn pipeline settings.
type Chat struct {
	HistoryWindow int `yaml:"history_window" env:"CHAT_HISTORY_WINDOW" env-default:"5"`
}

// Policy holds thinking policy settings.
type Policy struct {
	File              string `yaml:"file" env:"POLICY_FILE"`
	MaxThinkingBudget int    `yaml:"max_thinking_budget" env:"POLICY_MAX_THINKING_BUDGET" env-default:"0"`
}

// Log holds logger settings.
type Log struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// Load loads an optional .env file, then the YAML file at cfgPath (if
// any), then environment variables. Environment variables win.
func Load(cfgPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg Config
	if cfgPath != "" {
		if err := cleanenv.ReadConfig(cfgPath, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", cfgPath, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Chat.HistoryWindow < 0 {
		return fmt.Errorf("chat.history_window must be >= 0, got %d", c.Chat.HistoryWindow)
	}
	if c.Policy.MaxThinkingBudget < 0 {
		return fmt.Errorf("policy.max_thinking_budget must be >= 0, got %d", c.Policy.MaxThinkingBudget)
	}
	if c.WS.PingInterval <= 0 {
		return fmt.Errorf("ws.ping_interval must be > 0, got %s", c.WS.PingInterval)
	}
	if c.LLM.Model == "" {
		return errors.New("llm.model is required")
	}
	return nil
}
