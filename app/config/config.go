package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	coreconfig "github.com/aifit/coachbot/core/config"
	coredatabase "github.com/aifit/coachbot/core/database"
)

// TrainerConfig identifies the reviewer chat that approves generated plans.
type TrainerConfig struct {
	ChatID int64 `yaml:"chat_id" envconfig:"TRAINER_CHAT_ID"`
}

// GenerationConfig holds settings of the chat-completion backend used for
// plan generation. When AuthURL is set the API key is treated as an OAuth
// client credential and access tokens are fetched and cached; otherwise the
// key is sent as a static bearer token.
type GenerationConfig struct {
	APIKey         string  `yaml:"api_key" envconfig:"GENERATION_API_KEY"`
	BaseURL        string  `yaml:"base_url" envconfig:"GENERATION_BASE_URL"`
	Model          string  `yaml:"model" envconfig:"GENERATION_MODEL"`
	AuthURL        string  `yaml:"auth_url" envconfig:"GENERATION_AUTH_URL"`
	Scope          string  `yaml:"scope" envconfig:"GENERATION_SCOPE"`
	Temperature    float64 `yaml:"temperature" envconfig:"GENERATION_TEMPERATURE"`
	MaxTokens      int     `yaml:"max_tokens" envconfig:"GENERATION_MAX_TOKENS"`
	TimeoutSeconds int     `yaml:"timeout_seconds" envconfig:"GENERATION_TIMEOUT_SECONDS"`
}

// Config aggregates the application configuration of the coach bot.
type Config struct {
	Core       coreconfig.Config   `yaml:",inline"`
	Database   coredatabase.Config `yaml:"database"`
	Trainer    TrainerConfig       `yaml:"trainer"`
	Generation GenerationConfig    `yaml:"generation"`
}

// CoreConfig exposes the embedded core configuration for the runner.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Core
}

// Load reads application configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates required fields and applies defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	if err := coreconfig.Normalize(&cfg.Core); err != nil {
		return err
	}

	if cfg.Trainer.ChatID == 0 {
		return fmt.Errorf("trainer.chat_id is required")
	}

	if strings.TrimSpace(cfg.Database.Host) == "" {
		return fmt.Errorf("database.host is required")
	}
	if strings.TrimSpace(cfg.Database.Name) == "" {
		return fmt.Errorf("database.name is required")
	}
	if cfg.Database.Port == "" {
		cfg.Database.Port = "5432"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxConnections <= 0 {
		cfg.Database.MaxConnections = 5
	}

	gen := &cfg.Generation
	if gen.BaseURL == "" {
		gen.BaseURL = "https://api.proxyapi.ru/openai/v1"
	}
	if gen.Model == "" {
		gen.Model = "gpt-5-nano"
	}
	if gen.Temperature <= 0 {
		gen.Temperature = 0.7
	}
	if gen.MaxTokens <= 0 {
		gen.MaxTokens = 3000
	}
	if gen.TimeoutSeconds <= 0 {
		gen.TimeoutSeconds = 60
	}
	if gen.AuthURL != "" && gen.Scope == "" {
		gen.Scope = "GIGACHAT_API_PERS"
	}
	// A missing API key is not fatal here: the planner reports not_configured
	// on first use so the bot can still serve the intake flow.
	return nil
}
