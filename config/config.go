// Package config resolves the service credential and endpoint settings
// from .env files, an optional config.yml, and environment variables.
// The API key is never embedded in code.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "VOICEKEY"

// Config carries everything the pipeline needs injected.
type Config struct {
	APIKey   string        `mapstructure:"api_key"`
	Endpoint string        `mapstructure:"endpoint"`
	Model    string        `mapstructure:"model"`
	Timeout  time.Duration `mapstructure:"timeout"`
	MinBytes int64         `mapstructure:"min_bytes"`
	Language string        `mapstructure:"language"`
}

// Load reads configuration in ascending precedence: defaults,
// config.yml (explicit path or standard locations), .env, then
// VOICEKEY_* environment variables. GROQ_API_KEY is honored as a
// fallback credential source.
func Load(configFile string) (*Config, error) {
	// Best effort; a missing .env is not an error.
	godotenv.Load()

	v := viper.New()
	// Registering every key (empty default included) keeps
	// AutomaticEnv overrides visible to Unmarshal.
	v.SetDefault("api_key", "")
	v.SetDefault("endpoint", "https://api.groq.com/openai/v1/audio/transcriptions")
	v.SetDefault("model", "whisper-large-v3")
	v.SetDefault("timeout", 30*time.Second)
	v.SetDefault("min_bytes", 1000)
	v.SetDefault("language", "")

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "voicekey"))
		}
		var notFound viper.ConfigFileNotFoundError
		if err := v.ReadInConfig(); err != nil && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GROQ_API_KEY")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.APIKey == "" {
		return errors.New("no API key: set VOICEKEY_API_KEY or GROQ_API_KEY, or api_key in config.yml")
	}
	if c.Endpoint == "" {
		return errors.New("endpoint must not be empty")
	}
	if c.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	if c.MinBytes < 0 {
		return errors.New("min_bytes must not be negative")
	}
	return nil
}
