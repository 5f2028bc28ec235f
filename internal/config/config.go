// Package config loads settings from an optional YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/unilife/qa-bot/internal/provider"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Provider ProviderConfig `mapstructure:"provider"`
	KB       KBConfig       `mapstructure:"kb"`
	Secrets  SecretsConfig  `mapstructure:"secrets"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port          string `mapstructure:"port"`
	AllowedOrigin string `mapstructure:"allowed_origin"`
}

type ProviderConfig struct {
	DefaultModel       string        `mapstructure:"default_model"`
	DefaultTemperature float64       `mapstructure:"default_temperature"`
	Adapters           []string      `mapstructure:"adapters"`
	GenAIBaseURL       string        `mapstructure:"genai_base_url"`
	RESTBaseURL        string        `mapstructure:"rest_base_url"`
	OpenAIBaseURL      string        `mapstructure:"openai_base_url"`
	HTTPTimeout        time.Duration `mapstructure:"http_timeout"`
}

// KBConfig points at an externalized knowledge base; empty means the built-in one.
type KBConfig struct {
	File string `mapstructure:"file"`
}

type SecretsConfig struct {
	File  string `mapstructure:"file"`
	Watch bool   `mapstructure:"watch"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.allowed_origin", "http://localhost:5173")
	v.SetDefault("provider.default_model", provider.DefaultModel)
	v.SetDefault("provider.default_temperature", provider.DefaultTemperature)
	v.SetDefault("provider.adapters", provider.DefaultAdapters)
	v.SetDefault("provider.genai_base_url", "")
	v.SetDefault("provider.rest_base_url", provider.DefaultRESTBaseURL)
	v.SetDefault("provider.openai_base_url", "")
	v.SetDefault("provider.http_timeout", 60*time.Second)
	v.SetDefault("kb.file", "")
	v.SetDefault("secrets.file", ".streamlit/secrets.toml")
	v.SetDefault("secrets.watch", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// Load reads path when given, otherwise looks for unilife.yaml in the working
// directory. UNILIFE_* variables override file values; PORT overrides server.port.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("UNILIFE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("server.port", "UNILIFE_SERVER_PORT", "PORT"); err != nil {
		return nil, fmt.Errorf("binding PORT: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("unilife")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.Provider.Adapters = splitList(cfg.Provider.Adapters)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// splitList accepts both YAML lists and a comma-separated env value.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return &ConfigError{Field: "server.port", Message: "must not be empty"}
	}
	if t := c.Provider.DefaultTemperature; t < 0 || t > 1 {
		return &ConfigError{Field: "provider.default_temperature", Message: fmt.Sprintf("%v is outside [0, 1]", t)}
	}
	if strings.TrimSpace(c.Provider.DefaultModel) == "" {
		return &ConfigError{Field: "provider.default_model", Message: "must not be empty"}
	}
	if c.Provider.HTTPTimeout < 0 {
		return &ConfigError{Field: "provider.http_timeout", Message: "must not be negative"}
	}
	return nil
}

type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
