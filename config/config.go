package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/s0up4200/restkit/request"
	"github.com/s0up4200/restkit/serialization"
)

// EnvPrefix is the prefix of environment overrides, e.g. RESTKIT_API_BASEURL
const EnvPrefix = "RESTKIT"

// Load loads the configuration from file. Without an explicit path a missing
// file is not an error and defaults are used. overrides are applied last, so
// command line flags win over the file and the environment.
func Load(configPath string, overrides map[string]any) (*Config, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config in standard locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// Check current directory first
		v.AddConfigPath(".")

		// Check home directory
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".restkit"))
		}

		// Check /etc
		v.AddConfigPath("/etc/restkit/")
	}

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || configPath != "" {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	for key, value := range overrides {
		v.Set(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Validate configuration
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// API defaults
	v.SetDefault("api.baseurl", "")
	v.SetDefault("api.tastypie", false)
	v.SetDefault("api.auto_detect", true)
	v.SetDefault("api.timeout", request.DefaultTimeout)
	v.SetDefault("api.trailing_slash", true)
	v.SetDefault("api.ignore_ssl_validation", false)
	v.SetDefault("api.serialize", false)
	v.SetDefault("api.deserialize", true)
	v.SetDefault("api.serialization", "json")
	v.SetDefault("api.allow_get_body", false)
	v.SetDefault("api.debug", false)

	// Auth defaults
	v.SetDefault("auth.mechanism", "api_key")
	v.SetDefault("auth.user", "")
	v.SetDefault("auth.secret", "")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	if cfg.API.BaseURL == "" {
		return fmt.Errorf("api.baseurl is required")
	}

	if cfg.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive, got %s", cfg.API.Timeout)
	}

	if _, err := serialization.ByName(cfg.API.Serialization); err != nil {
		return fmt.Errorf("invalid api.serialization: %s", cfg.API.Serialization)
	}

	validMechanisms := map[string]bool{
		"api_key": true,
		"basic":   true,
	}
	if !validMechanisms[cfg.Auth.Mechanism] {
		return fmt.Errorf("invalid auth.mechanism: %s (must be 'api_key' or 'basic')", cfg.Auth.Mechanism)
	}

	for i, r := range cfg.Resources {
		if r.Name == "" {
			return fmt.Errorf("resources[%d].name is required", i)
		}
	}

	// Validate logging level
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s", cfg.Logging.Level)
	}

	// Validate logging format
	validFormats := map[string]bool{
		"console": true,
		"json":    true,
	}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s", cfg.Logging.Format)
	}

	return nil
}

// RequestOptions converts the API settings into request handler options.
// TastyPie endpoints are always serialized.
func (c *Config) RequestOptions() ([]request.Option, error) {
	s, err := serialization.ByName(c.API.Serialization)
	if err != nil {
		return nil, err
	}

	opts := []request.Option{
		request.WithTimeout(durationOrDefault(c.API.Timeout, request.DefaultTimeout)),
		request.WithTrailingSlash(c.API.TrailingSlash),
		request.WithIgnoreSSLValidation(c.API.IgnoreSSLValidation),
		request.WithSerializer(s),
		request.WithSerialize(c.API.Serialize || c.API.TastyPie),
		request.WithDeserialize(c.API.Deserialize),
		request.WithExtraHeaders(c.API.ExtraHeaders),
		request.WithExtraParams(request.Params(c.API.ExtraParams)),
		request.WithExtraURLParams(request.Params(c.API.ExtraURLParams)),
		request.WithAllowGetBody(c.API.AllowGetBody),
	}

	// Only force debug on, so RESTKIT_DEBUG keeps working when the file says nothing
	if c.API.Debug {
		opts = append(opts, request.WithDebug(true))
	}

	return opts, nil
}

// HasCredentials reports whether auth.user and auth.secret are both set
func (c *Config) HasCredentials() bool {
	return c.Auth.User != "" && c.Auth.Secret != ""
}

func durationOrDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
