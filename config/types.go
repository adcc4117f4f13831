package config

import "time"

// Config represents the complete configuration structure
type Config struct {
	API       APIConfig        `mapstructure:"api"`
	Auth      AuthConfig       `mapstructure:"auth"`
	Resources []ResourceConfig `mapstructure:"resources"`
	Filters   FilterConfig     `mapstructure:"filters"`
	Logging   LoggingConfig    `mapstructure:"logging"`
}

// APIConfig holds the endpoint and request handling settings
type APIConfig struct {
	BaseURL             string            `mapstructure:"baseurl"`
	TastyPie            bool              `mapstructure:"tastypie"`
	AutoDetect          bool              `mapstructure:"auto_detect"`
	Timeout             time.Duration     `mapstructure:"timeout"`
	TrailingSlash       bool              `mapstructure:"trailing_slash"`
	IgnoreSSLValidation bool              `mapstructure:"ignore_ssl_validation"`
	Serialize           bool              `mapstructure:"serialize"`
	Deserialize         bool              `mapstructure:"deserialize"`
	Serialization       string            `mapstructure:"serialization"`
	ExtraHeaders        map[string]string `mapstructure:"extra_headers"`
	ExtraParams         map[string]any    `mapstructure:"extra_params"`
	ExtraURLParams      map[string]any    `mapstructure:"extra_url_params"`
	AllowGetBody        bool              `mapstructure:"allow_get_body"`
	Debug               bool              `mapstructure:"debug"`
}

// AuthConfig holds credentials. Secret is a password for basic auth or an
// API key for TastyPie api_key auth.
type AuthConfig struct {
	Mechanism string `mapstructure:"mechanism"`
	User      string `mapstructure:"user"`
	Secret    string `mapstructure:"secret"`
}

// ResourceConfig declares a resource to add on startup
type ResourceConfig struct {
	Name string `mapstructure:"name"`
	Path string `mapstructure:"path"`
}

// FilterConfig maps filter names to record filter expressions
type FilterConfig map[string]string

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}
