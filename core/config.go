package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	DefaultServiceName     = "whatsapp-relay"
	DefaultPort            = 5001
	DefaultWebhookPath     = "/webhook"
	DefaultBackendURL      = "http://localhost:8000/chat"
	DefaultGraphBaseURL    = "https://graph.facebook.com"
	DefaultGraphAPIVersion = "v18.0"
	DefaultBackendTimeout  = 60 * time.Second
	DefaultProviderTimeout = 10 * time.Second
	DefaultMaxBodyBytes    = int64(1 << 20)
	DefaultLogLevel        = "info"
)

// WhatsAppConfig holds the Graph API settings used to send replies.
type WhatsAppConfig struct {
	AccessToken     string        `koanf:"access_token" mapstructure:"access_token"`
	PhoneNumberID   string        `koanf:"phone_number_id" mapstructure:"phone_number_id"`
	GraphBaseURL    string        `koanf:"graph_base_url" mapstructure:"graph_base_url"`
	GraphAPIVersion string        `koanf:"graph_api_version" mapstructure:"graph_api_version"`
	Timeout         time.Duration `koanf:"timeout" mapstructure:"timeout"`
}

// BackendConfig holds the conversational backend settings.
type BackendConfig struct {
	URL     string        `koanf:"url" mapstructure:"url"`
	APIKey  string        `koanf:"api_key" mapstructure:"api_key"`
	Timeout time.Duration `koanf:"timeout" mapstructure:"timeout"`
}

type Config struct {
	ServiceName  string         `koanf:"service_name" mapstructure:"service_name"`
	Port         int            `koanf:"port" mapstructure:"port"`
	WebhookPath  string         `koanf:"webhook_path" mapstructure:"webhook_path"`
	VerifyToken  string         `koanf:"verify_token" mapstructure:"verify_token"`
	AppSecret    string         `koanf:"app_secret" mapstructure:"app_secret"`
	MaxBodyBytes int64          `koanf:"max_body_bytes" mapstructure:"max_body_bytes"`
	LogLevel     string         `koanf:"log_level" mapstructure:"log_level"`
	WhatsApp     WhatsAppConfig `koanf:"whatsapp" mapstructure:"whatsapp"`
	Backend      BackendConfig  `koanf:"backend" mapstructure:"backend"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName:  DefaultServiceName,
		Port:         DefaultPort,
		WebhookPath:  DefaultWebhookPath,
		MaxBodyBytes: DefaultMaxBodyBytes,
		LogLevel:     DefaultLogLevel,
		WhatsApp: WhatsAppConfig{
			GraphBaseURL:    DefaultGraphBaseURL,
			GraphAPIVersion: DefaultGraphAPIVersion,
			Timeout:         DefaultProviderTimeout,
		},
		Backend: BackendConfig{
			URL:     DefaultBackendURL,
			Timeout: DefaultBackendTimeout,
		},
	}
}

// Validate checks structural settings only. Missing secrets are not errors:
// the component that needs them degrades at the point of use.
func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("core: port %d is invalid", c.Port)
	}
	if !strings.HasPrefix(strings.TrimSpace(c.WebhookPath), "/") {
		return fmt.Errorf("core: webhook_path must start with /")
	}
	if strings.TrimSpace(c.Backend.URL) == "" {
		return fmt.Errorf("core: backend.url is required")
	}
	if c.Backend.Timeout <= 0 {
		return fmt.Errorf("core: backend.timeout must be positive")
	}
	if c.WhatsApp.Timeout <= 0 {
		return fmt.Errorf("core: whatsapp.timeout must be positive")
	}
	if strings.TrimSpace(c.WhatsApp.GraphBaseURL) == "" {
		return fmt.Errorf("core: whatsapp.graph_base_url is required")
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("core: max_body_bytes must be positive")
	}
	return nil
}

// Address returns the listen address for the configured port.
func (c Config) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}
