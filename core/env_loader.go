package core

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	EnvAccessToken     = "WHATSAPP_TOKEN"
	EnvVerifyToken     = "VERIFY_TOKEN"
	EnvPhoneNumberID   = "PHONE_NUMBER_ID"
	EnvAppSecret       = "WHATSAPP_APP_SECRET"
	EnvProviderTimeout = "WHATSAPP_API_TIMEOUT"
	EnvGraphBaseURL    = "GRAPH_BASE_URL"
	EnvGraphAPIVersion = "GRAPH_API_VERSION"
	EnvBackendURL      = "CHATBOT_API_URL"
	EnvBackendAPIKey   = "CHATBOT_API_KEY"
	EnvBackendTimeout  = "CHATBOT_API_TIMEOUT"
	EnvPort            = "PORT"
	EnvWebhookPath     = "WEBHOOK_PATH"
	EnvMaxBodyBytes    = "MAX_BODY_BYTES"
	EnvServiceName     = "SERVICE_NAME"
	EnvLogLevel        = "LOG_LEVEL"
)

// EnvConfigLoader reads relay settings from process environment variables
// and shapes them into the nested raw map consumed by cfgx.
type EnvConfigLoader struct {
	Lookup func(key string) (string, bool)
}

func NewEnvConfigLoader() *EnvConfigLoader {
	return &EnvConfigLoader{Lookup: os.LookupEnv}
}

func (l *EnvConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	lookup := os.LookupEnv
	if l != nil && l.Lookup != nil {
		lookup = l.Lookup
	}
	value := func(key string) (string, bool) {
		raw, ok := lookup(key)
		if !ok {
			return "", false
		}
		raw = strings.TrimSpace(raw)
		return raw, raw != ""
	}

	out := map[string]any{}
	whatsapp := map[string]any{}
	backend := map[string]any{}

	stringKeys := []struct {
		env    string
		target map[string]any
		key    string
	}{
		{EnvServiceName, out, "service_name"},
		{EnvVerifyToken, out, "verify_token"},
		{EnvAppSecret, out, "app_secret"},
		{EnvWebhookPath, out, "webhook_path"},
		{EnvLogLevel, out, "log_level"},
		{EnvAccessToken, whatsapp, "access_token"},
		{EnvPhoneNumberID, whatsapp, "phone_number_id"},
		{EnvGraphBaseURL, whatsapp, "graph_base_url"},
		{EnvGraphAPIVersion, whatsapp, "graph_api_version"},
		{EnvBackendURL, backend, "url"},
		{EnvBackendAPIKey, backend, "api_key"},
	}
	for _, item := range stringKeys {
		if raw, ok := value(item.env); ok {
			item.target[item.key] = raw
		}
	}

	if raw, ok := value(EnvPort); ok {
		port, err := strconv.Atoi(raw)
		if err != nil {
			return nil, configBadInput(EnvPort, raw, err)
		}
		out["port"] = port
	}
	if raw, ok := value(EnvMaxBodyBytes); ok {
		limit, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, configBadInput(EnvMaxBodyBytes, raw, err)
		}
		out["max_body_bytes"] = limit
	}
	if raw, ok := value(EnvProviderTimeout); ok {
		timeout, err := ParseTimeout(raw)
		if err != nil {
			return nil, configBadInput(EnvProviderTimeout, raw, err)
		}
		whatsapp["timeout"] = timeout
	}
	if raw, ok := value(EnvBackendTimeout); ok {
		timeout, err := ParseTimeout(raw)
		if err != nil {
			return nil, configBadInput(EnvBackendTimeout, raw, err)
		}
		backend["timeout"] = timeout
	}

	if len(whatsapp) > 0 {
		out["whatsapp"] = whatsapp
	}
	if len(backend) > 0 {
		out["backend"] = backend
	}
	return out, nil
}

// ParseTimeout accepts Go duration strings ("45s", "2m") or a bare number of
// seconds ("45").
func ParseTimeout(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if seconds, err := strconv.ParseFloat(raw, 64); err == nil {
		return time.Duration(seconds * float64(time.Second)), nil
	}
	return time.ParseDuration(raw)
}

var _ RawConfigLoader = (*EnvConfigLoader)(nil)
