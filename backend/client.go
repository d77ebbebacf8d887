// Package backend calls the conversational backend and turns every outcome,
// including failures, into user-facing reply text.
package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-whatsapp-relay/core"
	"github.com/goliatone/go-whatsapp-relay/transport"
)

const (
	HeaderAPIKey = "x-api-key"

	FallbackNotConfigured = "Sorry, the assistant is not configured right now."
	FallbackAuthFailure   = "Sorry, I'm having trouble authenticating with my brain right now."
	FallbackUnavailable   = "Sorry, I'm having trouble connecting to my brain right now."
	FallbackUnprocessable = "Sorry, I couldn't process that."
)

type Request struct {
	Query          string `json:"query"`
	ConversationID string `json:"conversation_id"`
}

type Response struct {
	Response *string `json:"response"`
}

type Client struct {
	url       string
	apiKey    string
	timeout   time.Duration
	transport core.TransportAdapter
	logger    core.Logger
}

type Option func(*Client)

func WithTransport(adapter core.TransportAdapter) Option {
	return func(c *Client) {
		c.transport = adapter
	}
}

func WithLogger(logger core.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func NewClient(cfg core.BackendConfig, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = core.DefaultBackendTimeout
	}
	client := &Client{
		url:     strings.TrimSpace(cfg.URL),
		apiKey:  strings.TrimSpace(cfg.APIKey),
		timeout: timeout,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(client)
	}
	if client.transport == nil {
		client.transport = transport.NewJSONClient(&http.Client{Timeout: timeout})
	}
	client.logger = core.ResolveLogger("relay.backend", nil, client.logger)
	return client
}

// Reply asks the backend for a response to query within conversationID. It
// never fails: every error path resolves to one of the Fallback texts.
func (c *Client) Reply(ctx context.Context, query string, conversationID string) string {
	fields := map[string]any{"conversation_id": conversationID}
	if c.apiKey == "" {
		core.LogFields(ctx, c.logger, core.LevelError, "backend api key is not configured", fields)
		return FallbackNotConfigured
	}

	req, err := transport.NewJSONRequest(
		c.url,
		Request{Query: query, ConversationID: conversationID},
		map[string]string{HeaderAPIKey: c.apiKey},
		c.timeout,
	)
	if err != nil {
		core.LogFields(ctx, c.logger, core.LevelError, "backend request build failed", core.MergeFields(fields, core.ErrorFields(err)))
		return FallbackUnavailable
	}

	res, err := c.transport.Do(ctx, req)
	if err != nil {
		core.LogFields(ctx, c.logger, core.LevelError, "backend request failed", core.MergeFields(fields, core.ErrorFields(err)))
		return FallbackUnavailable
	}
	fields["status_code"] = res.StatusCode
	fields["duration_ms"] = res.Duration.Milliseconds()

	switch {
	case res.StatusCode == http.StatusUnauthorized:
		core.LogFields(ctx, c.logger, core.LevelError, "backend rejected api key", core.MergeFields(fields, core.ErrorFields(statusError(res))))
		return FallbackAuthFailure
	case res.StatusCode < 200 || res.StatusCode >= 300:
		core.LogFields(ctx, c.logger, core.LevelError, "backend returned error status", core.MergeFields(fields, core.ErrorFields(statusError(res))))
		return FallbackUnavailable
	}

	var payload Response
	if err := json.Unmarshal(res.Body, &payload); err != nil {
		core.LogFields(ctx, c.logger, core.LevelWarn, "backend response is not valid json", core.MergeFields(fields, core.ErrorFields(payloadError(err))))
		return FallbackUnprocessable
	}
	if payload.Response == nil {
		core.LogFields(ctx, c.logger, core.LevelWarn, "backend response is missing the response field", fields)
		return FallbackUnprocessable
	}
	core.LogFields(ctx, c.logger, core.LevelDebug, "backend replied", fields)
	return *payload.Response
}

var _ core.BackendClient = (*Client)(nil)
