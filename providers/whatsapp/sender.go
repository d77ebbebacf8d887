package whatsapp

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-whatsapp-relay/core"
	"github.com/goliatone/go-whatsapp-relay/transport"
)

const (
	MessagingProduct = "whatsapp"
	OutboundTypeText = "text"

	maxLoggedBody = 512
)

// OutboundMessage is the Cloud API body for a plain text send.
type OutboundMessage struct {
	MessagingProduct string       `json:"messaging_product"`
	To               string       `json:"to"`
	Type             string       `json:"type"`
	Text             OutboundText `json:"text"`
}

type OutboundText struct {
	Body string `json:"body"`
}

// Sender posts text replies to the WhatsApp Cloud API. Delivery is best
// effort: failures are logged and never returned.
type Sender struct {
	accessToken   string
	phoneNumberID string
	baseURL       string
	version       string
	timeout       time.Duration
	transport     core.TransportAdapter
	logger        core.Logger
}

type SenderOption func(*Sender)

func WithSenderTransport(adapter core.TransportAdapter) SenderOption {
	return func(s *Sender) {
		s.transport = adapter
	}
}

func WithSenderLogger(logger core.Logger) SenderOption {
	return func(s *Sender) {
		s.logger = logger
	}
}

func NewSender(cfg core.WhatsAppConfig, opts ...SenderOption) *Sender {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = core.DefaultProviderTimeout
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.GraphBaseURL), "/")
	if baseURL == "" {
		baseURL = core.DefaultGraphBaseURL
	}
	version := strings.Trim(strings.TrimSpace(cfg.GraphAPIVersion), "/")
	if version == "" {
		version = core.DefaultGraphAPIVersion
	}
	sender := &Sender{
		accessToken:   strings.TrimSpace(cfg.AccessToken),
		phoneNumberID: strings.TrimSpace(cfg.PhoneNumberID),
		baseURL:       baseURL,
		version:       version,
		timeout:       timeout,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(sender)
	}
	if sender.transport == nil {
		sender.transport = transport.NewJSONClient(&http.Client{Timeout: timeout})
	}
	sender.logger = core.ResolveLogger("relay.whatsapp.sender", nil, sender.logger)
	return sender
}

// MessagesURL is the send endpoint for the configured phone number.
func (s *Sender) MessagesURL() string {
	return fmt.Sprintf("%s/%s/%s/messages", s.baseURL, s.version, s.phoneNumberID)
}

func (s *Sender) Send(ctx context.Context, to string, body string) {
	fields := map[string]any{"to": to}
	if s.accessToken == "" || s.phoneNumberID == "" {
		core.LogFields(ctx, s.logger, core.LevelError, "whatsapp credentials are not configured", core.MergeFields(fields, map[string]any{
			"has_access_token":    s.accessToken != "",
			"has_phone_number_id": s.phoneNumberID != "",
		}))
		return
	}

	req, err := transport.NewJSONRequest(
		s.MessagesURL(),
		OutboundMessage{
			MessagingProduct: MessagingProduct,
			To:               to,
			Type:             OutboundTypeText,
			Text:             OutboundText{Body: body},
		},
		map[string]string{"Authorization": "Bearer " + s.accessToken},
		s.timeout,
	)
	if err != nil {
		core.LogFields(ctx, s.logger, core.LevelError, "whatsapp send request build failed", core.MergeFields(fields, core.ErrorFields(err)))
		return
	}

	res, err := s.transport.Do(ctx, req)
	if err != nil {
		core.LogFields(ctx, s.logger, core.LevelError, "whatsapp send failed", core.MergeFields(fields, core.ErrorFields(err)))
		return
	}
	fields["status_code"] = res.StatusCode
	fields["duration_ms"] = res.Duration.Milliseconds()
	if res.StatusCode != http.StatusOK {
		fields["body"] = truncate(string(res.Body), maxLoggedBody)
		core.LogFields(ctx, s.logger, core.LevelError, "whatsapp send rejected", fields)
		return
	}
	core.LogFields(ctx, s.logger, core.LevelInfo, "whatsapp message sent", fields)
}

func truncate(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	return value[:limit]
}

var _ core.MessageSender = (*Sender)(nil)
