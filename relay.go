// Package relay wires the WhatsApp webhook relay: an HTTP handler that
// acknowledges provider deliveries and a dispatcher that answers each
// message through the conversational backend.
package relay

import (
	"context"
	"net/http"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-whatsapp-relay/adapters/gologger"
	"github.com/goliatone/go-whatsapp-relay/backend"
	"github.com/goliatone/go-whatsapp-relay/command"
	"github.com/goliatone/go-whatsapp-relay/core"
	"github.com/goliatone/go-whatsapp-relay/dispatch"
	"github.com/goliatone/go-whatsapp-relay/inbound"
	"github.com/goliatone/go-whatsapp-relay/providers/whatsapp"
	"github.com/goliatone/go-whatsapp-relay/transport"
)

type Config = core.Config

type Logger = core.Logger

type LoggerProvider = core.LoggerProvider

type MetricsRecorder = core.MetricsRecorder

type DispatchHook = core.DispatchHook

func DefaultConfig() Config {
	return core.DefaultConfig()
}

// LoadConfigFromEnv layers defaults, environment variables and runtime
// overrides, in that order of precedence.
func LoadConfigFromEnv(ctx context.Context, runtime Config) (Config, error) {
	return core.LoadConfig(ctx, core.NewCfgxConfigProvider(core.NewEnvConfigLoader()), core.GoOptionsResolver{}, runtime)
}

type Option func(*options)

type options struct {
	logger         core.Logger
	loggerProvider core.LoggerProvider
	metrics        core.MetricsRecorder
	hook           core.DispatchHook
	httpClient     transport.HTTPDoer
	backend        core.BackendClient
	sender         core.MessageSender
}

func WithLogger(logger core.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func WithLoggerProvider(provider core.LoggerProvider) Option {
	return func(o *options) {
		o.loggerProvider = provider
	}
}

func WithMetricsRecorder(recorder core.MetricsRecorder) Option {
	return func(o *options) {
		o.metrics = recorder
	}
}

func WithDispatchHook(hook core.DispatchHook) Option {
	return func(o *options) {
		o.hook = hook
	}
}

// WithHTTPClient sets the client used for both outbound calls. Each call
// still carries its own timeout.
func WithHTTPClient(client transport.HTTPDoer) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

func WithBackend(client core.BackendClient) Option {
	return func(o *options) {
		o.backend = client
	}
}

func WithSender(sender core.MessageSender) Option {
	return func(o *options) {
		o.sender = sender
	}
}

type Relay struct {
	dispatcher *dispatch.Dispatcher
	handler    *inbound.WebhookHandler
}

// New builds every component from cfg. Missing secrets do not fail
// construction; they degrade the affected call at runtime.
func New(cfg Config, opts ...Option) (*Relay, error) {
	if err := cfg.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "relay: invalid config").
			WithCode(http.StatusBadRequest).
			WithTextCode(core.RelayErrorConfig)
	}
	o := &options{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(o)
	}
	provider, logger := gologger.Resolve(cfg.ServiceName, o.loggerProvider, o.logger)
	named := func(name string) core.Logger {
		if provider == nil {
			return core.ResolveLogger(name, nil, logger)
		}
		return core.ResolveLogger(name, provider, nil)
	}

	backendClient := o.backend
	if backendClient == nil {
		backendOpts := []backend.Option{backend.WithLogger(named("relay.backend"))}
		if o.httpClient != nil {
			backendOpts = append(backendOpts, backend.WithTransport(transport.NewJSONClient(o.httpClient)))
		}
		backendClient = backend.NewClient(cfg.Backend, backendOpts...)
	}
	sender := o.sender
	if sender == nil {
		senderOpts := []whatsapp.SenderOption{whatsapp.WithSenderLogger(named("relay.whatsapp.sender"))}
		if o.httpClient != nil {
			senderOpts = append(senderOpts, whatsapp.WithSenderTransport(transport.NewJSONClient(o.httpClient)))
		}
		sender = whatsapp.NewSender(cfg.WhatsApp, senderOpts...)
	}

	dispatchLogger := named("relay.dispatch")
	dispatcher := dispatch.New(
		command.NewReplyCommand(backendClient, sender),
		dispatch.WithLogger(dispatchLogger),
		dispatch.WithExtractor(whatsapp.NewExtractor(named("relay.whatsapp.extractor"))),
		dispatch.WithMetricsRecorder(o.metrics),
		dispatch.WithHook(o.hook),
	)

	verifier := whatsapp.NewDeliveryVerifier(cfg.AppSecret)
	handler := inbound.NewWebhookHandler(dispatcher, inbound.HandlerConfig{
		WebhookPath:  cfg.WebhookPath,
		VerifyToken:  cfg.VerifyToken,
		MaxBodyBytes: cfg.MaxBodyBytes,
		Verifier:     verifier,
		Logger:       named("relay.inbound"),
	})

	relayLogger := named("relay")
	core.LogFields(context.Background(), relayLogger, core.LevelInfo, "relay configured", map[string]any{
		"service":              cfg.ServiceName,
		"webhook_path":         cfg.WebhookPath,
		"backend_url":          cfg.Backend.URL,
		"backend_key_set":      cfg.Backend.APIKey != "",
		"access_token_set":     cfg.WhatsApp.AccessToken != "",
		"phone_number_id_set":  cfg.WhatsApp.PhoneNumberID != "",
		"verify_token_set":     cfg.VerifyToken != "",
		"signature_validation": verifier != nil,
	})

	return &Relay{
		dispatcher: dispatcher,
		handler:    handler,
	}, nil
}

// Handler serves the webhook route and the health probe.
func (r *Relay) Handler() http.Handler {
	return r.handler
}

// Wait blocks until in-flight dispatches finish.
func (r *Relay) Wait() {
	r.dispatcher.Wait()
}
