package inbound

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/goliatone/go-whatsapp-relay/core"
	"github.com/goliatone/go-whatsapp-relay/providers/whatsapp"
	"github.com/goliatone/go-whatsapp-relay/webhooks"
)

const (
	HealthPath = "/healthz"

	BodyOK            = "OK"
	BodyActive        = "Webhook is active."
	BodyTokenMismatch = "Verification token mismatch"
	BodyHealthy       = "ok"
	contentTypeText   = "text/plain; charset=utf-8"
)

// Dispatcher receives business account envelopes. Implementations must
// return without waiting for the reply work to finish.
type Dispatcher interface {
	Dispatch(ctx context.Context, env whatsapp.Envelope) string
}

type HandlerConfig struct {
	WebhookPath  string
	VerifyToken  string
	MaxBodyBytes int64
	Verifier     webhooks.Verifier
	Logger       core.Logger
}

// WebhookHandler answers provider requests. Delivery callbacks are always
// acknowledged with 200 so the provider never redelivers.
type WebhookHandler struct {
	dispatcher   Dispatcher
	verifyToken  string
	maxBodyBytes int64
	verifier     webhooks.Verifier
	logger       core.Logger
	mux          *http.ServeMux
}

func NewWebhookHandler(dispatcher Dispatcher, cfg HandlerConfig) *WebhookHandler {
	path := strings.TrimSpace(cfg.WebhookPath)
	if path == "" {
		path = core.DefaultWebhookPath
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = core.DefaultMaxBodyBytes
	}
	h := &WebhookHandler{
		dispatcher:   dispatcher,
		verifyToken:  cfg.VerifyToken,
		maxBodyBytes: maxBody,
		verifier:     cfg.Verifier,
		logger:       core.ResolveLogger("relay.inbound", nil, cfg.Logger),
		mux:          http.NewServeMux(),
	}
	h.mux.HandleFunc("GET "+path, h.handleVerify)
	h.mux.HandleFunc("POST "+path, h.handleDelivery)
	h.mux.HandleFunc("GET "+HealthPath, h.handleHealth)
	return h
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *WebhookHandler) handleVerify(w http.ResponseWriter, r *http.Request) {
	handshake := whatsapp.ParseHandshake(r.URL.Query())
	switch handshake.Verify(h.verifyToken) {
	case whatsapp.HandshakeAccepted:
		core.LogFields(r.Context(), h.logger, core.LevelInfo, "webhook subscription verified", nil)
		writeText(w, http.StatusOK, handshake.Challenge)
	case whatsapp.HandshakeRejected:
		core.LogFields(r.Context(), h.logger, core.LevelWarn, "webhook verification token mismatch", map[string]any{
			"verify_token_configured": strings.TrimSpace(h.verifyToken) != "",
		})
		writeText(w, http.StatusForbidden, BodyTokenMismatch)
	default:
		writeText(w, http.StatusOK, BodyActive)
	}
}

func (h *WebhookHandler) handleDelivery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		core.LogFields(ctx, h.logger, core.LevelWarn, "webhook body could not be read", core.ErrorFields(
			inboundBadInput(err, "inbound: read delivery body", map[string]any{"max_body_bytes": h.maxBodyBytes}),
		))
		writeText(w, http.StatusOK, BodyOK)
		return
	}

	if h.verifier != nil {
		req := core.InboundRequest{
			Headers: flattenHeaders(r.Header),
			Body:    body,
		}
		if verr := h.verifier.Verify(ctx, req); verr != nil {
			core.LogFields(ctx, h.logger, core.LevelWarn, "webhook signature rejected", core.ErrorFields(
				inboundUnauthorized(verr, map[string]any{"provider_id": whatsapp.ProviderID}),
			))
			writeText(w, http.StatusOK, BodyOK)
			return
		}
	}

	env, ok := whatsapp.DecodeEnvelope(body)
	switch {
	case !ok:
		core.LogFields(ctx, h.logger, core.LevelDebug, "webhook body is not a json object", map[string]any{"bytes": len(body)})
	case !env.IsBusinessAccount():
		core.LogFields(ctx, h.logger, core.LevelDebug, "ignoring webhook for other object", map[string]any{"object": env.Object})
	case h.dispatcher == nil:
		core.LogFields(ctx, h.logger, core.LevelError, "no dispatcher configured", nil)
	default:
		id := h.dispatcher.Dispatch(ctx, env)
		core.LogFields(ctx, h.logger, core.LevelDebug, "webhook delivery dispatched", map[string]any{"dispatch_id": id})
	}
	writeText(w, http.StatusOK, BodyOK)
}

func (h *WebhookHandler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeText(w, http.StatusOK, BodyHealthy)
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", contentTypeText)
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func flattenHeaders(headers http.Header) map[string]string {
	out := make(map[string]string, len(headers))
	for key, values := range headers {
		if len(values) == 0 {
			continue
		}
		out[key] = values[0]
	}
	return out
}

var _ http.Handler = (*WebhookHandler)(nil)
