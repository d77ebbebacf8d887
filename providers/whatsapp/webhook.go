package whatsapp

import (
	"net/url"

	"github.com/goliatone/go-whatsapp-relay/webhooks"
)

const (
	ProviderID = "whatsapp"

	QueryMode        = "hub.mode"
	QueryChallenge   = "hub.challenge"
	QueryVerifyToken = "hub.verify_token"
	ModeSubscribe    = "subscribe"
)

type HandshakeResult int

const (
	// HandshakeIdle means no subscription attempt was made.
	HandshakeIdle HandshakeResult = iota
	HandshakeAccepted
	HandshakeRejected
)

// Handshake is the parsed subscription verification query.
type Handshake struct {
	Mode      string
	Token     string
	Challenge string
}

func ParseHandshake(query url.Values) Handshake {
	return Handshake{
		Mode:      query.Get(QueryMode),
		Token:     query.Get(QueryVerifyToken),
		Challenge: query.Get(QueryChallenge),
	}
}

// Attempted reports whether the query is a subscription request. Anything
// else is treated as a liveness probe.
func (h Handshake) Attempted() bool {
	return h.Mode == ModeSubscribe && h.Challenge != ""
}

// Verify decides the handshake outcome against the configured token. An
// unset verify token rejects every attempt.
func (h Handshake) Verify(verifyToken string) HandshakeResult {
	if !h.Attempted() {
		return HandshakeIdle
	}
	if !webhooks.TokenMatches(verifyToken, h.Token) {
		return HandshakeRejected
	}
	return HandshakeAccepted
}

// NewDeliveryVerifier returns the signature check for POST deliveries, or nil
// when no app secret is configured.
func NewDeliveryVerifier(appSecret string) webhooks.Verifier {
	if appSecret == "" {
		return nil
	}
	return webhooks.NewMetaSignatureVerifier(appSecret)
}
