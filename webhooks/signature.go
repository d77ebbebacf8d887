package webhooks

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/goliatone/go-whatsapp-relay/core"
)

const (
	HeaderMetaSignature = "X-Hub-Signature-256"
	metaSignaturePrefix = "sha256="
)

type Verifier interface {
	Verify(ctx context.Context, req core.InboundRequest) error
}

// HeaderHMACVerifier checks a hex encoded HMAC-SHA256 of the raw body carried
// in Header, after stripping Prefix.
type HeaderHMACVerifier struct {
	Header string
	Prefix string
	Secret string
}

func (v HeaderHMACVerifier) Verify(_ context.Context, req core.InboundRequest) error {
	header := headerValue(req.Headers, v.Header)
	if header == "" {
		return fmt.Errorf("webhooks: %s signature header is required", v.Header)
	}
	if v.Secret == "" {
		return fmt.Errorf("webhooks: signature secret is required")
	}
	signature := strings.TrimPrefix(header, v.Prefix)
	if signature == "" {
		return fmt.Errorf("webhooks: signature value is required")
	}
	decoded, err := hex.DecodeString(signature)
	if err != nil {
		return fmt.Errorf("webhooks: decode hex signature: %w", err)
	}

	mac := hmac.New(sha256.New, []byte(v.Secret))
	_, _ = mac.Write(req.Body)
	if !hmac.Equal(decoded, mac.Sum(nil)) {
		return fmt.Errorf("webhooks: signature verification failed")
	}
	return nil
}

// TokenMatches compares a presented token against the expected one in
// constant time. An empty expected token never matches.
func TokenMatches(expected string, actual string) bool {
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(actual), []byte(expected)) == 1
}

// NewMetaSignatureVerifier verifies X-Hub-Signature-256 as sent by Meta
// platform webhooks.
func NewMetaSignatureVerifier(appSecret string) HeaderHMACVerifier {
	return HeaderHMACVerifier{
		Header: HeaderMetaSignature,
		Prefix: metaSignaturePrefix,
		Secret: appSecret,
	}
}

func headerValue(headers map[string]string, key string) string {
	for existing, value := range headers {
		if strings.EqualFold(existing, key) {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

var _ Verifier = HeaderHMACVerifier{}
