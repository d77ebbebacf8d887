package whatsapp

import (
	"encoding/json"
	"strings"
)

const ObjectWhatsAppBusinessAccount = "whatsapp_business_account"

// Envelope is the raw delivery callback body. Nested levels stay raw so a
// malformed entry can be isolated during extraction instead of failing the
// whole decode.
type Envelope struct {
	Object string          `json:"object"`
	Entry  json.RawMessage `json:"entry,omitempty"`
}

type entry struct {
	ID      string          `json:"id"`
	Changes json.RawMessage `json:"changes"`
}

type change struct {
	Field string          `json:"field"`
	Value json.RawMessage `json:"value"`
}

type value struct {
	MessagingProduct string          `json:"messaging_product"`
	Messages         json.RawMessage `json:"messages"`
}

type message struct {
	From      *string      `json:"from"`
	ID        string       `json:"id"`
	Timestamp string       `json:"timestamp"`
	Type      *string      `json:"type"`
	FromMe    bool         `json:"from_me"`
	Text      *textContent `json:"text"`
}

type textContent struct {
	Body *string `json:"body"`
}

// DecodeEnvelope parses a delivery body. Invalid JSON or a non-object body
// yields ok=false; a non-string object discriminator decodes as empty.
func DecodeEnvelope(body []byte) (Envelope, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return Envelope{}, false
	}
	env := Envelope{Entry: fields["entry"]}
	if raw, ok := fields["object"]; ok {
		var object string
		if err := json.Unmarshal(raw, &object); err == nil {
			env.Object = object
		}
	}
	return env, true
}

// IsBusinessAccount reports whether the envelope carries WhatsApp Business
// Account activity.
func (e Envelope) IsBusinessAccount() bool {
	return e.Object == ObjectWhatsAppBusinessAccount
}

func isAbsent(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return trimmed == "" || trimmed == "null"
}
