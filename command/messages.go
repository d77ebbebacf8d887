package command

import (
	"strings"

	"github.com/goliatone/go-whatsapp-relay/core"
)

const TypeReply = "relay.command.reply"

// ReplyMessage asks for one inbound message to be answered.
type ReplyMessage struct {
	Message core.InboundMessage
}

func (ReplyMessage) Type() string { return TypeReply }

func (m ReplyMessage) Validate() error {
	if strings.TrimSpace(m.Message.From) == "" {
		return commandValidationError("from", "sender identifier is required")
	}
	return nil
}

// ReplyResult describes what was sent back for a ReplyMessage.
type ReplyResult struct {
	To            string
	Body          string
	BackendCalled bool
}
