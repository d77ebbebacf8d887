package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-whatsapp-relay/core"
)

// UnsupportedKindNotice is sent for any inbound message that is not text.
const UnsupportedKindNotice = "I can only understand text messages."

// ReplyCommand answers one inbound message: text goes through the backend
// and its reply is sent to the original sender; anything else gets the
// fixed notice without touching the backend.
type ReplyCommand struct {
	backend core.BackendClient
	sender  core.MessageSender
}

func NewReplyCommand(backend core.BackendClient, sender core.MessageSender) *ReplyCommand {
	return &ReplyCommand{backend: backend, sender: sender}
}

func (c *ReplyCommand) Execute(ctx context.Context, msg ReplyMessage) error {
	if c == nil || c.backend == nil || c.sender == nil {
		return commandDependencyError("command: reply backend and sender are required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}

	to := msg.Message.From
	if !msg.Message.IsText() {
		c.sender.Send(ctx, to, UnsupportedKindNotice)
		storeResult(ctx, ReplyResult{To: to, Body: UnsupportedKindNotice})
		return nil
	}

	reply := c.backend.Reply(ctx, msg.Message.Text, to)
	c.sender.Send(ctx, to, reply)
	storeResult(ctx, ReplyResult{To: to, Body: reply, BackendCalled: true})
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
