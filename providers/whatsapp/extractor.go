package whatsapp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/goliatone/go-whatsapp-relay/core"
)

// Extractor walks a webhook envelope and yields normalized inbound messages.
type Extractor struct {
	logger core.Logger
}

func NewExtractor(logger core.Logger) *Extractor {
	return &Extractor{logger: core.ResolveLogger("relay.whatsapp.extractor", nil, logger)}
}

// Extract walks entries, changes and values in order. Only the first message
// of each value is taken. Messages flagged from_me are skipped. A malformed
// level stops extraction and is returned as an error alongside whatever was
// extracted before it.
func (x *Extractor) Extract(ctx context.Context, env Envelope) ([]core.InboundMessage, error) {
	out := []core.InboundMessage{}
	if isAbsent(env.Entry) {
		return out, nil
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(env.Entry, &entries); err != nil {
		return out, malformedError("entry", err)
	}
	for entryIdx, rawEntry := range entries {
		var e entry
		if err := json.Unmarshal(rawEntry, &e); err != nil {
			return out, malformedError(fmt.Sprintf("entry[%d]", entryIdx), err)
		}
		if isAbsent(e.Changes) {
			continue
		}
		var changes []json.RawMessage
		if err := json.Unmarshal(e.Changes, &changes); err != nil {
			return out, malformedError(fmt.Sprintf("entry[%d].changes", entryIdx), err)
		}
		for changeIdx, rawChange := range changes {
			path := fmt.Sprintf("entry[%d].changes[%d]", entryIdx, changeIdx)
			msg, ok, err := x.extractChange(ctx, rawChange, path)
			if err != nil {
				return out, err
			}
			if ok {
				out = append(out, msg)
			}
		}
	}
	return out, nil
}

func (x *Extractor) extractChange(ctx context.Context, rawChange json.RawMessage, path string) (core.InboundMessage, bool, error) {
	var c change
	if err := json.Unmarshal(rawChange, &c); err != nil {
		return core.InboundMessage{}, false, malformedError(path, err)
	}
	if isAbsent(c.Value) {
		return core.InboundMessage{}, false, nil
	}
	var v value
	if err := json.Unmarshal(c.Value, &v); err != nil {
		return core.InboundMessage{}, false, malformedError(path+".value", err)
	}
	// status-only callbacks carry no messages key at all
	if len(v.Messages) == 0 {
		return core.InboundMessage{}, false, nil
	}
	var batch []json.RawMessage
	if err := json.Unmarshal(v.Messages, &batch); err != nil || batch == nil {
		return core.InboundMessage{}, false, malformedError(path+".value.messages", err)
	}
	if len(batch) == 0 {
		return core.InboundMessage{}, false, malformedError(path+".value.messages", fmt.Errorf("messages is empty"))
	}
	if len(batch) > 1 {
		core.LogFields(ctx, x.logger, core.LevelWarn, "batched delivery: only the first message is processed", map[string]any{
			"path":    path,
			"dropped": len(batch) - 1,
		})
	}

	msgPath := path + ".value.messages[0]"
	var m message
	if err := json.Unmarshal(batch[0], &m); err != nil {
		return core.InboundMessage{}, false, malformedError(msgPath, err)
	}
	if m.From == nil {
		return core.InboundMessage{}, false, malformedError(msgPath+".from", fmt.Errorf("from is required"))
	}
	from := *m.From
	if m.FromMe {
		core.LogFields(ctx, x.logger, core.LevelInfo, "ignoring outgoing echo", map[string]any{
			"from":       from,
			"message_id": m.ID,
		})
		return core.InboundMessage{}, false, nil
	}
	if m.Type == nil {
		return core.InboundMessage{}, false, malformedError(msgPath+".type", fmt.Errorf("type is required"))
	}

	inbound := core.InboundMessage{
		ID:        m.ID,
		From:      from,
		Kind:      core.MessageKind(*m.Type),
		Timestamp: m.Timestamp,
	}
	if !inbound.IsText() {
		core.LogFields(ctx, x.logger, core.LevelInfo, "received non-text message", map[string]any{
			"from": from,
			"type": *m.Type,
		})
		return inbound, true, nil
	}
	if m.Text == nil || m.Text.Body == nil {
		return core.InboundMessage{}, false, malformedError(msgPath+".text.body", fmt.Errorf("text body is required"))
	}
	inbound.Kind = core.MessageKindText
	inbound.Text = *m.Text.Body
	return inbound, true, nil
}
