package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

type MessageKind string

const MessageKindText MessageKind = "text"

// InboundMessage is one user message normalized out of a webhook envelope.
// It is built per delivery and discarded once dispatched.
type InboundMessage struct {
	ID        string
	From      string
	Kind      MessageKind
	Text      string
	FromMe    bool
	Timestamp string
}

// IsText reports whether the provider tagged the message exactly "text".
func (m InboundMessage) IsText() bool {
	return m.Kind == MessageKindText
}

// BackendClient resolves a reply for a user query. Implementations never
// fail: every failure path resolves to fallback text.
type BackendClient interface {
	Reply(ctx context.Context, query string, conversationID string) string
}

// MessageSender delivers an outbound text message on a best-effort basis.
type MessageSender interface {
	Send(ctx context.Context, to string, body string)
}

// InboundRequest is the transport-neutral view of a provider delivery used by
// webhook verifiers.
type InboundRequest struct {
	Headers map[string]string
	Body    []byte
}

// TransportRequest is one outbound JSON POST.
type TransportRequest struct {
	URL     string
	Headers map[string]string
	Body    []byte
	Timeout time.Duration
}

type TransportResponse struct {
	StatusCode int
	Body       []byte
	Duration   time.Duration
}

type TransportAdapter interface {
	Do(ctx context.Context, req TransportRequest) (TransportResponse, error)
}

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type DispatchEvent struct {
	DispatchID   string
	MessageCount int
	Err          error
	StartedAt    time.Time
	Duration     time.Duration
	Metadata     map[string]any
}

// DispatchHook observes the lifecycle of one asynchronous dispatch.
type DispatchHook interface {
	OnStart(ctx context.Context, event DispatchEvent)
	OnSuccess(ctx context.Context, event DispatchEvent)
	OnFailure(ctx context.Context, event DispatchEvent)
}

type NopDispatchHook struct{}

func (NopDispatchHook) OnStart(context.Context, DispatchEvent)   {}
func (NopDispatchHook) OnSuccess(context.Context, DispatchEvent) {}
func (NopDispatchHook) OnFailure(context.Context, DispatchEvent) {}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger
