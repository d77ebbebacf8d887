package dispatch

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	gocmd "github.com/goliatone/go-command"
	"github.com/google/uuid"

	"github.com/goliatone/go-whatsapp-relay/adapters/gocommand"
	"github.com/goliatone/go-whatsapp-relay/command"
	"github.com/goliatone/go-whatsapp-relay/core"
	"github.com/goliatone/go-whatsapp-relay/providers/whatsapp"
)

const (
	OperationDispatch = "dispatch"

	statusSuccess = "success"
	statusFailure = "failure"
)

type Extractor interface {
	Extract(ctx context.Context, env whatsapp.Envelope) ([]core.InboundMessage, error)
}

type Dispatcher struct {
	extractor Extractor
	replier   gocmd.Commander[command.ReplyMessage]
	logger    core.Logger
	metrics   core.MetricsRecorder
	hook      core.DispatchHook
	newID     func() string

	wg sync.WaitGroup
}

type Option func(*Dispatcher)

func WithLogger(logger core.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

func WithMetricsRecorder(recorder core.MetricsRecorder) Option {
	return func(d *Dispatcher) {
		d.metrics = recorder
	}
}

func WithHook(hook core.DispatchHook) Option {
	return func(d *Dispatcher) {
		d.hook = hook
	}
}

func WithExtractor(extractor Extractor) Option {
	return func(d *Dispatcher) {
		d.extractor = extractor
	}
}

// WithIDGenerator overrides dispatch id generation.
func WithIDGenerator(fn func() string) Option {
	return func(d *Dispatcher) {
		d.newID = fn
	}
}

// New builds a dispatcher that answers every extracted message with replier.
func New(replier gocmd.Commander[command.ReplyMessage], opts ...Option) *Dispatcher {
	d := &Dispatcher{replier: replier}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(d)
	}
	d.logger = core.ResolveLogger("relay.dispatch", nil, d.logger)
	if d.extractor == nil {
		d.extractor = whatsapp.NewExtractor(d.logger)
	}
	if d.metrics == nil {
		d.metrics = core.NopMetricsRecorder{}
	}
	if d.hook == nil {
		d.hook = core.NopDispatchHook{}
	}
	if d.newID == nil {
		d.newID = uuid.NewString
	}
	return d
}

// Dispatch starts processing env in the background and returns its dispatch
// id immediately. The work is detached from ctx cancellation.
func (d *Dispatcher) Dispatch(ctx context.Context, env whatsapp.Envelope) string {
	if ctx == nil {
		ctx = context.Background()
	}
	id := d.newID()
	detached := context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		_ = d.run(detached, id, env)
	}()
	return id
}

// Process handles env synchronously.
func (d *Dispatcher) Process(ctx context.Context, env whatsapp.Envelope) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return d.run(ctx, d.newID(), env)
}

// Wait blocks until every dispatch started so far has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) run(ctx context.Context, id string, env whatsapp.Envelope) (err error) {
	event := core.DispatchEvent{DispatchID: id, StartedAt: time.Now().UTC()}
	fields := map[string]any{"dispatch_id": id}

	defer func() {
		if recovered := recover(); recovered != nil {
			err = dispatchPanicError(id, recovered)
			core.LogFields(ctx, d.logger, core.LevelError, "dispatch panicked", core.MergeFields(fields, map[string]any{
				"panic": fmt.Sprint(recovered),
				"stack": string(debug.Stack()),
			}))
		}
		d.finish(ctx, event, err)
	}()

	d.notify(ctx, "start", event, d.hook.OnStart)

	messages, extractErr := d.extractor.Extract(ctx, env)
	event.MessageCount = len(messages)
	event.Metadata = map[string]any{"message_ids": messageIDs(messages)}
	if extractErr != nil {
		core.LogFields(ctx, d.logger, core.LevelWarn, "webhook payload partially malformed", core.MergeFields(fields, core.ErrorFields(extractErr)))
	}
	if len(messages) == 0 {
		core.LogFields(ctx, d.logger, core.LevelDebug, "no messages to dispatch", fields)
	}

	errs := []error{extractErr}
	for idx, msg := range messages {
		msgFields := core.MergeFields(fields, map[string]any{
			"index":      idx,
			"from":       msg.From,
			"kind":       string(msg.Kind),
			"message_id": msg.ID,
		})
		core.LogFields(ctx, d.logger, core.LevelInfo, "dispatching message", msgFields)
		result, stored, execErr := gocommand.Execute[command.ReplyMessage, command.ReplyResult](ctx, d.replier, command.ReplyMessage{Message: msg})
		if execErr != nil {
			core.LogFields(ctx, d.logger, core.LevelError, "reply command failed", core.MergeFields(msgFields, core.ErrorFields(execErr)))
			errs = append(errs, execErr)
			continue
		}
		if stored {
			core.LogFields(ctx, d.logger, core.LevelDebug, "reply handed to sender", core.MergeFields(msgFields, map[string]any{
				"backend_called": result.BackendCalled,
				"reply_length":   len(result.Body),
			}))
		}
	}
	return errors.Join(errs...)
}

func (d *Dispatcher) finish(ctx context.Context, event core.DispatchEvent, err error) {
	event.Duration = time.Since(event.StartedAt)
	event.Err = err
	status := statusSuccess
	if err != nil {
		status = statusFailure
		d.notify(ctx, "failure", event, d.hook.OnFailure)
	} else {
		d.notify(ctx, "success", event, d.hook.OnSuccess)
	}
	core.RecordOperation(ctx, d.metrics, OperationDispatch, event.Duration.Milliseconds(), map[string]string{"status": status})
	core.LogFields(ctx, d.logger, core.LevelDebug, "dispatch finished", map[string]any{
		"dispatch_id":   event.DispatchID,
		"message_count": event.MessageCount,
		"duration_ms":   event.Duration.Milliseconds(),
		"status":        status,
	})
}

// notify runs one hook callback. A panicking hook is logged and otherwise
// ignored.
func (d *Dispatcher) notify(ctx context.Context, stage string, event core.DispatchEvent, fn func(context.Context, core.DispatchEvent)) {
	defer func() {
		if recovered := recover(); recovered != nil {
			core.LogFields(ctx, d.logger, core.LevelError, "dispatch hook panicked", map[string]any{
				"dispatch_id": event.DispatchID,
				"stage":       stage,
				"panic":       fmt.Sprint(recovered),
			})
		}
	}()
	fn(ctx, event)
}

func messageIDs(messages []core.InboundMessage) []string {
	ids := make([]string, 0, len(messages))
	for _, msg := range messages {
		ids = append(ids, msg.ID)
	}
	return ids
}
