package gojob

import (
	"context"
	"strings"

	"github.com/goliatone/go-whatsapp-relay/core"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue/worker"
)

const JobIDDispatch = "relay.dispatch"

// ToExecutionMessage describes a dispatch as a go-job execution message.
func ToExecutionMessage(event core.DispatchEvent) *job.ExecutionMessage {
	params := copyAnyMap(event.Metadata)
	params["dispatch_id"] = strings.TrimSpace(event.DispatchID)
	params["message_count"] = event.MessageCount
	return &job.ExecutionMessage{
		JobID:          JobIDDispatch,
		Parameters:     params,
		IdempotencyKey: strings.TrimSpace(event.DispatchID),
	}
}

// ToWorkerEvent maps a dispatch lifecycle event to the go-job worker event.
// Dispatches are never retried, so the attempt is always 1.
func ToWorkerEvent(event core.DispatchEvent) worker.Event {
	return worker.Event{
		Message:   ToExecutionMessage(event),
		Attempt:   1,
		Err:       event.Err,
		StartedAt: event.StartedAt,
		Duration:  event.Duration,
	}
}

// DispatchHookAdapter forwards dispatch lifecycle events to a go-job worker
// hook so existing worker observers can watch relay dispatches.
type DispatchHookAdapter struct {
	hook worker.Hook
}

func NewDispatchHookAdapter(hook worker.Hook) *DispatchHookAdapter {
	return &DispatchHookAdapter{hook: hook}
}

func (a *DispatchHookAdapter) OnStart(ctx context.Context, event core.DispatchEvent) {
	if a == nil || a.hook == nil {
		return
	}
	a.hook.OnStart(ctx, ToWorkerEvent(event))
}

func (a *DispatchHookAdapter) OnSuccess(ctx context.Context, event core.DispatchEvent) {
	if a == nil || a.hook == nil {
		return
	}
	a.hook.OnSuccess(ctx, ToWorkerEvent(event))
}

func (a *DispatchHookAdapter) OnFailure(ctx context.Context, event core.DispatchEvent) {
	if a == nil || a.hook == nil {
		return
	}
	a.hook.OnFailure(ctx, ToWorkerEvent(event))
}

// LoggingHook is a worker.Hook that logs lifecycle events through a go-job
// logger.
type LoggingHook struct {
	logger job.Logger
}

func NewLoggingHook(logger job.Logger) *LoggingHook {
	return &LoggingHook{logger: logger}
}

func (h *LoggingHook) OnStart(_ context.Context, event worker.Event) {
	h.info("job started", event)
}

func (h *LoggingHook) OnSuccess(_ context.Context, event worker.Event) {
	h.info("job succeeded", event)
}

func (h *LoggingHook) OnFailure(_ context.Context, event worker.Event) {
	if h == nil || h.logger == nil {
		return
	}
	h.logger.Error("job failed", append(eventArgs(event), "error", errorText(event.Err))...)
}

func (h *LoggingHook) OnRetry(_ context.Context, event worker.Event) {
	if h == nil || h.logger == nil {
		return
	}
	h.logger.Info("job retry scheduled", append(eventArgs(event), "delay_ms", event.Delay.Milliseconds(), "error", errorText(event.Err))...)
}

func (h *LoggingHook) info(message string, event worker.Event) {
	if h == nil || h.logger == nil {
		return
	}
	h.logger.Info(message, eventArgs(event)...)
}

func eventArgs(event worker.Event) []any {
	args := []any{"attempt", event.Attempt, "duration_ms", event.Duration.Milliseconds()}
	if message := event.Message; message != nil {
		args = append(args, "job_id", message.JobID)
		for _, key := range []string{"dispatch_id", "message_ids"} {
			if value, ok := message.Parameters[key]; ok {
				args = append(args, key, value)
			}
		}
	}
	return args
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func copyAnyMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in)+2)
	for key, value := range in {
		out[key] = value
	}
	return out
}

var (
	_ core.DispatchHook = (*DispatchHookAdapter)(nil)
	_ worker.Hook       = (*LoggingHook)(nil)
)
