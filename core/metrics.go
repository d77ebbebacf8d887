package core

import "context"

type NopMetricsRecorder struct{}

func (NopMetricsRecorder) IncCounter(context.Context, string, int64, map[string]string) {}

func (NopMetricsRecorder) ObserveHistogram(context.Context, string, float64, map[string]string) {}

// RecordOperation emits the standard total counter and duration histogram for
// an operation.
func RecordOperation(
	ctx context.Context,
	recorder MetricsRecorder,
	operation string,
	durationMS int64,
	tags map[string]string,
) {
	if recorder == nil {
		return
	}
	operation = normalizeOperation(operation)
	if operation == "" {
		operation = "unknown"
	}
	recorder.IncCounter(ctx, "relay."+operation+".total", 1, cloneTags(tags))
	recorder.ObserveHistogram(ctx, "relay."+operation+".duration_ms", float64(durationMS), cloneTags(tags))
}

func cloneTags(tags map[string]string) map[string]string {
	if len(tags) == 0 {
		return map[string]string{}
	}
	copied := make(map[string]string, len(tags))
	for key, value := range tags {
		copied[key] = value
	}
	return copied
}
