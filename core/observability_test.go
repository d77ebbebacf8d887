package core

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
)

type capturedCounter struct {
	name  string
	value int64
	tags  map[string]string
}

type capturedHistogram struct {
	name  string
	value float64
	tags  map[string]string
}

type captureMetricsRecorder struct {
	mu         sync.Mutex
	counters   []capturedCounter
	histograms []capturedHistogram
}

func (m *captureMetricsRecorder) IncCounter(_ context.Context, name string, value int64, tags map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters = append(m.counters, capturedCounter{name: name, value: value, tags: cloneTags(tags)})
}

func (m *captureMetricsRecorder) ObserveHistogram(_ context.Context, name string, value float64, tags map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.histograms = append(m.histograms, capturedHistogram{name: name, value: value, tags: cloneTags(tags)})
}

type capturedLog struct {
	level  string
	msg    string
	fields map[string]any
}

type captureLogger struct {
	mu       *sync.Mutex
	records  *[]capturedLog
	defaults map[string]any
}

func newCaptureLogger() *captureLogger {
	records := []capturedLog{}
	return &captureLogger{mu: &sync.Mutex{}, records: &records, defaults: map[string]any{}}
}

func (l *captureLogger) WithFields(fields map[string]any) Logger {
	merged := cloneFieldMap(l.defaults)
	for key, value := range fields {
		merged[key] = value
	}
	return &captureLogger{mu: l.mu, records: l.records, defaults: merged}
}

func (l *captureLogger) Trace(msg string, args ...any) { l.record("trace", msg, args...) }
func (l *captureLogger) Debug(msg string, args ...any) { l.record("debug", msg, args...) }
func (l *captureLogger) Info(msg string, args ...any)  { l.record("info", msg, args...) }
func (l *captureLogger) Warn(msg string, args ...any)  { l.record("warn", msg, args...) }
func (l *captureLogger) Error(msg string, args ...any) { l.record("error", msg, args...) }
func (l *captureLogger) Fatal(msg string, args ...any) { l.record("fatal", msg, args...) }

func (l *captureLogger) WithContext(context.Context) Logger {
	return &captureLogger{mu: l.mu, records: l.records, defaults: cloneFieldMap(l.defaults)}
}

func (l *captureLogger) record(level string, msg string, args ...any) {
	fields := cloneFieldMap(l.defaults)
	for index := 0; index+1 < len(args); index += 2 {
		key, ok := args[index].(string)
		if !ok {
			continue
		}
		fields[key] = args[index+1]
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.records = append(*l.records, capturedLog{level: level, msg: msg, fields: fields})
}

func (l *captureLogger) snapshot() []capturedLog {
	l.mu.Lock()
	defer l.mu.Unlock()
	items := *l.records
	out := make([]capturedLog, len(items))
	copy(out, items)
	return out
}

func cloneFieldMap(input map[string]any) map[string]any {
	if len(input) == 0 {
		return map[string]any{}
	}
	output := make(map[string]any, len(input))
	for key, value := range input {
		output[key] = value
	}
	return output
}

func TestLogFields_AttachesFieldsAtLevel(t *testing.T) {
	logger := newCaptureLogger()
	LogFields(context.Background(), logger, LevelWarn, "backend slow", map[string]any{"conversation_id": "15551234567"})
	LogFields(context.Background(), logger, "unknown", "fallback level", nil)

	records := logger.snapshot()
	if len(records) != 2 {
		t.Fatalf("expected two records, got %d", len(records))
	}
	if records[0].level != "warn" || records[0].fields["conversation_id"] != "15551234567" {
		t.Fatalf("unexpected first record %#v", records[0])
	}
	if records[1].level != "info" {
		t.Fatalf("expected unknown level to log at info, got %q", records[1].level)
	}

	LogFields(context.Background(), nil, LevelError, "dropped", nil)
}

func TestLogFields_WritesEachFieldOnce(t *testing.T) {
	var buf bytes.Buffer
	root := glog.NewLogger(glog.WithWriter(&buf), glog.WithLoggerTypeJSON())

	LogFields(context.Background(), root.GetLogger("relay.server"), LevelInfo, "listening", map[string]any{"addr": ":5001"})

	line := strings.TrimSpace(buf.String())
	if strings.Count(line, `"addr"`) != 1 {
		t.Fatalf("expected addr exactly once, got %s", line)
	}
	if !strings.Contains(line, `"logger":"relay.server"`) {
		t.Fatalf("expected named logger, got %s", line)
	}
}

type argsOnlyLogger struct {
	glog.Logger
	msg  string
	args []any
}

func (l *argsOnlyLogger) Info(msg string, args ...any) {
	l.msg = msg
	l.args = append([]any(nil), args...)
}

func (l *argsOnlyLogger) WithContext(context.Context) Logger { return l }

func TestLogFields_FlattensForPlainLoggers(t *testing.T) {
	logger := &argsOnlyLogger{Logger: glog.Nop()}
	LogFields(context.Background(), logger, LevelInfo, "sent", map[string]any{"to": "1", "status_code": 200})

	want := []any{"status_code", 200, "to", "1"}
	if logger.msg != "sent" || len(logger.args) != len(want) {
		t.Fatalf("unexpected call %q %#v", logger.msg, logger.args)
	}
	for idx := range want {
		if logger.args[idx] != want[idx] {
			t.Fatalf("expected sorted args %#v, got %#v", want, logger.args)
		}
	}
}

func TestLogFields_IncludesStructuredErrorFields(t *testing.T) {
	logger := newCaptureLogger()
	err := goerrors.New("graph api rejected", goerrors.CategoryExternal).
		WithCode(http.StatusBadGateway).
		WithTextCode(RelayErrorExternalFailure)
	LogFields(context.Background(), logger, LevelError, "send failed", MergeFields(map[string]any{"to": "1"}, ErrorFields(err)))

	record := logger.snapshot()[0]
	if record.fields["error_text_code"] != RelayErrorExternalFailure {
		t.Fatalf("expected text code field, got %#v", record.fields)
	}
	if record.fields["error_code"] != http.StatusBadGateway {
		t.Fatalf("expected error code field, got %#v", record.fields)
	}
	if record.fields["to"] != "1" {
		t.Fatalf("expected merged field, got %#v", record.fields)
	}
}

func TestErrorFields_MapsPlainErrors(t *testing.T) {
	fields := ErrorFields(errors.New("boom"))
	if fields["error"] != "boom" {
		t.Fatalf("expected error message, got %#v", fields)
	}
	if fields["error_text_code"] == "" || fields["error_text_code"] == nil {
		t.Fatalf("expected a text code for plain errors, got %#v", fields)
	}
	if len(ErrorFields(nil)) != 0 {
		t.Fatalf("expected no fields for nil error")
	}
}

func TestRecordOperation_EmitsCounterAndHistogram(t *testing.T) {
	metrics := &captureMetricsRecorder{}
	tags := map[string]string{"status": "success"}
	RecordOperation(context.Background(), metrics, " Dispatch ", 42, tags)
	tags["status"] = "mutated"

	if len(metrics.counters) != 1 || metrics.counters[0].name != "relay.dispatch.total" || metrics.counters[0].value != 1 {
		t.Fatalf("unexpected counters %#v", metrics.counters)
	}
	if metrics.counters[0].tags["status"] != "success" {
		t.Fatalf("expected tags to be copied, got %#v", metrics.counters[0].tags)
	}
	if len(metrics.histograms) != 1 || metrics.histograms[0].name != "relay.dispatch.duration_ms" || metrics.histograms[0].value != 42 {
		t.Fatalf("unexpected histograms %#v", metrics.histograms)
	}

	RecordOperation(context.Background(), nil, "dispatch", 1, nil)
}

func TestResolveLogger_FallsBackToNop(t *testing.T) {
	if ResolveLogger("relay", nil, nil) == nil {
		t.Fatalf("expected nop logger")
	}
	logger := newCaptureLogger()
	if got := ResolveLogger("relay", nil, logger); got != Logger(logger) {
		t.Fatalf("expected direct logger to be returned")
	}
}
