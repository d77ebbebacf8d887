package gologger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	glog "github.com/goliatone/go-logger/glog"
)

func TestResolveDeterministicFallback(t *testing.T) {
	loggerOnly := &capturingLogger{id: "logger"}
	providerLogger := &capturingLogger{id: "provider"}
	provider := &capturingProvider{logger: providerLogger}

	_, resolved := Resolve("relay", provider, loggerOnly)
	if got := resolved.(*capturingLogger); got.id != "provider" {
		t.Fatalf("expected provider logger precedence, got %q", got.id)
	}

	resolvedProvider, resolved := Resolve("relay", nil, loggerOnly)
	if got := resolved.(*capturingLogger); got.id != "logger" {
		t.Fatalf("expected direct logger when provider is nil, got %q", got.id)
	}
	if resolvedProvider == nil {
		t.Fatalf("expected provider wrapper from logger")
	}

	_, resolved = Resolve("relay", nil, nil)
	if resolved == nil {
		t.Fatalf("expected nop logger fallback")
	}
}

func TestToJobLoggerBridgesCalls(t *testing.T) {
	logger := &capturingLogger{id: "relay"}
	bridged := ToJobLogger(logger)
	if bridged == nil {
		t.Fatalf("expected go-job logger bridge")
	}
	bridged.Info("hello", "k", "v")
	if logger.lastInfo.msg != "hello" {
		t.Fatalf("expected bridged message, got %q", logger.lastInfo.msg)
	}
	if logger.lastInfo.args[0] != "k" || logger.lastInfo.args[1] != "v" {
		t.Fatalf("expected bridged args, got %#v", logger.lastInfo.args)
	}
	if ToJobLogger(nil) != nil {
		t.Fatalf("expected nil bridge for nil logger")
	}
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var record map[string]any
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			t.Fatalf("decode log line %q: %v", line, err)
		}
		out = append(out, record)
	}
	return out
}

func TestResolveNamesBaseLoggerChildren(t *testing.T) {
	var buf bytes.Buffer
	root := glog.NewLogger(glog.WithWriter(&buf), glog.WithLoggerTypeJSON(), glog.WithLevel("info"))

	_, logger := Resolve("relay.dispatch", root, nil)
	logger.Debug("hidden")
	logger.WithContext(context.Background()).Info("sent", "to", "15551234567", "status_code", 200)

	records := decodeLines(t, &buf)
	if len(records) != 1 {
		t.Fatalf("expected debug to be filtered, got %d records", len(records))
	}
	record := records[0]
	if record["logger"] != "relay.dispatch" || record["msg"] != "sent" {
		t.Fatalf("unexpected record %#v", record)
	}
	if record["to"] != "15551234567" || record["status_code"] != float64(200) {
		t.Fatalf("expected structured args, got %#v", record)
	}
}

func TestToJobLoggerWritesThroughBaseLogger(t *testing.T) {
	var buf bytes.Buffer
	root := glog.NewLogger(glog.WithWriter(&buf), glog.WithLoggerTypeJSON())

	ToJobLogger(root.GetLogger("relay.jobs")).Info("job started", "job_id", "relay.dispatch")

	records := decodeLines(t, &buf)
	if len(records) != 1 || records[0]["logger"] != "relay.jobs" || records[0]["job_id"] != "relay.dispatch" {
		t.Fatalf("expected bridged record, got %#v", records)
	}
}

var (
	_ glog.Logger         = (*capturingLogger)(nil)
	_ glog.LoggerProvider = (*capturingProvider)(nil)
)

type capturingProvider struct {
	logger *capturingLogger
}

func (p *capturingProvider) GetLogger(string) glog.Logger {
	if p == nil || p.logger == nil {
		return glog.Nop()
	}
	return p.logger
}

type infoCall struct {
	msg  string
	args []any
}

type capturingLogger struct {
	id       string
	lastInfo infoCall
}

func (l *capturingLogger) Trace(string, ...any) {}
func (l *capturingLogger) Debug(string, ...any) {}
func (l *capturingLogger) Warn(string, ...any)  {}
func (l *capturingLogger) Error(string, ...any) {}
func (l *capturingLogger) Fatal(string, ...any) {}

func (l *capturingLogger) Info(msg string, args ...any) {
	l.lastInfo = infoCall{
		msg:  msg,
		args: append([]any(nil), args...),
	}
}

func (l *capturingLogger) WithContext(context.Context) glog.Logger {
	return l
}
