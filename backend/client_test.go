package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goliatone/go-whatsapp-relay/core"
)

func TestClientReply_ReturnsBackendResponse(t *testing.T) {
	var got Request
	var gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get(HeaderAPIKey)
		raw, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(raw, &got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"response":"hello back"}`))
	}))
	defer server.Close()

	client := NewClient(core.BackendConfig{URL: server.URL, APIKey: "k1", Timeout: time.Second})
	reply := client.Reply(context.Background(), "hello", "15551234567")
	if reply != "hello back" {
		t.Fatalf("expected backend reply, got %q", reply)
	}
	if gotKey != "k1" {
		t.Fatalf("expected api key header k1, got %q", gotKey)
	}
	if got.Query != "hello" || got.ConversationID != "15551234567" {
		t.Fatalf("unexpected backend request %#v", got)
	}
}

func TestClientReply_FallbackPaths(t *testing.T) {
	cases := []struct {
		name     string
		status   int
		body     string
		expected string
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"detail":"bad key"}`, expected: FallbackAuthFailure},
		{name: "server error", status: http.StatusInternalServerError, body: `oops`, expected: FallbackUnavailable},
		{name: "forbidden", status: http.StatusForbidden, body: ``, expected: FallbackUnavailable},
		{name: "missing field", status: http.StatusOK, body: `{"answer":"x"}`, expected: FallbackUnprocessable},
		{name: "invalid json", status: http.StatusOK, body: `not json`, expected: FallbackUnprocessable},
		{name: "empty response field", status: http.StatusOK, body: `{"response":""}`, expected: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer server.Close()

			client := NewClient(core.BackendConfig{URL: server.URL, APIKey: "k1", Timeout: time.Second})
			if reply := client.Reply(context.Background(), "q", "c"); reply != tc.expected {
				t.Fatalf("expected %q, got %q", tc.expected, reply)
			}
		})
	}
}

func TestClientReply_MissingAPIKeySkipsNetwork(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"response":"x"}`))
	}))
	defer server.Close()

	logger := &capturingLogger{}
	client := NewClient(core.BackendConfig{URL: server.URL, Timeout: time.Second}, WithLogger(logger))
	if reply := client.Reply(context.Background(), "q", "c"); reply != FallbackNotConfigured {
		t.Fatalf("expected not configured fallback, got %q", reply)
	}
	if calls.Load() != 0 {
		t.Fatalf("expected no backend call, got %d", calls.Load())
	}
	if logger.errors.Load() == 0 {
		t.Fatalf("expected configuration error to be logged")
	}
}

func TestClientReply_TimeoutAndRefusalUseConnectivityFallback(t *testing.T) {
	release := make(chan struct{})
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer slow.Close()
	defer close(release)

	client := NewClient(core.BackendConfig{URL: slow.URL, APIKey: "k", Timeout: 50 * time.Millisecond})
	if reply := client.Reply(context.Background(), "q", "c"); reply != FallbackUnavailable {
		t.Fatalf("expected connectivity fallback on timeout, got %q", reply)
	}

	closed := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	target := closed.URL
	closed.Close()
	client = NewClient(core.BackendConfig{URL: target, APIKey: "k", Timeout: time.Second})
	if reply := client.Reply(context.Background(), "q", "c"); reply != FallbackUnavailable {
		t.Fatalf("expected connectivity fallback on refusal, got %q", reply)
	}

	if FallbackUnavailable == FallbackAuthFailure {
		t.Fatalf("auth and connectivity fallbacks must differ")
	}
}

func TestClientReply_UsesInjectedTransport(t *testing.T) {
	stub := &stubTransport{res: core.TransportResponse{StatusCode: http.StatusOK, Body: []byte(`{"response":"stubbed"}`)}}
	client := NewClient(core.BackendConfig{URL: "http://backend.local/chat", APIKey: "k", Timeout: 90 * time.Second}, WithTransport(stub))
	if reply := client.Reply(context.Background(), "q", "c"); reply != "stubbed" {
		t.Fatalf("expected stubbed reply, got %q", reply)
	}
	if stub.last.Timeout != 90*time.Second {
		t.Fatalf("expected backend timeout to be forwarded, got %s", stub.last.Timeout)
	}
	if stub.last.Headers[HeaderAPIKey] != "k" {
		t.Fatalf("expected api key header, got %#v", stub.last.Headers)
	}
}

type stubTransport struct {
	res  core.TransportResponse
	err  error
	last core.TransportRequest
}

func (s *stubTransport) Do(_ context.Context, req core.TransportRequest) (core.TransportResponse, error) {
	s.last = req
	return s.res, s.err
}

type capturingLogger struct {
	errors atomic.Int32
}

func (l *capturingLogger) Trace(string, ...any) {}
func (l *capturingLogger) Debug(string, ...any) {}
func (l *capturingLogger) Info(string, ...any)  {}
func (l *capturingLogger) Warn(string, ...any)  {}
func (l *capturingLogger) Fatal(string, ...any) {}

func (l *capturingLogger) Error(string, ...any) {
	l.errors.Add(1)
}

func (l *capturingLogger) WithContext(context.Context) core.Logger {
	return l
}
