package gocommand

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-command"
)

type okMessage struct{}

func (okMessage) Type() string { return "relay.command.ok" }

type invalidMessage struct{}

func (invalidMessage) Type() string { return "" }

type failingMessage struct{}

func (failingMessage) Type() string { return "relay.command.fail" }

func (failingMessage) Validate() error { return errors.New("invalid payload") }

type echoMessage struct {
	Text string
}

func (echoMessage) Type() string { return "relay.command.echo" }

func TestValidateMessageContract(t *testing.T) {
	if err := ValidateMessageContract(okMessage{}); err != nil {
		t.Fatalf("expected valid message, got %v", err)
	}
	if err := ValidateMessageContract(invalidMessage{}); err == nil {
		t.Fatalf("expected empty type to fail contract validation")
	}
	if err := ValidateMessageContract(failingMessage{}); err == nil {
		t.Fatalf("expected Validate() failure to bubble")
	}
}

func TestExecuteCollectsResult(t *testing.T) {
	cmd := command.CommandFunc[echoMessage](func(ctx context.Context, msg echoMessage) error {
		if collector := command.ResultFromContext[string](ctx); collector != nil {
			collector.Store("echo: " + msg.Text)
		}
		return nil
	})

	result, ok, err := Execute[echoMessage, string](context.Background(), cmd, echoMessage{Text: "hi"})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !ok || result != "echo: hi" {
		t.Fatalf("expected stored result, got %q ok=%v", result, ok)
	}
}

func TestExecuteWithoutStoredResult(t *testing.T) {
	cmd := command.CommandFunc[echoMessage](func(context.Context, echoMessage) error { return nil })
	_, ok, err := Execute[echoMessage, string](context.Background(), cmd, echoMessage{})
	if err != nil || ok {
		t.Fatalf("expected no result and no error, got ok=%v err=%v", ok, err)
	}
}

func TestExecutePropagatesFailures(t *testing.T) {
	called := false
	invalid := command.CommandFunc[failingMessage](func(context.Context, failingMessage) error {
		called = true
		return nil
	})
	if _, _, err := Execute[failingMessage, string](context.Background(), invalid, failingMessage{}); err == nil {
		t.Fatalf("expected validation failure")
	}
	if called {
		t.Fatalf("expected invalid message not to reach the command")
	}

	failing := command.CommandFunc[echoMessage](func(context.Context, echoMessage) error {
		return errors.New("downstream")
	})
	if _, _, err := Execute[echoMessage, string](context.Background(), failing, echoMessage{}); err == nil || err.Error() != "downstream" {
		t.Fatalf("expected command error, got %v", err)
	}
	if _, _, err := Execute[echoMessage, string](context.Background(), nil, echoMessage{}); err == nil {
		t.Fatalf("expected nil command error")
	}
}
