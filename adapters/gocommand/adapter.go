package gocommand

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-command"
)

// ValidateMessageContract enforces Type() plus optional Validate() contract.
func ValidateMessageContract(msg any) error {
	if err := command.ValidateMessage(msg); err != nil {
		return err
	}
	m, ok := msg.(command.Message)
	if !ok {
		return fmt.Errorf("gocommand: message must implement Type() string")
	}
	if strings.TrimSpace(m.Type()) == "" {
		return fmt.Errorf("gocommand: message type is required")
	}
	return nil
}

// Execute validates msg, runs cmd with a result collector attached to ctx and
// returns whatever the command stored. ok is false when nothing was stored.
func Execute[T any, R any](ctx context.Context, cmd command.Commander[T], msg T) (result R, ok bool, err error) {
	if cmd == nil {
		return result, false, fmt.Errorf("gocommand: command is required")
	}
	if err := ValidateMessageContract(msg); err != nil {
		return result, false, err
	}
	collector := command.NewResult[R]()
	if err := cmd.Execute(command.ContextWithResult(ctx, collector), msg); err != nil {
		return result, false, err
	}
	result, ok = collector.Load()
	return result, ok, nil
}
