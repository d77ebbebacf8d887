// Command relay runs the WhatsApp webhook relay HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	relay "github.com/goliatone/go-whatsapp-relay"
	"github.com/goliatone/go-whatsapp-relay/adapters/gojob"
	"github.com/goliatone/go-whatsapp-relay/adapters/gologger"
	"github.com/goliatone/go-whatsapp-relay/core"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "relay: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := relay.LoadConfigFromEnv(ctx, relay.Config{})
	if err != nil {
		return err
	}

	provider := glog.NewLogger(
		glog.WithWriter(os.Stdout),
		glog.WithLoggerTypeJSON(),
		glog.WithLevel(strings.TrimSpace(cfg.LogLevel)),
	)
	hook := gojob.NewDispatchHookAdapter(gojob.NewLoggingHook(gologger.ToJobLogger(provider.GetLogger("relay.jobs"))))

	app, err := relay.New(cfg,
		relay.WithLoggerProvider(provider),
		relay.WithDispatchHook(hook),
	)
	if err != nil {
		return err
	}

	logger := provider.GetLogger("relay.server")
	srv := &http.Server{
		Addr:              cfg.Address(),
		Handler:           app.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		core.LogFields(gctx, logger, core.LevelInfo, "listening", map[string]any{"addr": srv.Addr, "webhook_path": cfg.WebhookPath})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		core.LogFields(context.Background(), logger, core.LevelInfo, "shutting down", nil)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		if err != nil {
			core.LogFields(shutdownCtx, logger, core.LevelError, "graceful shutdown failed", core.ErrorFields(err))
			_ = srv.Close()
		}
		app.Wait()
		core.LogFields(context.Background(), logger, core.LevelInfo, "relay stopped", nil)
		return err
	})
	return g.Wait()
}
