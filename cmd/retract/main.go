// retract runs the content retraction approval service over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/viant/retract"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configURL, envFile string
	flagSet := pflag.NewFlagSet("retract", pflag.ContinueOnError)
	flagSet.StringVarP(&configURL, "config", "c", "", "config URL (YAML or JSON); defaults are used when empty")
	flagSet.StringVar(&envFile, "env", ".env", "dotenv file with environment overrides")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if err := godotenv.Load(envFile); err != nil {
		logger.Info("no dotenv file, relying on process environment", zap.String("file", envFile))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := retract.DefaultConfig()
	if configURL != "" {
		if cfg, err = retract.LoadConfig(ctx, configURL); err != nil {
			return err
		}
	}
	if err = cfg.ApplyEnv(os.LookupEnv); err != nil {
		return err
	}
	srv, err := retract.New(ctx, cfg, retract.WithLogger(logger))
	if err != nil {
		return err
	}
	srv.Start(ctx)
	defer srv.Shutdown()

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: srv.Handler(), ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.HTTP.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
