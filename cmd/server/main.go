// Package main initializes and starts the keychain server, setting up
// configuration, logging, the secret backend, the keychain facade and the
// HTTP(S) API.
package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/atinyakov/keychain/internal/backend"
	"github.com/atinyakov/keychain/internal/config"
	"github.com/atinyakov/keychain/internal/keychain"
	"github.com/atinyakov/keychain/internal/logger"
	"github.com/atinyakov/keychain/internal/server/handler/http"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

const shutdownTimeout = 10 * time.Second

// orDefault returns s, or def if s is empty (cmp.Or equivalent for Go 1.21).
func orDefault(s, def string) string {
	if s != "" {
		return s
	}
	return def
}

func main() {
	// Parse command-line, config file and environment configuration.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", orDefault(version, "N/A"))
	fmt.Printf("Build date: %s\n", orDefault(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	zapLogger := log.Log

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, options, zapLogger); err != nil {
		zapLogger.Fatal("server stopped with error", zap.Error(err))
	}
}

func run(ctx context.Context, options *config.Options, zapLogger *zap.Logger) (err error) {
	// Background work of the backend stops before its resources are released.
	backendCtx, cancelBackend := context.WithCancel(ctx)
	store, closeStore, err := backend.Open(backendCtx, options, zapLogger)
	if err != nil {
		cancelBackend()
		return fmt.Errorf("open %s backend: %w", options.Backend, err)
	}
	defer func() {
		cancelBackend()
		err = multierr.Append(err, closeStore())
	}()

	kc, err := keychain.New(keychain.Options{
		InstanceID: options.InstanceID,
		KeychainID: options.KeychainID,
		Backend:    store,
		Logger:     zapLogger.Named("keychain"),
	})
	if err != nil {
		return fmt.Errorf("create keychain: %w", err)
	}

	router := http.NewRouter(&http.KeychainHandler{Keychain: kc, Logger: zapLogger}, zapLogger)

	server := &nethttp.Server{
		Addr:              options.Address,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	useTLS := options.TLSCert != "" && options.TLSKey != ""
	if useTLS {
		server.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	serveErr := make(chan error, 1)
	go func() {
		zapLogger.Info("starting keychain server",
			zap.String("addr", options.Address),
			zap.String("backend", options.Backend),
			zap.String("keychain_id", options.KeychainID),
			zap.String("instance_id", options.InstanceID),
			zap.Bool("tls", useTLS),
		)
		if useTLS {
			serveErr <- server.ListenAndServeTLS(options.TLSCert, options.TLSKey)
		} else {
			serveErr <- server.ListenAndServe()
		}
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, nethttp.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	zapLogger.Info("shutting down keychain server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
