package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"github.com/splitbook/splitbook/internal/auth"
	"github.com/splitbook/splitbook/internal/config"
	"github.com/splitbook/splitbook/internal/events"
	"github.com/splitbook/splitbook/internal/httpapi"
	"github.com/splitbook/splitbook/internal/service"
	"github.com/splitbook/splitbook/internal/storage"
	"github.com/splitbook/splitbook/internal/storage/postgres"
	"github.com/splitbook/splitbook/internal/storage/sqlite"
	"github.com/splitbook/splitbook/pkg/logging"
)

func main() {
	logging.Setup()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	store, err := openStore(cfg)
	if err != nil {
		slog.Error("Failed to initialize storage", "backend", cfg.StorageBackend, "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "backend", cfg.StorageBackend)

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.AMQPURL != "" {
		amqpPub, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			slog.Error("Failed to connect to AMQP broker", "error", err)
			os.Exit(1)
		}
		publisher = amqpPub
		slog.Info("Event publisher connected", "exchange", cfg.AMQPExchange)
	}
	defer publisher.Close()

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
	authenticator := auth.NewPasswordAuthenticator(store)

	server := httpapi.NewServer(
		service.NewAuthService(authenticator, jwtManager, store),
		service.NewGroupService(store),
		service.NewLedgerService(store, publisher),
		service.NewSettlementService(store, publisher),
		jwtManager,
		cfg.DefaultCurrency,
	)

	// h2c supports HTTP/2 clients without TLS; a proxy terminates TLS in
	// front of this process.
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h2c.NewHandler(server.Handler(), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Server starting", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		slog.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Server stopped")
}

func openStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.StorageBackend {
	case "postgres":
		return postgres.New(cfg.DatabaseURL)
	default:
		return sqlite.New(cfg.SQLiteDBPath)
	}
}
