// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lightningnetwork/lnd/clock"
	"go.uber.org/zap"

	"wallet-sync-service/internal/chains/ton"
	"wallet-sync-service/internal/config"
	"wallet-sync-service/internal/domain"
	"wallet-sync-service/internal/events"
	"wallet-sync-service/internal/handler"
	"wallet-sync-service/internal/repository"
	"wallet-sync-service/internal/retry"
	"wallet-sync-service/internal/security"
	"wallet-sync-service/internal/server"
	"wallet-sync-service/internal/usecase"
	"wallet-sync-service/internal/worker"
)

func main() {
	// Load .env
	_ = godotenv.Load()

	logger := newLogger(os.Getenv("LOG_LEVEL"))
	defer logger.Sync()

	cfg, err := config.Load(logger)
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("wallet sync service stopped", zap.Error(err))
	}
}

func newLogger(level string) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if level == "debug" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic(fmt.Sprintf("failed to create logger: %v", err))
	}
	return logger
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	clk := clock.NewDefaultClock()

	// --- Storage ---
	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	// --- Ledger bridge ---
	ledger := ton.NewClient(cfg.Ledger.BridgeURL, cfg.Ledger.APIKey, cfg.Ledger.RequestTimeout, logger)

	// --- Keychain ---
	provider, err := newVaultProvider(cfg.Security)
	if err != nil {
		return err
	}
	keychain := security.NewKeychain(security.NewVault(provider, clk, logger), logger)
	if _, err := keychain.KeyID(ctx); err != nil {
		return fmt.Errorf("keychain not usable: %w", err)
	}

	// --- Events ---
	var publisher domain.EventPublisher = domain.NopPublisher{}
	if cfg.Kafka.Enabled {
		kafkaPublisher := events.NewKafkaPublisher(
			events.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger), clk, logger,
		)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher

		logger.Info("Kafka publisher initialized",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic),
		)
	}

	// --- Usecases ---
	retryPolicy := retry.NewPolicy(clk, logger)
	addresses := usecase.NewAddressBook(ledger)
	history := usecase.NewHistoryFetcher(ledger, retryPolicy, logger)

	syncUC := usecase.NewSyncUsecase(store, ledger, addresses, history, retryPolicy, publisher, logger)
	sendUC := usecase.NewSendUsecase(store, ledger, addresses, clk, publisher, logger)
	walletUC := usecase.NewWalletUsecase(store, ledger, keychain, addresses, logger)

	// --- Background sync ---
	if cfg.Sync.Enabled {
		monitor := worker.NewSyncMonitor(store, syncUC, cfg.Sync.Interval, clk, logger)
		go monitor.Start(ctx)
		defer monitor.Stop()
	}

	// --- Servers ---
	grpcServer := server.NewGRPCServer(
		handler.NewWalletHandler(syncUC, sendUC, walletUC, logger), cfg.GRPCAddr, logger,
	)
	httpServer := server.NewHTTPServer(cfg.HTTPAddr, handler.NewHTTPHandler(syncUC, walletUC, logger), logger)

	errCh := make(chan error, 2)
	go func() { errCh <- grpcServer.Start() }()
	go func() { errCh <- httpServer.ListenAndServe() }()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down gracefully...")
	case err := <-errCh:
		if err != nil {
			logger.Error("Server failed", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown incomplete", zap.Error(err))
	}
	grpcServer.Stop()

	return nil
}

// openStore builds the configured WalletRecordStore and its release func
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (domain.WalletRecordStore, func(), error) {
	switch cfg.Store.Backend {
	case config.StorePostgres:
		pool, err := config.ConnectDB(ctx, cfg.DB, logger)
		if err != nil {
			return nil, nil, err
		}
		repo := repository.NewPostgresWalletRepository(pool, logger)
		if err := repo.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return repo, pool.Close, nil

	case config.StoreRedis:
		client, err := config.ConnectRedis(ctx, cfg.Redis, logger)
		if err != nil {
			return nil, nil, err
		}
		repo := repository.NewRedisWalletRepository(client, cfg.Redis.Namespace, logger)
		return repo, closer(client, logger), nil

	case config.StoreMemory:
		logger.Warn("Using in-memory wallet store; state is lost on restart")
		return repository.NewMemoryWalletRepository(), func() {}, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Store.BoltPath), 0700); err != nil {
		return nil, nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	repo, err := repository.NewBoltWalletRepository(cfg.Store.BoltPath, logger)
	if err != nil {
		return nil, nil, err
	}
	return repo, closer(repo, logger), nil
}

func newVaultProvider(cfg config.SecurityConfig) (security.VaultProvider, error) {
	if cfg.VaultProvider == "file" {
		return security.NewFileVaultProvider(cfg.FileVaultDir, cfg.FileVaultKey)
	}
	return security.NewEnvVaultProvider(), nil
}

func closer(c io.Closer, logger *zap.Logger) func() {
	return func() {
		if err := c.Close(); err != nil {
			logger.Warn("Close failed", zap.Error(err))
		}
	}
}
