package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/inkpad-dev/inkpad/internal/adapter/driven/manifest"
	sqliteadapter "github.com/inkpad-dev/inkpad/internal/adapter/driven/sqlite"
	"github.com/inkpad-dev/inkpad/internal/application"
	"github.com/inkpad-dev/inkpad/internal/config"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"db_path", cfg.DBPath,
		"manifest_interval", cfg.ManifestInterval,
		"has_secret_key", cfg.HasSecretKey(),
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database opened", "path", cfg.DBPath)

	// 4. Run migrations on writer connection.
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	slog.Info("migrations complete")

	// 5. Wire adapters.
	settingsStore := sqliteadapter.NewSettingsRepo(db, cfg.SecretKey)
	if !cfg.HasSecretKey() {
		slog.Info("no secret key configured, stored passwords are unavailable")
	}

	// 6. Wire the account directory and the background manifest checker.
	// This process runs headless, so every flow is silent: nothing here may
	// prompt for credentials.
	accounts := application.NewAccountManager(settingsStore)
	accounts.OnAccountDeleted(func(id string) {
		slog.Info("account deleted", "account_id", id)
	})

	checker := application.NewUpdateChecker(accounts, manifest.NewDownloader())
	checker.OnSettingsChanged(func(id string) {
		slog.Info("account settings refreshed from publisher manifest", "account_id", id)
	})

	// 7. Keep manifests fresh until shutdown.
	checker.Start(ctx, cfg.ManifestInterval)

	slog.Info("shutting down")
	return nil
}
