package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/koyomi/koyomi/internal/adapters/driven/config/file"
	"github.com/koyomi/koyomi/internal/adapters/driving/cli"
	"github.com/koyomi/koyomi/internal/auth"
	"github.com/koyomi/koyomi/internal/core/ports/driven"
	"github.com/koyomi/koyomi/internal/core/ports/driving"
	"github.com/koyomi/koyomi/internal/core/services"
	"github.com/koyomi/koyomi/internal/logger"
	"github.com/koyomi/koyomi/internal/ratelimit"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// KOYOMI_CONFIG_DIR overrides ~/.koyomi, mainly for tests and CI.
	configStore, err := file.NewConfigStore(os.Getenv("KOYOMI_CONFIG_DIR"))
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}

	settingsService := services.NewSettingsService(configStore)
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}
	if settings.Verbose {
		logger.SetVerbose(true)
	}

	// Pick up config edits while a command runs; auth login can sit in
	// the browser flow for minutes.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go watchSettings(ctx, configStore, settingsService)

	registry := ratelimit.NewRegistry(settings.QuotaOverrides)
	authService := services.NewAuthService(settings.Auth, auth.NewFileStore())

	cli.Setup(cli.Services{
		Auth:     authService,
		Settings: settingsService,
		Registry: registry,
	})
	return cli.Execute()
}

// watchSettings re-applies live-tunable settings whenever the config
// file changes on disk. It returns once ctx is cancelled.
func watchSettings(ctx context.Context, store driven.ConfigStore, settingsService driving.SettingsService) {
	err := store.Watch(ctx, func() {
		current, err := settingsService.Get()
		if err != nil {
			logger.Warn("Settings reload failed: %v", err)
			return
		}
		logger.SetVerbose(current.Verbose)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn("Config watch stopped: %v", err)
	}
}
