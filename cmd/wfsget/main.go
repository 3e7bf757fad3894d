// Command wfsget downloads complete datasets from WFS servers.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/opentrees/wfsget/internal/adapters/driven/config/file"
	"github.com/opentrees/wfsget/internal/adapters/driven/httpfetch"
	"github.com/opentrees/wfsget/internal/adapters/driven/storage/localfs"
	"github.com/opentrees/wfsget/internal/adapters/driven/storage/memory"
	"github.com/opentrees/wfsget/internal/adapters/driven/storage/sqlite"
	"github.com/opentrees/wfsget/internal/adapters/driving/cli"
	"github.com/opentrees/wfsget/internal/core/domain"
	"github.com/opentrees/wfsget/internal/core/ports/driven"
	"github.com/opentrees/wfsget/internal/core/services"
	"github.com/opentrees/wfsget/internal/logger"
)

// version is set via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	configStore, err := file.NewConfigStore("")
	if err != nil {
		logger.Warn("config unavailable, using defaults: %v", err)
		return runWith(memory.NewConfigStore())
	}
	return runWith(configStore)
}

func runWith(configStore driven.ConfigStore) error {
	settingsService := services.NewSettingsService(configStore)

	// Fall back to defaults so "config set" can repair invalid settings.
	settings, err := settingsService.Get()
	if err != nil {
		logger.Warn("%v; using defaults", err)
		settings = domain.DefaultEngineSettings()
	}

	var runs driven.RunStore
	store, err := sqlite.NewStore("")
	if err != nil {
		logger.Warn("run history unavailable: %v", err)
		runs = memory.NewRunStore()
	} else {
		defer func() { _ = store.Close() }()
		runs = store.RunStore()
	}

	fetcher := httpfetch.New(httpfetch.OptionsFromSettings(settings))
	acquisitionService := services.NewAcquisitionService(fetcher, localfs.New(), runs, settings)

	cli.SetServices(acquisitionService, settingsService)
	cli.SetVersion(version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return cli.ExecuteContext(ctx)
}
