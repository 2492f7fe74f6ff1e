package main

import (
	"log/slog"
	"os"

	"github.com/niksmo/catalog/config"
	"github.com/niksmo/catalog/internal/adapter/storage"
	"github.com/niksmo/catalog/internal/app"
	"github.com/spf13/pflag"
)

const verboseFlag = "verbose"

func main() {
	pflag.CommandLine.ParseErrorsWhitelist.UnknownFlags = true
	verbose := pflag.BoolP(verboseFlag, "v", false, "log every applied migration")
	_ = pflag.String("config", "", "config file")
	pflag.Parse()

	cfg := config.Load()

	dbCfg := app.StorageConfig(cfg)
	slog.Info("applying migrations", "driver", dbCfg.Driver)

	if err := storage.Migrate(dbCfg, *verbose); err != nil {
		slog.Error("failed to migrate", "err", err)
		fallDown()
	}
}

func fallDown() {
	os.Exit(2)
}
