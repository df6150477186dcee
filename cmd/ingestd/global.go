package main

import (
	"github.com/gdrive-assistant/gdrive-assistant/internal/config"
	"github.com/gdrive-assistant/gdrive-assistant/internal/logging"
)

// settings is the validated configuration, loaded once before any command
// runs.
var settings *config.Settings

func globalInit(command string) error {
	if command == "help" || command == "version" || command == "__complete" {
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	settings = cfg

	logging.Setup(cfg.LogLevel, cfg.LogPlainText)
	logging.Info("config", "ingestd", "lifecycle", cfg.SafeDump())
	return nil
}
