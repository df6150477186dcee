package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdrive-assistant/gdrive-assistant/internal/logging"
)

func createGlobalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	ch := make(chan os.Signal, 1)
	go cleanupHandler(ch, cancel)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)

	return ctx
}

// cleanupHandler handles the SIGINT and SIGTERM signals.
func cleanupHandler(c <-chan os.Signal, cancel context.CancelFunc) {
	s := <-c
	logging.Info("shutdown_signal", "ingestd", "lifecycle", logging.Meta{
		"signal": s.String(),
	})
	cancel()
}
