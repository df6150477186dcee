package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/gdrive-assistant/gdrive-assistant/internal/errors"
	"github.com/gdrive-assistant/gdrive-assistant/internal/extract"
	"github.com/gdrive-assistant/gdrive-assistant/internal/health"
	"github.com/gdrive-assistant/gdrive-assistant/internal/ingest"
	"github.com/gdrive-assistant/gdrive-assistant/internal/limiter"
	"github.com/gdrive-assistant/gdrive-assistant/internal/logging"
	"github.com/gdrive-assistant/gdrive-assistant/internal/providers"
	"github.com/gdrive-assistant/gdrive-assistant/internal/storage"
	"github.com/gdrive-assistant/gdrive-assistant/internal/vectorstore"
)

func newRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the ingestion daemon",
		Long: `
The run command performs ingestion according to INGEST_MODE: a single pass
("once") or a polling loop ("loop"). SIGINT and SIGTERM stop the run
gracefully; files already handed to workers are accounted for before exit.
`,
		RunE: func(c *cobra.Command, _ []string) error {
			return runIngest(c)
		},
	}
}

func runIngest(c *cobra.Command) error {
	cfg := settings

	health.Start(cfg.HealthHost, cfg.IngestHealthPort, "ingestd")

	// container orchestration smoke test: stay alive briefly, then exit clean
	if cfg.SmokeTestSeconds > 0 {
		logging.Info("startup", "ingestd", "lifecycle", logging.Meta{
			"mode":               "smoke_test",
			"smoke_test_seconds": cfg.SmokeTestSeconds,
		})
		time.Sleep(time.Duration(cfg.SmokeTestSeconds * float64(time.Second)))
		return nil
	}

	stop := storage.StopWithContext(c.Context())
	lim := limiter.New(cfg.APIRPS, cfg.APIBurst, stop)

	embedder := vectorstore.NewRESTEmbedder(cfg.EmbedURL, cfg.EmbedModel)
	store, err := vectorstore.New(cfg, embedder)
	if err != nil {
		return errors.Fatalf("vector store init failed: %v", err)
	}
	if err := store.EnsureCollection(stop.Context()); err != nil {
		if errors.IsShutdown(err) {
			return err
		}
		return errors.Fatalf("vector store collection init failed: %v", err)
	}

	extract.Init(cfg)
	providers.Init(cfg)
	provider, err := providers.Get(cfg.StorageBackend)
	if err != nil {
		return err
	}

	svc := ingest.NewService(store, provider, extract.Default(), cfg, lim)

	logging.Info("startup", "ingestd", "lifecycle", logging.Meta{
		"mode":    cfg.IngestMode,
		"backend": provider.Name(),
	})

	done := make(chan error, 1)
	go func() {
		if cfg.IngestMode == "once" {
			_, err := svc.RunOnce(stop)
			done <- err
			return
		}
		done <- svc.RunLoop(stop)
	}()

	select {
	case err = <-done:
		return err
	case <-stop.Done():
	}

	// a stop was requested: wait up to the grace window for the workers to
	// account for the in-flight files, then give up
	select {
	case err = <-done:
		return err
	case <-time.After(time.Duration(cfg.GraceSeconds) * time.Second):
		logging.Warn("shutdown_grace_expired", "ingestd", "lifecycle", logging.Meta{
			"grace_seconds": cfg.GraceSeconds,
		})
		return errors.ErrShutdownRequested
	}
}
