// Package ingest orchestrates one ingestion run: list the scope, fan the
// files out to a bounded worker pool, extract, and index into the vector
// store. A run always accounts for every listed file, even when it is
// interrupted mid-way.
package ingest

import (
	"context"
	"strings"
	"time"

	"github.com/gdrive-assistant/gdrive-assistant/internal/config"
	"github.com/gdrive-assistant/gdrive-assistant/internal/errors"
	"github.com/gdrive-assistant/gdrive-assistant/internal/extract"
	"github.com/gdrive-assistant/gdrive-assistant/internal/logging"
	"github.com/gdrive-assistant/gdrive-assistant/internal/storage"
	"golang.org/x/sync/errgroup"
)

// Store is the vector index the service writes to.
type Store interface {
	UpsertDocument(ctx context.Context, docID, text string, payload map[string]interface{}) (int, error)
	DeleteByFileID(ctx context.Context, fileID string) error
	ExistsFileMtime(ctx context.Context, fileID, modifiedTime string) (bool, error)
}

// Provider is the storage backend the service reads from.
type Provider interface {
	Name() string
	ListFiles(stop *storage.Stop, limiter storage.Limiter, filter storage.FileTypeFilter) ([]storage.FileMeta, error)
	ExtractionContext(stop *storage.Stop, limiter storage.Limiter) *extract.Context
}

// Service runs ingestion over one provider into one store.
type Service struct {
	store    Store
	provider Provider
	registry *extract.Registry
	cfg      *config.Settings
	limiter  storage.Limiter
}

func NewService(store Store, provider Provider, registry *extract.Registry, cfg *config.Settings, limiter storage.Limiter) *Service {
	return &Service{
		store:    store,
		provider: provider,
		registry: registry,
		cfg:      cfg,
		limiter:  limiter,
	}
}

// ingestOne processes a single file and returns its outcome. Failures are
// logged here with file context; the caller only aggregates.
func (s *Service) ingestOne(stop *storage.Stop, meta storage.FileMeta) Status {
	if stop.IsSet() {
		return StatusSkippedStopped
	}

	ctx := stop.Context()

	// change detection: same id + same version token means nothing to do
	if meta.ModifiedTime != "" {
		exists, err := s.store.ExistsFileMtime(ctx, meta.ID, meta.ModifiedTime)
		if err != nil {
			if errors.IsShutdown(err) {
				return StatusSkippedStopped
			}
			logging.Error("ingest_failed", "ingest", "worker", err, fileMeta(meta))
			return StatusFailed
		}
		if exists {
			return StatusSkippedUnchanged
		}
	}

	bag := meta.ExtractorMeta()
	extractor := s.registry.Lookup(bag)
	if extractor == nil {
		logging.Debug("unsupported_file_type", "ingest", "worker", fileMeta(meta))
		return StatusSkippedUnsupported
	}

	content, err := extractor.Extract(bag, s.provider.ExtractionContext(stop, s.limiter))
	if err != nil {
		if errors.IsShutdown(err) {
			return StatusSkippedStopped
		}
		logging.Error("extraction_failed", "ingest", "worker", err, fileMeta(meta))
		return StatusFailed
	}

	if stop.IsSet() {
		return StatusSkippedStopped
	}
	if strings.TrimSpace(content.Text) == "" {
		return StatusSkippedEmpty
	}

	payload := map[string]interface{}{
		"file_id":       meta.ID,
		"file_name":     meta.Name,
		"file_type":     content.FileType,
		"modified_time": meta.ModifiedTime,
		"source":        s.provider.Name(),
	}
	for k, v := range content.Metadata {
		payload[k] = v
	}

	// delete first so chunks beyond the new chunk count do not linger
	if err := s.store.DeleteByFileID(ctx, meta.ID); err != nil {
		if errors.IsShutdown(err) {
			return StatusSkippedStopped
		}
		logging.Error("ingest_failed", "ingest", "worker", err, fileMeta(meta))
		return StatusFailed
	}
	points, err := s.store.UpsertDocument(ctx, meta.ID, content.Text, payload)
	if err != nil {
		if errors.IsShutdown(err) {
			return StatusSkippedStopped
		}
		logging.Error("ingest_failed", "ingest", "worker", err, fileMeta(meta))
		return StatusFailed
	}

	logging.Info("indexed", "ingest", "worker", logging.Meta{
		"file_id":   meta.ID,
		"file_name": meta.Name,
		"file_type": content.FileType,
		"points":    points,
	})
	return StatusOK
}

type result struct {
	meta   storage.FileMeta
	status Status
}

// RunOnce performs one full ingestion pass over the provider's scope.
func (s *Service) RunOnce(stop *storage.Stop) (Stats, error) {
	started := time.Now()
	stats := Stats{}

	files, err := s.provider.ListFiles(stop, s.limiter, s.registry.Filter())
	if err != nil {
		if !errors.IsShutdown(err) {
			logging.Error("ingest_scope_failed", "ingest", "run", err, nil)
		}
		return stats, err
	}

	stats.Total = len(files)
	if stats.Total == 0 {
		logging.Info("nothing_to_ingest", "ingest", "run", nil)
		return stats, nil
	}

	workers := s.cfg.Workers
	if workers > stats.Total {
		workers = stats.Total
	}
	logging.Info("parallelism", "ingest", "run", logging.Meta{
		"workers": workers,
		"total":   stats.Total,
	})

	jobs := make(chan storage.FileMeta)
	results := make(chan result)

	// every listed file is fed through; after a stop the workers drain the
	// remaining jobs as skipped_stopped, so the accounting stays exact
	go func() {
		defer close(jobs)
		for _, f := range files {
			jobs <- f
		}
	}()

	var g errgroup.Group
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for f := range jobs {
				results <- result{meta: f, status: s.ingestOne(stop, f)}
			}
			return nil
		})
	}
	go func() {
		_ = g.Wait()
		close(results)
	}()

	lastProgress := time.Now()
	progressEvery := time.Duration(s.cfg.ProgressSeconds) * time.Second
	for res := range results {
		stats.count(res.status)

		if stats.Completed%s.cfg.ProgressFiles == 0 || time.Since(lastProgress) >= progressEvery {
			s.logProgress(&stats)
			lastProgress = time.Now()
		}
	}
	s.logProgress(&stats)

	stats.Stopped = stop.IsSet()
	stats.ElapsedMS = time.Since(started).Milliseconds()
	logging.Info("ingest_done", "ingest", "run", logging.Meta{
		"completed":           stats.Completed,
		"total":               stats.Total,
		"ok":                  stats.OK,
		"fail":                stats.Failed,
		"skipped_unchanged":   stats.SkippedUnchanged,
		"skipped_empty":       stats.SkippedEmpty,
		"skipped_unsupported": stats.SkippedUnsupported,
		"skipped_stopped":     stats.SkippedStopped,
		"workers":             workers,
		"elapsed_ms":          stats.ElapsedMS,
		"stopped":             stats.Stopped,
		"mode":                s.cfg.IngestMode,
	})
	return stats, nil
}

// RunLoop runs passes until the stop signal is set, sleeping the poll
// interval between passes. A pass that fails outright (the listing could
// not be obtained) ends the loop with that error so the process exits
// non-zero and the orchestrator can restart it; per-file failures are
// already absorbed inside the pass.
func (s *Service) RunLoop(stop *storage.Stop) error {
	for {
		if _, err := s.RunOnce(stop); err != nil && !errors.IsShutdown(err) {
			logging.Error("ingest_run_failed", "ingest", "run", err, nil)
			return err
		}

		if stop.IsSet() {
			return nil
		}

		logging.Info("polling", "ingest", "run", logging.Meta{
			"poll_seconds": s.cfg.PollSeconds,
		})
		select {
		case <-stop.Done():
			return nil
		case <-time.After(time.Duration(s.cfg.PollSeconds) * time.Second):
		}
	}
}

func (s *Service) logProgress(stats *Stats) {
	logging.Info("progress", "ingest", "run", logging.Meta{
		"completed":           stats.Completed,
		"total":               stats.Total,
		"ok":                  stats.OK,
		"fail":                stats.Failed,
		"skipped_unchanged":   stats.SkippedUnchanged,
		"skipped_empty":       stats.SkippedEmpty,
		"skipped_unsupported": stats.SkippedUnsupported,
		"skipped_stopped":     stats.SkippedStopped,
	})
}

func fileMeta(meta storage.FileMeta) logging.Meta {
	return logging.Meta{
		"file_id":   meta.ID,
		"file_name": meta.Name,
		"mime_type": meta.MimeType,
	}
}
