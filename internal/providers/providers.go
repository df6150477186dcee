// Package providers registers the storage backends by name.
package providers

import (
	"sync"

	"github.com/gdrive-assistant/gdrive-assistant/internal/config"
	"github.com/gdrive-assistant/gdrive-assistant/internal/errors"
	"github.com/gdrive-assistant/gdrive-assistant/internal/extract"
	"github.com/gdrive-assistant/gdrive-assistant/internal/providers/gdrive"
	"github.com/gdrive-assistant/gdrive-assistant/internal/storage"
)

// Provider is one storage backend: it enumerates ingestable files and
// supplies the extraction capabilities for them.
type Provider interface {
	Name() string
	ListFiles(stop *storage.Stop, limiter storage.Limiter, filter storage.FileTypeFilter) ([]storage.FileMeta, error)
	ExtractionContext(stop *storage.Stop, limiter storage.Limiter) *extract.Context
}

var (
	mu       sync.Mutex
	registry = make(map[string]Provider)
)

// Register adds a provider under its name. Registering the same name twice
// is a programmer error and panics.
func Register(p Provider) {
	mu.Lock()
	defer mu.Unlock()

	if _, ok := registry[p.Name()]; ok {
		panic("provider already registered: " + p.Name())
	}
	registry[p.Name()] = p
}

// Get returns the provider registered under name.
func Get(name string) (Provider, error) {
	mu.Lock()
	defer mu.Unlock()

	p, ok := registry[name]
	if !ok {
		return nil, errors.Fatalf("unknown storage backend %q", name)
	}
	return p, nil
}

var initOnce sync.Once

// Init registers the built-in providers. Idempotent.
func Init(cfg *config.Settings) {
	initOnce.Do(func() {
		Register(gdrive.New(cfg))
	})
}
