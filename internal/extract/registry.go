package extract

import (
	"fmt"
	"sort"
	"sync"

	"github.com/gdrive-assistant/gdrive-assistant/internal/config"
	"github.com/gdrive-assistant/gdrive-assistant/internal/storage"
)

// Registry holds the registered extractors. Lookup prefers the exact MIME
// table; otherwise extractors are scanned in registration order. The registry
// is populated once at startup and read-only afterwards.
type Registry struct {
	extractors []Extractor
	mimes      map[string]Extractor
	prefixes   []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{mimes: make(map[string]Extractor)}
}

// Register adds an extractor. Registering a second extractor for the same
// exact MIME type is a programmer error and panics.
func (r *Registry) Register(e Extractor) {
	for _, mime := range e.MimeTypes() {
		if _, ok := r.mimes[mime]; ok {
			panic(fmt.Sprintf("extractor for MIME type %q already registered", mime))
		}
		r.mimes[mime] = e
	}
	r.prefixes = append(r.prefixes, e.MimePrefixes()...)
	r.extractors = append(r.extractors, e)
}

// Lookup returns the extractor for the file, or nil when the file is
// unsupported. Exact MIME match wins over the CanExtract scan; the scan
// returns the first registered extractor that accepts the file.
func (r *Registry) Lookup(meta map[string]interface{}) Extractor {
	if e, ok := r.mimes[metaString(meta, "mimeType")]; ok {
		return e
	}
	for _, e := range r.extractors {
		if e.CanExtract(meta) {
			return e
		}
	}
	return nil
}

// Filter aggregates the capabilities of all registered extractors into the
// declarative filter the provider lists against.
func (r *Registry) Filter() storage.FileTypeFilter {
	mimes := make([]string, 0, len(r.mimes))
	for mime := range r.mimes {
		mimes = append(mimes, mime)
	}
	sort.Strings(mimes)

	extSet := make(map[string]struct{})
	for _, e := range r.extractors {
		for _, ext := range e.FileExtensions() {
			extSet[ext] = struct{}{}
		}
	}
	exts := make([]string, 0, len(extSet))
	for ext := range extSet {
		exts = append(exts, ext)
	}
	sort.Strings(exts)

	prefixes := append([]string(nil), r.prefixes...)
	sort.Strings(prefixes)

	return storage.FileTypeFilter{
		MimeTypes:    mimes,
		MimePrefixes: prefixes,
		Extensions:   exts,
	}
}

var (
	defaultRegistry     = NewRegistry()
	defaultRegistryOnce sync.Once
)

// Default returns the process-wide registry.
func Default() *Registry {
	return defaultRegistry
}

// Init registers the built-in extractors into the default registry, honoring
// the per-format feature flags. Idempotent: repeated calls are no-ops.
func Init(cfg *config.Settings) {
	defaultRegistryOnce.Do(func() {
		registerBuiltin(defaultRegistry, cfg)
	})
}

func registerBuiltin(r *Registry, cfg *config.Settings) {
	if cfg.GDocsEnabled {
		r.Register(&GoogleDocsExtractor{})
	}
	if cfg.GSheetsEnabled {
		r.Register(&GoogleSheetsExtractor{})
	}
	if cfg.GSlidesEnabled {
		r.Register(&GoogleSlidesExtractor{})
	}
	if cfg.TextEnabled {
		r.Register(&TextExtractor{})
	}
	if cfg.PDFEnabled {
		r.Register(&PDFExtractor{})
	}
	if cfg.DocxEnabled {
		r.Register(&DocxExtractor{})
	}
	if cfg.DocEnabled {
		r.Register(&DocExtractor{})
	}
	if cfg.XlsxEnabled {
		r.Register(&XlsxExtractor{})
	}
	if cfg.XlsEnabled {
		r.Register(&XlsExtractor{})
	}
	if cfg.PptxEnabled {
		r.Register(&PptxExtractor{})
	}
	if cfg.PptEnabled {
		r.Register(&PptExtractor{})
	}
}
