// Package extract turns remote files into plain text. Each extractor handles
// one format family; the registry dispatches on MIME type with an ordered
// CanExtract fallback.
package extract

import (
	"github.com/gdrive-assistant/gdrive-assistant/internal/config"
	"github.com/gdrive-assistant/gdrive-assistant/internal/storage"
	"google.golang.org/api/docs/v1"
	"google.golang.org/api/sheets/v4"
	"google.golang.org/api/slides/v1"
)

// Content is the result of decoding one file.
type Content struct {
	// Text is the cleanly trimmed UTF-8 text. Empty for truly empty content;
	// the orchestrator maps empty to skipped_empty.
	Text string
	// FileType is the normalized tag, e.g. "pdf", "python", "gdoc".
	FileType string
	// Metadata is merged into the stored payload.
	Metadata map[string]interface{}
}

// Context carries everything an extractor may need for one file. It is built
// fresh per file by the storage provider. The Google clients are lazy: they
// are only constructed when an extractor first resolves them.
type Context struct {
	Limiter  storage.Limiter
	Stop     *storage.Stop
	Settings *config.Settings

	Docs   func() (*docs.Service, error)
	Sheets func() (*sheets.Service, error)
	Slides func() (*slides.Service, error)

	// Execute runs a remote call through the backoff executor.
	Execute func(op func() error) error
	// DownloadBinary fetches the raw bytes of a file by id.
	DownloadBinary func(fileID string) ([]byte, error)
	// DownloadExport exports a hosted document to the given MIME type.
	DownloadExport func(fileID, mimeType string) ([]byte, error)
}

// Extractor decodes one format family.
type Extractor interface {
	// MimeTypes are the exactly matched MIME types. A MIME type may be
	// claimed by at most one registered extractor.
	MimeTypes() []string
	// MimePrefixes are matched as prefixes when building listing filters.
	MimePrefixes() []string
	// FileExtensions are lowercased without the leading dot.
	FileExtensions() []string
	// CanExtract reports whether this extractor handles the file. Only
	// consulted when no exact MIME match exists.
	CanExtract(meta map[string]interface{}) bool
	// Extract decodes the file to text.
	Extract(meta map[string]interface{}, ctx *Context) (Content, error)
}

// sizeLimited returns the oversize refusal for a file of the given type.
// Oversize is not an error: the orchestrator records the file as skipped.
func sizeLimited(fileType string, size int64) Content {
	return Content{
		Text:     "",
		FileType: fileType,
		Metadata: map[string]interface{}{"skipped": "size_limit", "size_bytes": size},
	}
}

func maxBytes(mb float64) int64 {
	return int64(mb * 1024 * 1024)
}
