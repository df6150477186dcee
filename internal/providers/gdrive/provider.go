// Package gdrive lists and downloads files from Google Drive through a
// service account. Folder scopes are walked iteratively with cycle
// protection; shortcuts are never followed.
package gdrive

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gdrive-assistant/gdrive-assistant/internal/config"
	"github.com/gdrive-assistant/gdrive-assistant/internal/errors"
	"github.com/gdrive-assistant/gdrive-assistant/internal/extract"
	"github.com/gdrive-assistant/gdrive-assistant/internal/logging"
	"github.com/gdrive-assistant/gdrive-assistant/internal/storage"
	"google.golang.org/api/drive/v3"
)

const (
	folderMimeType   = "application/vnd.google-apps.folder"
	shortcutMimeType = "application/vnd.google-apps.shortcut"

	listFields   = "nextPageToken, files(id, name, mimeType, modifiedTime, size, fileExtension, shortcutDetails)"
	listPageSize = 1000
)

// Provider implements the Google Drive storage backend.
type Provider struct {
	cfg     *config.Settings
	backoff BackoffConfig
	clients *clients
}

// New returns a provider configured from cfg. No network traffic happens
// until the first listing or download.
func New(cfg *config.Settings) *Provider {
	return &Provider{
		cfg: cfg,
		backoff: BackoffConfig{
			Retries:   cfg.BackoffRetries,
			BaseDelay: cfg.BackoffBaseDelay,
			MaxDelay:  cfg.BackoffMaxDelay,
		},
		clients: newClients(cfg.ServiceAccountJSON),
	}
}

func (p *Provider) Name() string { return config.BackendGoogleDrive }

// ListFiles enumerates the ingestable files in the configured scope: either
// everything the service account can see, or the configured folders walked
// recursively. Only files matching the filter are returned.
func (p *Provider) ListFiles(stop *storage.Stop, limiter storage.Limiter, filter storage.FileTypeFilter) ([]storage.FileMeta, error) {
	srv, err := p.clients.Drive()
	if err != nil {
		logging.Error("google_client_init_failed", "gdrive", "listing", err, nil)
		return nil, err
	}

	if p.cfg.AllAccessible {
		return p.listAllAccessible(srv, stop, limiter, filter)
	}
	return p.walkFolders(srv, stop, limiter, filter)
}

// listAllAccessible lists every matching file the service account can see,
// using a server-side type query built from the filter.
func (p *Provider) listAllAccessible(srv *drive.Service, stop *storage.Stop, limiter storage.Limiter, filter storage.FileTypeFilter) ([]storage.FileMeta, error) {
	logging.Warn("all_accessible_enabled", "gdrive", "listing", logging.Meta{
		"hint": "listing every file the service account can access",
	})

	query := "trashed=false"
	if terms := typeQueryTerms(filter); len(terms) > 0 {
		query = fmt.Sprintf("(%s) and trashed=false", strings.Join(terms, " or "))
	}

	var out []storage.FileMeta
	err := p.forEachPage(srv, stop, limiter, query, func(f *drive.File) {
		if meta, ok := p.ingestable(f, filter); ok {
			out = append(out, meta)
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// walkFolders walks the configured folder IDs iteratively. Folders reachable
// through more than one path are listed once.
func (p *Provider) walkFolders(srv *drive.Service, stop *storage.Stop, limiter storage.Limiter, filter storage.FileTypeFilter) ([]storage.FileMeta, error) {
	logging.Info("folder_recursive_scope", "gdrive", "listing", logging.Meta{
		"folders": p.cfg.FolderIDs,
	})

	stack := append([]string(nil), p.cfg.FolderIDs...)
	seen := make(map[string]bool, len(stack))

	var out []storage.FileMeta
	for len(stack) > 0 {
		if stop.IsSet() {
			return nil, errors.ErrShutdownRequested
		}

		folderID := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[folderID] {
			continue
		}
		seen[folderID] = true

		query := fmt.Sprintf("'%s' in parents and trashed=false", folderID)
		err := p.forEachPage(srv, stop, limiter, query, func(f *drive.File) {
			if f.MimeType == folderMimeType {
				if !seen[f.Id] {
					stack = append(stack, f.Id)
				}
				return
			}
			if meta, ok := p.ingestable(f, filter); ok {
				out = append(out, meta)
			}
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// forEachPage runs one files.list query to completion, feeding every file to
// fn. Each page request goes through the backoff executor.
func (p *Provider) forEachPage(srv *drive.Service, stop *storage.Stop, limiter storage.Limiter, query string, fn func(*drive.File)) error {
	pageToken := ""
	for {
		call := srv.Files.List().
			Q(query).
			Fields(listFields).
			PageSize(listPageSize).
			SupportsAllDrives(true).
			IncludeItemsFromAllDrives(true).
			Context(stop.Context())
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		var page *drive.FileList
		err := RunWithBackoff(stop, limiter, p.backoff, func() error {
			var err error
			page, err = call.Do()
			return err
		})
		if err != nil {
			return err
		}

		for _, f := range page.Files {
			fn(f)
		}

		if page.NextPageToken == "" {
			return nil
		}
		pageToken = page.NextPageToken
	}
}

// ingestable decides whether the file belongs in the listing result.
// Shortcuts and folders never do.
func (p *Provider) ingestable(f *drive.File, filter storage.FileTypeFilter) (storage.FileMeta, bool) {
	switch f.MimeType {
	case folderMimeType:
		return storage.FileMeta{}, false
	case shortcutMimeType:
		logging.Debug("shortcut_skipped", "gdrive", "listing", logging.Meta{
			"file_id": f.Id, "file_name": f.Name,
		})
		return storage.FileMeta{}, false
	}

	meta := toFileMeta(f)
	if !filter.Matches(meta.MimeType, meta.Extension) {
		return storage.FileMeta{}, false
	}
	return meta, true
}

func toFileMeta(f *drive.File) storage.FileMeta {
	ext := strings.ToLower(strings.TrimPrefix(f.FileExtension, "."))
	if ext == "" {
		if idx := strings.LastIndex(f.Name, "."); idx >= 0 && idx < len(f.Name)-1 {
			ext = strings.ToLower(f.Name[idx+1:])
		}
	}

	return storage.FileMeta{
		ID:           f.Id,
		Name:         f.Name,
		MimeType:     f.MimeType,
		ModifiedTime: f.ModifiedTime,
		Size:         f.Size,
		Extension:    ext,
		Raw: map[string]interface{}{
			"id":            f.Id,
			"name":          f.Name,
			"mimeType":      f.MimeType,
			"modifiedTime":  f.ModifiedTime,
			"size":          f.Size,
			"fileExtension": f.FileExtension,
		},
	}
}

// typeQueryTerms renders the filter as Drive query terms. Extensions match
// both the fileExtension attribute and a name suffix, because hosted files
// report no extension attribute.
func typeQueryTerms(filter storage.FileTypeFilter) []string {
	var terms []string
	for _, m := range filter.MimeTypes {
		terms = append(terms, fmt.Sprintf("mimeType='%s'", m))
	}
	for _, prefix := range filter.MimePrefixes {
		terms = append(terms, fmt.Sprintf("mimeType contains '%s'", prefix))
	}
	for _, ext := range filter.Extensions {
		terms = append(terms, fmt.Sprintf("fileExtension='%s'", ext))
		terms = append(terms, fmt.Sprintf("name contains '.%s'", ext))
	}
	return terms
}

// ExtractionContext wires the extractor-facing capabilities: lazy API
// clients, the backoff executor and the two download paths.
func (p *Provider) ExtractionContext(stop *storage.Stop, limiter storage.Limiter) *extract.Context {
	execute := func(op func() error) error {
		return RunWithBackoff(stop, limiter, p.backoff, op)
	}

	return &extract.Context{
		Limiter:  limiter,
		Stop:     stop,
		Settings: p.cfg,

		Docs:   p.clients.Docs,
		Sheets: p.clients.Sheets,
		Slides: p.clients.Slides,

		Execute: execute,
		DownloadBinary: func(fileID string) ([]byte, error) {
			return p.download(stop, limiter, fileID, "")
		},
		DownloadExport: func(fileID, mimeType string) ([]byte, error) {
			return p.download(stop, limiter, fileID, mimeType)
		},
	}
}

// download fetches file content, either raw or exported to a MIME type.
func (p *Provider) download(stop *storage.Stop, limiter storage.Limiter, fileID, exportMime string) ([]byte, error) {
	srv, err := p.clients.Drive()
	if err != nil {
		return nil, err
	}

	var data []byte
	err = RunWithBackoff(stop, limiter, p.backoff, func() error {
		var resp *http.Response
		var derr error
		if exportMime == "" {
			resp, derr = srv.Files.Get(fileID).SupportsAllDrives(true).Context(stop.Context()).Download()
		} else {
			resp, derr = srv.Files.Export(fileID, exportMime).Context(stop.Context()).Download()
		}
		if derr != nil {
			return derr
		}
		defer func() { _ = resp.Body.Close() }()

		data, derr = io.ReadAll(resp.Body)
		return derr
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}
