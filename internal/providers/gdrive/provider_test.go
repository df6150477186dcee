package gdrive

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gdrive-assistant/gdrive-assistant/internal/config"
	"github.com/gdrive-assistant/gdrive-assistant/internal/storage"
	"github.com/gdrive-assistant/gdrive-assistant/internal/test"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

type fakeFile struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	MimeType  string `json:"mimeType"`
	Extension string `json:"fileExtension,omitempty"`
}

// fakeDrive serves files.list for a folder tree. Children are keyed by the
// parent folder ID taken from the query.
type fakeDrive struct {
	children map[string][]fakeFile
	pageSize int
	requests int
}

func (d *fakeDrive) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d.requests++

		q := r.URL.Query().Get("q")
		parent := ""
		if idx := strings.Index(q, "' in parents"); idx > 0 {
			parent = q[strings.Index(q, "'")+1 : idx]
		}

		files := d.children[parent]

		offset := 0
		if tok := r.URL.Query().Get("pageToken"); tok != "" {
			offset, _ = strconv.Atoi(tok)
		}

		end := len(files)
		next := ""
		if d.pageSize > 0 && offset+d.pageSize < len(files) {
			end = offset + d.pageSize
			next = strconv.Itoa(end)
		}

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"files":         files[offset:end],
			"nextPageToken": next,
		})
	}
}

func newTestProvider(t *testing.T, d *fakeDrive, folderIDs []string) *Provider {
	t.Helper()

	srv := httptest.NewServer(d.handler())
	t.Cleanup(srv.Close)

	ds, err := drive.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(srv.Client()))
	test.OK(t, err)

	cfg := &config.Settings{
		FolderIDs: folderIDs,
	}
	p := New(cfg)
	p.backoff = BackoffConfig{Retries: 1, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}
	p.clients.drive = ds
	return p
}

func textFilter() storage.FileTypeFilter {
	return storage.FileTypeFilter{
		MimeTypes:    []string{"application/pdf"},
		MimePrefixes: []string{"text/"},
		Extensions:   []string{"txt", "md"},
	}
}

func listedIDs(files []storage.FileMeta) []string {
	ids := make([]string, 0, len(files))
	for _, f := range files {
		ids = append(ids, f.ID)
	}
	sort.Strings(ids)
	return ids
}

func TestListFilesWalksFolders(t *testing.T) {
	d := &fakeDrive{children: map[string][]fakeFile{
		"root": {
			{ID: "sub", Name: "sub", MimeType: folderMimeType},
			{ID: "f1", Name: "a.txt", MimeType: "text/plain", Extension: "txt"},
			{ID: "skip1", Name: "movie.mp4", MimeType: "video/mp4", Extension: "mp4"},
		},
		"sub": {
			{ID: "f2", Name: "b.pdf", MimeType: "application/pdf", Extension: "pdf"},
		},
	}}
	p := newTestProvider(t, d, []string{"root"})

	files, err := p.ListFiles(storage.NewStop(), &countingLimiter{}, textFilter())
	test.OK(t, err)
	test.Equals(t, []string{"f1", "f2"}, listedIDs(files))
}

func TestListFilesSkipsShortcuts(t *testing.T) {
	d := &fakeDrive{children: map[string][]fakeFile{
		"root": {
			{ID: "sc", Name: "link", MimeType: shortcutMimeType},
			{ID: "f1", Name: "a.txt", MimeType: "text/plain", Extension: "txt"},
		},
	}}
	p := newTestProvider(t, d, []string{"root"})

	files, err := p.ListFiles(storage.NewStop(), &countingLimiter{}, textFilter())
	test.OK(t, err)
	test.Equals(t, []string{"f1"}, listedIDs(files))
}

func TestListFilesFolderCycle(t *testing.T) {
	// a <-> b reference each other; the walk must terminate
	d := &fakeDrive{children: map[string][]fakeFile{
		"a": {
			{ID: "b", Name: "b", MimeType: folderMimeType},
			{ID: "f1", Name: "a.md", MimeType: "text/markdown", Extension: "md"},
		},
		"b": {
			{ID: "a", Name: "a", MimeType: folderMimeType},
			{ID: "f2", Name: "b.md", MimeType: "text/markdown", Extension: "md"},
		},
	}}
	p := newTestProvider(t, d, []string{"a"})

	files, err := p.ListFiles(storage.NewStop(), &countingLimiter{}, textFilter())
	test.OK(t, err)
	test.Equals(t, []string{"f1", "f2"}, listedIDs(files))
	// one listing per folder, no revisits
	test.Equals(t, 2, d.requests)
}

func TestListFilesPagination(t *testing.T) {
	files := make([]fakeFile, 7)
	for i := range files {
		files[i] = fakeFile{ID: strconv.Itoa(100 + i), Name: strconv.Itoa(i) + ".txt", MimeType: "text/plain", Extension: "txt"}
	}
	d := &fakeDrive{children: map[string][]fakeFile{"root": files}, pageSize: 3}
	p := newTestProvider(t, d, []string{"root"})

	got, err := p.ListFiles(storage.NewStop(), &countingLimiter{}, textFilter())
	test.OK(t, err)
	test.Equals(t, 7, len(got))
	test.Equals(t, 3, d.requests)
}

func TestListFilesStopShortCircuits(t *testing.T) {
	d := &fakeDrive{children: map[string][]fakeFile{"root": nil}}
	p := newTestProvider(t, d, []string{"root"})

	stop := storage.NewStop()
	stop.Set()

	_, err := p.ListFiles(stop, &countingLimiter{}, textFilter())
	test.Assert(t, err != nil, "expected a shutdown error")
	test.Equals(t, 0, d.requests)
}

func TestToFileMetaExtensionFallback(t *testing.T) {
	meta := toFileMeta(&drive.File{Id: "x", Name: "README.MD", MimeType: "text/markdown"})
	test.Equals(t, "md", meta.Extension)

	meta = toFileMeta(&drive.File{Id: "y", Name: "Makefile", MimeType: "text/plain"})
	test.Equals(t, "", meta.Extension)
}

func TestTypeQueryTerms(t *testing.T) {
	terms := typeQueryTerms(textFilter())
	joined := strings.Join(terms, " or ")

	test.Assert(t, strings.Contains(joined, "mimeType='application/pdf'"), "missing MIME term: %s", joined)
	test.Assert(t, strings.Contains(joined, "mimeType contains 'text/'"), "missing prefix term: %s", joined)
	test.Assert(t, strings.Contains(joined, "fileExtension='txt'"), "missing extension term: %s", joined)
	test.Assert(t, strings.Contains(joined, "name contains '.md'"), "missing name term: %s", joined)
}
