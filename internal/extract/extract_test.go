package extract

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/gdrive-assistant/gdrive-assistant/internal/config"
	"github.com/gdrive-assistant/gdrive-assistant/internal/errors"
	"github.com/gdrive-assistant/gdrive-assistant/internal/storage"
	"github.com/gdrive-assistant/gdrive-assistant/internal/test"
)

func testSettings() *config.Settings {
	return &config.Settings{
		MaxRowsPerSheet:     100,
		ExcelMaxSheets:      10,
		PDFMaxPages:         50,
		PDFEngine:           config.PDFEngineNative,
		TextMaxFileSizeMB:   1,
		PDFMaxFileSizeMB:    1,
		OfficeMaxFileSizeMB: 1,
	}
}

// testContext returns an extraction context backed by an in-memory file map.
func testContext(cfg *config.Settings, files map[string][]byte) *Context {
	if cfg == nil {
		cfg = testSettings()
	}
	return &Context{
		Settings: cfg,
		Stop:     storage.NewStop(),
		Execute:  func(op func() error) error { return op() },
		DownloadBinary: func(fileID string) ([]byte, error) {
			data, ok := files[fileID]
			if !ok {
				return nil, errors.Errorf("no such file %q", fileID)
			}
			return data, nil
		},
	}
}

func buildZip(t testing.TB, parts map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range parts {
		w, err := zw.Create(name)
		test.OK(t, err)
		_, err = w.Write([]byte(body))
		test.OK(t, err)
	}
	test.OK(t, zw.Close())
	return buf.Bytes()
}

type fakeExtractor struct {
	mimes    []string
	prefixes []string
	exts     []string
	accepts  func(meta map[string]interface{}) bool
}

func (e *fakeExtractor) MimeTypes() []string      { return e.mimes }
func (e *fakeExtractor) MimePrefixes() []string   { return e.prefixes }
func (e *fakeExtractor) FileExtensions() []string { return e.exts }

func (e *fakeExtractor) CanExtract(meta map[string]interface{}) bool {
	if e.accepts == nil {
		return false
	}
	return e.accepts(meta)
}

func (e *fakeExtractor) Extract(meta map[string]interface{}, ctx *Context) (Content, error) {
	return Content{}, nil
}

func TestRegistryLookupExactMimeWins(t *testing.T) {
	r := NewRegistry()

	greedy := &fakeExtractor{accepts: func(map[string]interface{}) bool { return true }}
	exact := &fakeExtractor{mimes: []string{"application/pdf"}}
	r.Register(greedy)
	r.Register(exact)

	got := r.Lookup(map[string]interface{}{"mimeType": "application/pdf"})
	test.Assert(t, got == Extractor(exact), "expected the exact MIME extractor, got %T", got)
}

func TestRegistryLookupScanOrder(t *testing.T) {
	r := NewRegistry()

	first := &fakeExtractor{accepts: func(map[string]interface{}) bool { return true }}
	second := &fakeExtractor{accepts: func(map[string]interface{}) bool { return true }}
	r.Register(first)
	r.Register(second)

	got := r.Lookup(map[string]interface{}{"mimeType": "application/octet-stream"})
	test.Assert(t, got == Extractor(first), "expected the first registered extractor, got %T", got)
}

func TestRegistryLookupUnsupported(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeExtractor{mimes: []string{"application/pdf"}})

	got := r.Lookup(map[string]interface{}{"mimeType": "video/mp4"})
	test.Assert(t, got == nil, "expected nil for unsupported file, got %T", got)
}

func TestRegistryDuplicateMimePanics(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeExtractor{mimes: []string{"application/pdf"}})

	defer func() {
		test.Assert(t, recover() != nil, "expected panic on duplicate MIME registration")
	}()
	r.Register(&fakeExtractor{mimes: []string{"application/pdf"}})
}

func TestRegistryFilter(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeExtractor{
		mimes:    []string{"application/pdf"},
		exts:     []string{"pdf"},
		prefixes: []string{"text/"},
	})
	r.Register(&fakeExtractor{
		mimes: []string{"application/json"},
		exts:  []string{"json", "txt"},
	})

	filter := r.Filter()
	test.Equals(t, []string{"application/json", "application/pdf"}, filter.MimeTypes)
	test.Equals(t, []string{"text/"}, filter.MimePrefixes)
	test.Equals(t, []string{"json", "pdf", "txt"}, filter.Extensions)
}

func TestRegisterBuiltinHonorsFlags(t *testing.T) {
	cfg := testSettings()
	cfg.TextEnabled = true
	cfg.PDFEnabled = true

	r := NewRegistry()
	registerBuiltin(r, cfg)

	test.Assert(t, r.Lookup(map[string]interface{}{"mimeType": "application/pdf"}) != nil,
		"expected PDF to be supported")
	test.Assert(t, r.Lookup(map[string]interface{}{"mimeType": "text/plain"}) != nil,
		"expected plain text to be supported")
	test.Assert(t, r.Lookup(map[string]interface{}{"mimeType": docxMimeType}) == nil,
		"expected docx to be unsupported while disabled")
}

func TestMetaSize(t *testing.T) {
	tests := []struct {
		value interface{}
		want  int64
	}{
		{int64(42), 42},
		{17, 17},
		{float64(99), 99},
		{"1024", 1024},
		{" 7 ", 7},
		{"not-a-number", 0},
		{nil, 0},
	}
	for _, tc := range tests {
		got := metaSize(map[string]interface{}{"size": tc.value})
		test.Equals(t, tc.want, got)
	}
}

func TestMetaExtension(t *testing.T) {
	tests := []struct {
		meta map[string]interface{}
		want string
	}{
		{map[string]interface{}{"fileExtension": "PDF"}, "pdf"},
		{map[string]interface{}{"name": "notes.final.TXT"}, "txt"},
		{map[string]interface{}{"name": "Makefile"}, ""},
		{map[string]interface{}{"name": "trailing."}, ""},
		{map[string]interface{}{}, ""},
	}
	for _, tc := range tests {
		test.Equals(t, tc.want, metaExtension(tc.meta))
	}
}
