package extract

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/gdrive-assistant/gdrive-assistant/internal/config"
	"github.com/gdrive-assistant/gdrive-assistant/internal/errors"
	"github.com/ledongthuc/pdf"
)

// PDFExtractor handles PDF documents with two pluggable engines: an
// in-process reader and the poppler pdftotext subprocess.
type PDFExtractor struct{}

var pdfMimeTypes = []string{"application/pdf", "application/x-pdf"}

func (e *PDFExtractor) MimeTypes() []string      { return append([]string(nil), pdfMimeTypes...) }
func (e *PDFExtractor) MimePrefixes() []string   { return nil }
func (e *PDFExtractor) FileExtensions() []string { return []string{"pdf"} }

func (e *PDFExtractor) CanExtract(meta map[string]interface{}) bool {
	mime := metaString(meta, "mimeType")
	for _, m := range pdfMimeTypes {
		if mime == m {
			return true
		}
	}
	return metaExtension(meta) == "pdf"
}

func (e *PDFExtractor) Extract(meta map[string]interface{}, ctx *Context) (Content, error) {
	if size := metaSize(meta); size > 0 && size > maxBytes(ctx.Settings.PDFMaxFileSizeMB) {
		return sizeLimited("pdf", size), nil
	}

	data, err := ctx.DownloadBinary(metaString(meta, "id"))
	if err != nil {
		return Content{}, err
	}

	engine := ctx.Settings.PDFEngine
	maxPages := ctx.Settings.PDFMaxPages

	var text string
	switch engine {
	case config.PDFEngineNative:
		text, err = pdfTextNative(data, maxPages)
	case config.PDFEnginePdftotext:
		text, err = pdfTextPdftotext(data, maxPages)
	default:
		return Content{}, errors.Errorf("unsupported PDF extraction engine: %q", engine)
	}
	if err != nil {
		return Content{}, err
	}

	return Content{
		Text:     strings.TrimSpace(text),
		FileType: "pdf",
		Metadata: map[string]interface{}{
			"file_size_bytes": len(data),
			"engine":          engine,
		},
	}, nil
}

func pdfTextNative(data []byte, maxPages int) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", errors.Wrap(err, "pdf.NewReader")
	}

	var texts []string
	total := reader.NumPage()
	for i := 1; i <= total; i++ {
		if maxPages > 0 && i > maxPages {
			texts = append(texts, pageLimitMarker(maxPages))
			break
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// tolerate a broken page, the rest of the document is still useful
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			texts = append(texts, text)
		}
	}
	return strings.Join(texts, "\n\n"), nil
}

func pdfTextPdftotext(data []byte, maxPages int) (string, error) {
	argv := []string{"-layout"}
	if maxPages > 0 {
		argv = append(argv, "-l", strconv.Itoa(maxPages))
	}
	argv = append(argv, filePlaceholder, "-")
	return runDecoder(data, ".pdf", "pdftotext", argv...)
}

func pageLimitMarker(maxPages int) string {
	return fmt.Sprintf("... (limited to %d pages)", maxPages)
}
