package extract

import (
	"strings"

	"github.com/gdrive-assistant/gdrive-assistant/internal/errors"
)

// DocxExtractor handles modern Word documents by reading the main
// document part out of the OOXML archive.
type DocxExtractor struct{}

const docxMimeType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

func (e *DocxExtractor) MimeTypes() []string      { return []string{docxMimeType} }
func (e *DocxExtractor) MimePrefixes() []string   { return nil }
func (e *DocxExtractor) FileExtensions() []string { return []string{"docx"} }

func (e *DocxExtractor) CanExtract(meta map[string]interface{}) bool {
	return metaString(meta, "mimeType") == docxMimeType || metaExtension(meta) == "docx"
}

func (e *DocxExtractor) Extract(meta map[string]interface{}, ctx *Context) (Content, error) {
	if size := metaSize(meta); size > 0 && size > maxBytes(ctx.Settings.OfficeMaxFileSizeMB) {
		return sizeLimited("docx", size), nil
	}

	data, err := ctx.DownloadBinary(metaString(meta, "id"))
	if err != nil {
		return Content{}, err
	}

	text, err := docxText(data)
	if err != nil {
		return Content{}, err
	}

	return Content{
		Text:     strings.TrimSpace(text),
		FileType: "docx",
		Metadata: map[string]interface{}{
			"mime_type":       metaString(meta, "mimeType"),
			"file_size_bytes": len(data),
		},
	}, nil
}

func docxText(data []byte) (string, error) {
	_, part, err := ooxmlPart(data, "word/document.xml")
	if err != nil {
		return "", err
	}
	if part == nil {
		return "", errors.New("docx archive has no word/document.xml part")
	}

	rc, err := part.Open()
	if err != nil {
		return "", errors.Wrap(err, "zip part open")
	}
	defer rc.Close()

	lines, err := ooxmlBodyText(rc)
	if err != nil {
		return "", err
	}
	return strings.Join(lines, "\n"), nil
}

// DocExtractor handles legacy binary Word documents via the catdoc
// command line tool.
type DocExtractor struct{}

const docMimeType = "application/msword"

func (e *DocExtractor) MimeTypes() []string      { return []string{docMimeType} }
func (e *DocExtractor) MimePrefixes() []string   { return nil }
func (e *DocExtractor) FileExtensions() []string { return []string{"doc"} }

func (e *DocExtractor) CanExtract(meta map[string]interface{}) bool {
	return metaString(meta, "mimeType") == docMimeType || metaExtension(meta) == "doc"
}

func (e *DocExtractor) Extract(meta map[string]interface{}, ctx *Context) (Content, error) {
	if size := metaSize(meta); size > 0 && size > maxBytes(ctx.Settings.OfficeMaxFileSizeMB) {
		return sizeLimited("doc", size), nil
	}

	data, err := ctx.DownloadBinary(metaString(meta, "id"))
	if err != nil {
		return Content{}, err
	}

	text, err := runDecoder(data, ".doc", "catdoc", "-w", filePlaceholder)
	if err != nil {
		return Content{}, err
	}

	return Content{
		Text:     strings.TrimSpace(text),
		FileType: "doc",
		Metadata: map[string]interface{}{
			"mime_type":       metaString(meta, "mimeType"),
			"file_size_bytes": len(data),
		},
	}, nil
}
