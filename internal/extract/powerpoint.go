package extract

import (
	"archive/zip"
	"fmt"
	"strings"

	"github.com/gdrive-assistant/gdrive-assistant/internal/errors"
)

// PptxExtractor handles modern PowerPoint presentations by reading
// each slide part out of the OOXML archive, in slide order.
type PptxExtractor struct{}

const pptxMimeType = "application/vnd.openxmlformats-officedocument.presentationml.presentation"

func (e *PptxExtractor) MimeTypes() []string      { return []string{pptxMimeType} }
func (e *PptxExtractor) MimePrefixes() []string   { return nil }
func (e *PptxExtractor) FileExtensions() []string { return []string{"pptx"} }

func (e *PptxExtractor) CanExtract(meta map[string]interface{}) bool {
	return metaString(meta, "mimeType") == pptxMimeType || metaExtension(meta) == "pptx"
}

func (e *PptxExtractor) Extract(meta map[string]interface{}, ctx *Context) (Content, error) {
	if size := metaSize(meta); size > 0 && size > maxBytes(ctx.Settings.OfficeMaxFileSizeMB) {
		return sizeLimited("pptx", size), nil
	}

	data, err := ctx.DownloadBinary(metaString(meta, "id"))
	if err != nil {
		return Content{}, err
	}

	text, slideCount, err := pptxText(data)
	if err != nil {
		return Content{}, err
	}

	return Content{
		Text:     strings.TrimSpace(text),
		FileType: "pptx",
		Metadata: map[string]interface{}{
			"mime_type":       metaString(meta, "mimeType"),
			"file_size_bytes": len(data),
			"slide_count":     slideCount,
		},
	}, nil
}

func pptxText(data []byte) (string, int, error) {
	zr, _, err := ooxmlPart(data, "[Content_Types].xml")
	if err != nil {
		return "", 0, err
	}

	parts := make(map[string]*zip.File)
	for _, f := range zr.File {
		var n int
		if _, err := fmt.Sscanf(f.Name, "ppt/slides/slide%d.xml", &n); err == nil {
			parts[f.Name] = f
		}
	}
	if len(parts) == 0 {
		return "", 0, errors.New("pptx archive has no slide parts")
	}

	var lines []string
	slides := 0
	for i := 1; ; i++ {
		part, ok := parts[fmt.Sprintf("ppt/slides/slide%d.xml", i)]
		if !ok {
			break
		}

		rc, err := part.Open()
		if err != nil {
			return "", 0, errors.Wrap(err, "zip part open")
		}
		slideLines, err := ooxmlBodyText(rc)
		rc.Close()
		if err != nil {
			return "", 0, err
		}

		lines = append(lines, slideHeader(i))
		lines = append(lines, slideLines...)
		lines = append(lines, "")
		slides++
	}

	return strings.Join(lines, "\n"), slides, nil
}

// PptExtractor handles legacy binary PowerPoint presentations via
// the catppt command line tool.
type PptExtractor struct{}

const pptMimeType = "application/vnd.ms-powerpoint"

func (e *PptExtractor) MimeTypes() []string      { return []string{pptMimeType} }
func (e *PptExtractor) MimePrefixes() []string   { return nil }
func (e *PptExtractor) FileExtensions() []string { return []string{"ppt"} }

func (e *PptExtractor) CanExtract(meta map[string]interface{}) bool {
	return metaString(meta, "mimeType") == pptMimeType || metaExtension(meta) == "ppt"
}

func (e *PptExtractor) Extract(meta map[string]interface{}, ctx *Context) (Content, error) {
	if size := metaSize(meta); size > 0 && size > maxBytes(ctx.Settings.OfficeMaxFileSizeMB) {
		return sizeLimited("ppt", size), nil
	}

	data, err := ctx.DownloadBinary(metaString(meta, "id"))
	if err != nil {
		return Content{}, err
	}

	text, err := runDecoder(data, ".ppt", "catppt", filePlaceholder)
	if err != nil {
		return Content{}, err
	}

	return Content{
		Text:     strings.TrimSpace(text),
		FileType: "ppt",
		Metadata: map[string]interface{}{
			"mime_type":       metaString(meta, "mimeType"),
			"file_size_bytes": len(data),
		},
	}, nil
}
