package extract

import (
	"strings"

	"google.golang.org/api/docs/v1"
)

// GoogleDocsExtractor reads hosted documents through the Docs API.
type GoogleDocsExtractor struct{}

const gdocMimeType = "application/vnd.google-apps.document"

func (e *GoogleDocsExtractor) MimeTypes() []string      { return []string{gdocMimeType} }
func (e *GoogleDocsExtractor) MimePrefixes() []string   { return nil }
func (e *GoogleDocsExtractor) FileExtensions() []string { return nil }

func (e *GoogleDocsExtractor) CanExtract(meta map[string]interface{}) bool {
	return metaString(meta, "mimeType") == gdocMimeType
}

func (e *GoogleDocsExtractor) Extract(meta map[string]interface{}, ctx *Context) (Content, error) {
	srv, err := ctx.Docs()
	if err != nil {
		return Content{}, err
	}

	docID := metaString(meta, "id")
	var doc *docs.Document
	err = ctx.Execute(func() error {
		var err error
		doc, err = srv.Documents.Get(docID).Context(ctx.Stop.Context()).Do()
		return err
	})
	if err != nil {
		return Content{}, err
	}

	var out strings.Builder
	if doc.Body != nil {
		for _, el := range doc.Body.Content {
			if el.Paragraph == nil {
				continue
			}
			for _, pe := range el.Paragraph.Elements {
				if pe.TextRun != nil {
					out.WriteString(pe.TextRun.Content)
				}
			}
		}
	}

	// the Docs API uses vertical tabs for soft line breaks
	text := strings.TrimSpace(strings.ReplaceAll(out.String(), "\v", "\n"))
	return Content{Text: text, FileType: "gdoc", Metadata: map[string]interface{}{}}, nil
}
