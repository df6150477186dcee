package extract

import (
	"fmt"
	"strings"

	"google.golang.org/api/slides/v1"
)

// GoogleSlidesExtractor reads hosted presentations through the Slides API,
// walking shapes, tables and nested groups on every slide.
type GoogleSlidesExtractor struct{}

const gslidesMimeType = "application/vnd.google-apps.presentation"

func (e *GoogleSlidesExtractor) MimeTypes() []string      { return []string{gslidesMimeType} }
func (e *GoogleSlidesExtractor) MimePrefixes() []string   { return nil }
func (e *GoogleSlidesExtractor) FileExtensions() []string { return nil }

func (e *GoogleSlidesExtractor) CanExtract(meta map[string]interface{}) bool {
	return metaString(meta, "mimeType") == gslidesMimeType
}

func (e *GoogleSlidesExtractor) Extract(meta map[string]interface{}, ctx *Context) (Content, error) {
	srv, err := ctx.Slides()
	if err != nil {
		return Content{}, err
	}

	presentationID := metaString(meta, "id")
	var presentation *slides.Presentation
	err = ctx.Execute(func() error {
		var err error
		presentation, err = srv.Presentations.Get(presentationID).Context(ctx.Stop.Context()).Do()
		return err
	})
	if err != nil {
		return Content{}, err
	}

	var lines []string
	for i, slide := range presentation.Slides {
		lines = append(lines, slideHeader(i+1))
		for _, element := range slide.PageElements {
			lines = append(lines, elementLines(element)...)
		}
		lines = append(lines, "")
	}

	return Content{
		Text:     strings.TrimSpace(strings.Join(lines, "\n")),
		FileType: "gslides",
		Metadata: map[string]interface{}{"slide_count": len(presentation.Slides)},
	}, nil
}

func elementLines(element *slides.PageElement) []string {
	var lines []string

	if element.Shape != nil && element.Shape.Text != nil {
		if text := textElementsText(element.Shape.Text.TextElements); text != "" {
			lines = append(lines, text)
		}
	}

	if element.Table != nil {
		for _, row := range element.Table.TableRows {
			var cells []string
			for _, cell := range row.TableCells {
				if cell.Text == nil {
					continue
				}
				if text := textElementsText(cell.Text.TextElements); text != "" {
					cells = append(cells, text)
				}
			}
			if len(cells) > 0 {
				lines = append(lines, strings.Join(cells, " | "))
			}
		}
	}

	if element.ElementGroup != nil {
		for _, child := range element.ElementGroup.Children {
			lines = append(lines, elementLines(child)...)
		}
	}

	return lines
}

func textElementsText(elements []*slides.TextElement) string {
	var parts []string
	for _, el := range elements {
		if el.TextRun == nil {
			continue
		}
		if content := strings.TrimSpace(el.TextRun.Content); content != "" {
			parts = append(parts, content)
		}
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

func slideHeader(n int) string {
	return fmt.Sprintf("=== SLIDE %d ===", n)
}
