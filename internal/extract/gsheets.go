package extract

import (
	"fmt"
	"strings"

	"google.golang.org/api/sheets/v4"
)

// GoogleSheetsExtractor reads hosted spreadsheets through the Sheets API, one
// values request per sheet, bounded by the configured row limit.
type GoogleSheetsExtractor struct{}

const gsheetMimeType = "application/vnd.google-apps.spreadsheet"

func (e *GoogleSheetsExtractor) MimeTypes() []string      { return []string{gsheetMimeType} }
func (e *GoogleSheetsExtractor) MimePrefixes() []string   { return nil }
func (e *GoogleSheetsExtractor) FileExtensions() []string { return nil }

func (e *GoogleSheetsExtractor) CanExtract(meta map[string]interface{}) bool {
	return metaString(meta, "mimeType") == gsheetMimeType
}

func (e *GoogleSheetsExtractor) Extract(meta map[string]interface{}, ctx *Context) (Content, error) {
	srv, err := ctx.Sheets()
	if err != nil {
		return Content{}, err
	}

	spreadsheetID := metaString(meta, "id")
	var spreadsheet *sheets.Spreadsheet
	err = ctx.Execute(func() error {
		var err error
		spreadsheet, err = srv.Spreadsheets.Get(spreadsheetID).Context(ctx.Stop.Context()).Do()
		return err
	})
	if err != nil {
		return Content{}, err
	}

	var lines []string
	for _, sheet := range spreadsheet.Sheets {
		if sheet == nil || sheet.Properties == nil {
			continue
		}
		title := sheet.Properties.Title
		if title == "" {
			title = "Sheet"
		}

		rng := fmt.Sprintf("'%s'!A1:ZZ%d", title, ctx.Settings.MaxRowsPerSheet)
		var resp *sheets.ValueRange
		err = ctx.Execute(func() error {
			var err error
			resp, err = srv.Spreadsheets.Values.Get(spreadsheetID, rng).Context(ctx.Stop.Context()).Do()
			return err
		})
		if err != nil {
			return Content{}, err
		}
		if len(resp.Values) == 0 {
			continue
		}

		lines = append(lines, sheetHeader(title))
		for _, row := range resp.Values {
			var cells []string
			for _, cell := range row {
				if s := strings.TrimSpace(fmt.Sprint(cell)); s != "" {
					cells = append(cells, s)
				}
			}
			if len(cells) > 0 {
				lines = append(lines, strings.Join(cells, "\t"))
			}
		}
	}

	return Content{
		Text:     strings.TrimSpace(strings.Join(lines, "\n")),
		FileType: "gsheet",
		Metadata: map[string]interface{}{},
	}, nil
}

func sheetHeader(title string) string {
	return fmt.Sprintf("=== SHEET: %s ===", title)
}
