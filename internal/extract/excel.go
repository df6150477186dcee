package extract

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/gdrive-assistant/gdrive-assistant/internal/errors"
	"github.com/xuri/excelize/v2"
)

// XlsxExtractor handles modern Excel workbooks, bounded by the
// configured sheet and row limits.
type XlsxExtractor struct{}

const xlsxMimeType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (e *XlsxExtractor) MimeTypes() []string      { return []string{xlsxMimeType} }
func (e *XlsxExtractor) MimePrefixes() []string   { return nil }
func (e *XlsxExtractor) FileExtensions() []string { return []string{"xlsx"} }

func (e *XlsxExtractor) CanExtract(meta map[string]interface{}) bool {
	return metaString(meta, "mimeType") == xlsxMimeType || metaExtension(meta) == "xlsx"
}

func (e *XlsxExtractor) Extract(meta map[string]interface{}, ctx *Context) (Content, error) {
	if size := metaSize(meta); size > 0 && size > maxBytes(ctx.Settings.OfficeMaxFileSizeMB) {
		return sizeLimited("xlsx", size), nil
	}

	data, err := ctx.DownloadBinary(metaString(meta, "id"))
	if err != nil {
		return Content{}, err
	}

	text, err := xlsxText(data, ctx.Settings.ExcelMaxSheets, ctx.Settings.MaxRowsPerSheet)
	if err != nil {
		return Content{}, err
	}

	return Content{
		Text:     strings.TrimSpace(text),
		FileType: "xlsx",
		Metadata: map[string]interface{}{
			"mime_type":       metaString(meta, "mimeType"),
			"file_size_bytes": len(data),
		},
	}, nil
}

func xlsxText(data []byte, maxSheets, maxRows int) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", errors.Wrap(err, "excelize.OpenReader")
	}
	defer f.Close()

	var lines []string
	sheetNames := f.GetSheetList()
	for i, name := range sheetNames {
		if maxSheets > 0 && i >= maxSheets {
			lines = append(lines, sheetLimitMarker(maxSheets))
			break
		}

		rows, err := f.GetRows(name)
		if err != nil {
			return "", errors.Wrapf(err, "read sheet %q", name)
		}
		if len(rows) == 0 {
			continue
		}

		lines = append(lines, sheetHeader(name))
		for j, row := range rows {
			if maxRows > 0 && j >= maxRows {
				lines = append(lines, rowLimitMarker(maxRows, len(rows)))
				break
			}
			if cells := nonEmptyCells(row); len(cells) > 0 {
				lines = append(lines, strings.Join(cells, "\t"))
			}
		}
	}

	return strings.Join(lines, "\n"), nil
}

// XlsExtractor handles legacy binary Excel workbooks via the xls2csv
// command line tool.
type XlsExtractor struct{}

const xlsMimeType = "application/vnd.ms-excel"

func (e *XlsExtractor) MimeTypes() []string      { return []string{xlsMimeType} }
func (e *XlsExtractor) MimePrefixes() []string   { return nil }
func (e *XlsExtractor) FileExtensions() []string { return []string{"xls"} }

func (e *XlsExtractor) CanExtract(meta map[string]interface{}) bool {
	return metaString(meta, "mimeType") == xlsMimeType || metaExtension(meta) == "xls"
}

func (e *XlsExtractor) Extract(meta map[string]interface{}, ctx *Context) (Content, error) {
	if size := metaSize(meta); size > 0 && size > maxBytes(ctx.Settings.OfficeMaxFileSizeMB) {
		return sizeLimited("xls", size), nil
	}

	data, err := ctx.DownloadBinary(metaString(meta, "id"))
	if err != nil {
		return Content{}, err
	}

	out, err := runDecoder(data, ".xls", "xls2csv", filePlaceholder)
	if err != nil {
		return Content{}, err
	}

	text, err := csvToRows(out, ctx.Settings.MaxRowsPerSheet)
	if err != nil {
		return Content{}, err
	}

	return Content{
		Text:     strings.TrimSpace(text),
		FileType: "xls",
		Metadata: map[string]interface{}{
			"mime_type":       metaString(meta, "mimeType"),
			"file_size_bytes": len(data),
		},
	}, nil
}

func csvToRows(out string, maxRows int) (string, error) {
	r := csv.NewReader(strings.NewReader(out))
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return "", errors.Wrap(err, "parse xls2csv output")
	}

	var lines []string
	for i, row := range records {
		if maxRows > 0 && i >= maxRows {
			lines = append(lines, rowLimitMarker(maxRows, len(records)))
			break
		}
		if cells := nonEmptyCells(row); len(cells) > 0 {
			lines = append(lines, strings.Join(cells, "\t"))
		}
	}
	return strings.Join(lines, "\n"), nil
}

func nonEmptyCells(row []string) []string {
	var cells []string
	for _, cell := range row {
		if s := strings.TrimSpace(cell); s != "" {
			cells = append(cells, s)
		}
	}
	return cells
}

func sheetLimitMarker(maxSheets int) string {
	return fmt.Sprintf("... (limited to %d sheets)", maxSheets)
}

func rowLimitMarker(maxRows, total int) string {
	return fmt.Sprintf("... (limited to %d rows, %d total)", maxRows, total)
}
