package extract

import (
	"strings"
	"testing"

	"github.com/gdrive-assistant/gdrive-assistant/internal/test"
	"github.com/xuri/excelize/v2"
)

func buildWorkbook(t testing.TB, sheets map[string][][]interface{}) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	first := true
	for name, rows := range sheets {
		if first {
			test.OK(t, f.SetSheetName("Sheet1", name))
			first = false
		} else {
			_, err := f.NewSheet(name)
			test.OK(t, err)
		}
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			test.OK(t, err)
			test.OK(t, f.SetSheetRow(name, cell, &row))
		}
	}

	buf, err := f.WriteToBuffer()
	test.OK(t, err)
	return buf.Bytes()
}

func TestXlsxExtract(t *testing.T) {
	data := buildWorkbook(t, map[string][][]interface{}{
		"Data": {
			{"Name", "Score"},
			{"alpha", 10},
			{"", ""},
			{"beta", 20},
		},
	})
	ctx := testContext(nil, map[string][]byte{"f1": data})

	content, err := (&XlsxExtractor{}).Extract(map[string]interface{}{
		"id": "f1", "mimeType": xlsxMimeType, "name": "scores.xlsx",
	}, ctx)
	test.OK(t, err)
	test.Equals(t, "xlsx", content.FileType)

	want := strings.Join([]string{
		"=== SHEET: Data ===",
		"Name\tScore",
		"alpha\t10",
		"beta\t20",
	}, "\n")
	test.Equals(t, want, content.Text)
}

func TestXlsxRowLimit(t *testing.T) {
	rows := make([][]interface{}, 5)
	for i := range rows {
		rows[i] = []interface{}{"row", i + 1}
	}
	data := buildWorkbook(t, map[string][][]interface{}{"Data": rows})

	text, err := xlsxText(data, 10, 3)
	test.OK(t, err)
	test.Assert(t, strings.Contains(text, rowLimitMarker(3, 5)),
		"expected the row limit marker in:\n%s", text)
	test.Assert(t, !strings.Contains(text, "row\t4"), "expected row 4 to be cut off:\n%s", text)
}

func TestXlsxSheetLimit(t *testing.T) {
	data := buildWorkbook(t, map[string][][]interface{}{
		"One": {{"a"}},
		"Two": {{"b"}},
	})

	text, err := xlsxText(data, 1, 100)
	test.OK(t, err)
	test.Assert(t, strings.Contains(text, sheetLimitMarker(1)),
		"expected the sheet limit marker in:\n%s", text)
	test.Equals(t, 1, strings.Count(text, "=== SHEET:"))
}

func TestXlsxExtractNotAWorkbook(t *testing.T) {
	ctx := testContext(nil, map[string][]byte{"f1": []byte("nope")})

	_, err := (&XlsxExtractor{}).Extract(map[string]interface{}{
		"id": "f1", "mimeType": xlsxMimeType,
	}, ctx)
	test.Assert(t, err != nil, "expected an error for a non-workbook payload")
}

func TestCSVToRows(t *testing.T) {
	out := "Name,Score\nalpha,10\n,,\nbeta,20\n"

	text, err := csvToRows(out, 100)
	test.OK(t, err)

	want := strings.Join([]string{
		"Name\tScore",
		"alpha\t10",
		"beta\t20",
	}, "\n")
	test.Equals(t, want, text)
}

func TestCSVToRowsRowLimit(t *testing.T) {
	out := "a\nb\nc\nd\n"

	text, err := csvToRows(out, 2)
	test.OK(t, err)
	test.Equals(t, "a\nb\n"+rowLimitMarker(2, 4), text)
}
