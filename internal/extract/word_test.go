package extract

import (
	"strings"
	"testing"

	"github.com/gdrive-assistant/gdrive-assistant/internal/test"
)

const docxDocumentXML = `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Title</w:t></w:r></w:p>
    <w:p><w:r><w:t>First </w:t></w:r><w:r><w:t>paragraph.</w:t></w:r></w:p>
    <w:p><w:r><w:t xml:space="preserve">   </w:t></w:r></w:p>
    <w:tbl>
      <w:tr>
        <w:tc><w:p><w:r><w:t>Name</w:t></w:r></w:p></w:tc>
        <w:tc><w:p><w:r><w:t>Value</w:t></w:r></w:p></w:tc>
      </w:tr>
      <w:tr>
        <w:tc><w:p><w:r><w:t>alpha</w:t></w:r></w:p></w:tc>
        <w:tc><w:p><w:r><w:t>1</w:t></w:r></w:p></w:tc>
      </w:tr>
    </w:tbl>
    <w:p><w:r><w:t>After the table.</w:t></w:r></w:p>
  </w:body>
</w:document>`

func TestDocxExtract(t *testing.T) {
	data := buildZip(t, map[string]string{
		"[Content_Types].xml": `<Types/>`,
		"word/document.xml":   docxDocumentXML,
	})
	ctx := testContext(nil, map[string][]byte{"f1": data})

	content, err := (&DocxExtractor{}).Extract(map[string]interface{}{
		"id": "f1", "mimeType": docxMimeType, "name": "report.docx",
	}, ctx)
	test.OK(t, err)
	test.Equals(t, "docx", content.FileType)

	want := strings.Join([]string{
		"Title",
		"First paragraph.",
		"Name | Value",
		"alpha | 1",
		"After the table.",
	}, "\n")
	test.Equals(t, want, content.Text)
}

func TestDocxExtractMissingDocumentPart(t *testing.T) {
	data := buildZip(t, map[string]string{"[Content_Types].xml": `<Types/>`})
	ctx := testContext(nil, map[string][]byte{"f1": data})

	_, err := (&DocxExtractor{}).Extract(map[string]interface{}{
		"id": "f1", "mimeType": docxMimeType,
	}, ctx)
	test.Assert(t, err != nil, "expected an error for an archive without a document part")
}

func TestDocxExtractNotAZip(t *testing.T) {
	ctx := testContext(nil, map[string][]byte{"f1": []byte("plain bytes")})

	_, err := (&DocxExtractor{}).Extract(map[string]interface{}{
		"id": "f1", "mimeType": docxMimeType,
	}, ctx)
	test.Assert(t, err != nil, "expected an error for a non-zip payload")
}

func TestDocxSizeGate(t *testing.T) {
	ctx := testContext(nil, nil)

	content, err := (&DocxExtractor{}).Extract(map[string]interface{}{
		"id": "f1", "mimeType": docxMimeType, "size": int64(10 << 20),
	}, ctx)
	test.OK(t, err)
	test.Equals(t, "", content.Text)
	test.Equals(t, "size_limit", content.Metadata["skipped"])
}
