package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"strings"

	"github.com/gdrive-assistant/gdrive-assistant/internal/errors"
)

// The OOXML formats (docx, pptx) are zip archives of XML parts. The walkers
// below stream the XML token-wise: paragraphs become lines, table rows become
// "cell | cell" lines, exactly like the hosted-document extractors render
// them.

func ooxmlPart(data []byte, name string) (*zip.Reader, *zip.File, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, nil, errors.Wrap(err, "zip.NewReader")
	}
	for _, f := range zr.File {
		if f.Name == name {
			return zr, f, nil
		}
	}
	return zr, nil, nil
}

// ooxmlBodyText extracts paragraph and table text from one XML part. The
// element local names are shared by WordprocessingML (w:p, w:t, w:tbl) and
// DrawingML (a:p, a:t, a:tbl), so the same walker serves docx and pptx.
// Top-level paragraphs are returned in document order; table rows are
// rendered where the table appears.
func ooxmlBodyText(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)

	var (
		lines      []string
		para       strings.Builder
		cell       strings.Builder
		rowCells   []string
		tableDepth int
		inText     bool
	)

	flushPara := func() {
		if text := strings.TrimSpace(para.String()); text != "" {
			lines = append(lines, text)
		}
		para.Reset()
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "xml.Decoder")
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tbl":
				tableDepth++
			case "tr":
				if tableDepth > 0 {
					rowCells = rowCells[:0]
				}
			case "tc":
				if tableDepth > 0 {
					cell.Reset()
				}
			case "p":
				if tableDepth == 0 {
					para.Reset()
				}
			case "t":
				inText = true
			}
		case xml.CharData:
			if !inText {
				continue
			}
			if tableDepth > 0 {
				cell.Write(t)
			} else {
				para.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if tableDepth == 0 {
					flushPara()
				} else {
					cell.WriteString("\n")
				}
			case "tc":
				if tableDepth > 0 {
					if text := strings.TrimSpace(cell.String()); text != "" {
						rowCells = append(rowCells, strings.Join(strings.Fields(text), " "))
					}
				}
			case "tr":
				if tableDepth > 0 && len(rowCells) > 0 {
					lines = append(lines, strings.Join(rowCells, " | "))
					rowCells = rowCells[:0]
				}
			case "tbl":
				tableDepth--
			}
		}
	}

	return lines, nil
}
