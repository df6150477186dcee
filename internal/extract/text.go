package extract

import (
	"strings"
)

// TextExtractor handles plain text and source code files.
type TextExtractor struct{}

var textExtraMimes = []string{
	"application/json",
	"application/xml",
	"application/javascript",
	"application/yaml",
	"application/x-yaml",
	"application/x-python-code",
}

var textExtensions = []string{
	"txt", "md", "markdown", "rst", "log", "csv", "tsv",
	"json", "yaml", "yml", "toml", "ini", "cfg", "conf",
	"py", "pyw", "pyi",
	"js", "jsx", "ts", "tsx",
	"html", "htm", "css", "xml",
	"sh", "bash", "zsh", "fish",
	"rb", "php", "go", "rs", "java",
	"c", "h", "cpp", "hpp", "cs",
	"swift", "kt", "sql",
}

// textTypeMap maps extensions to normalized file type tags; everything else
// is reported as plain "text".
var textTypeMap = map[string]string{
	"py":       "python",
	"pyw":      "python",
	"pyi":      "python",
	"js":       "javascript",
	"jsx":      "javascript",
	"ts":       "typescript",
	"tsx":      "typescript",
	"yaml":     "yaml",
	"yml":      "yaml",
	"md":       "markdown",
	"markdown": "markdown",
	"json":     "json",
	"toml":     "toml",
	"sh":       "shell",
	"bash":     "shell",
	"zsh":      "shell",
	"fish":     "shell",
	"csv":      "csv",
}

var textExtensionSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(textExtensions))
	for _, ext := range textExtensions {
		set[ext] = struct{}{}
	}
	return set
}()

func (e *TextExtractor) MimeTypes() []string {
	return append([]string(nil), textExtraMimes...)
}

func (e *TextExtractor) MimePrefixes() []string { return []string{"text/"} }

func (e *TextExtractor) FileExtensions() []string {
	return append([]string(nil), textExtensions...)
}

func (e *TextExtractor) CanExtract(meta map[string]interface{}) bool {
	mime := metaString(meta, "mimeType")
	if strings.HasPrefix(mime, "text/") {
		return true
	}
	for _, m := range textExtraMimes {
		if mime == m {
			return true
		}
	}
	_, ok := textExtensionSet[metaExtension(meta)]
	return ok
}

func (e *TextExtractor) Extract(meta map[string]interface{}, ctx *Context) (Content, error) {
	if size := metaSize(meta); size > 0 && size > maxBytes(ctx.Settings.TextMaxFileSizeMB) {
		return sizeLimited("text", size), nil
	}

	data, err := ctx.DownloadBinary(metaString(meta, "id"))
	if err != nil {
		return Content{}, err
	}

	text := strings.TrimSpace(strings.ToValidUTF8(string(data), "�"))
	ext := metaExtension(meta)

	return Content{
		Text:     text,
		FileType: normalizedTextType(ext),
		Metadata: map[string]interface{}{
			"original_mime":   metaString(meta, "mimeType"),
			"extension":       ext,
			"file_size_bytes": len(data),
		},
	}, nil
}

func normalizedTextType(ext string) string {
	if t, ok := textTypeMap[ext]; ok {
		return t
	}
	return "text"
}
