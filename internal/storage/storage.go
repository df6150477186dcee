// Package storage holds the shared contracts between the storage providers,
// the extractors and the ingest orchestrator: normalized file metadata, the
// declarative file type filter, the limiter interface and the process-wide
// stop signal.
package storage

import "strings"

// FileMeta is the normalized metadata for one remote file.
type FileMeta struct {
	// ID is the provider-unique, stable identifier. Never empty.
	ID string
	// Name is the display name, may be empty.
	Name string
	// MimeType may be empty when the provider does not report one.
	MimeType string
	// ModifiedTime is an opaque version token. Equal tokens imply identical
	// content for skip decisions; nothing else is assumed about it.
	ModifiedTime string
	// Size in bytes, 0 when unknown.
	Size int64
	// Extension is lowercased without the leading dot, empty when unknown.
	Extension string
	// Raw is the provider-native attribute bag, passed through to the
	// extractors untouched.
	Raw map[string]interface{}
}

// ExtractorMeta returns the Drive-style attribute bag the extractors expect:
// the raw provider attributes with the normalized fields merged on top.
func (m FileMeta) ExtractorMeta() map[string]interface{} {
	out := make(map[string]interface{}, len(m.Raw)+6)
	for k, v := range m.Raw {
		out[k] = v
	}
	out["id"] = m.ID
	out["name"] = m.Name
	out["mimeType"] = m.MimeType
	out["modifiedTime"] = m.ModifiedTime
	out["size"] = m.Size
	out["fileExtension"] = m.Extension
	return out
}

// FileTypeFilter is the declarative capability set a provider lists against.
// A file matches if its MIME type is in MimeTypes, or its MIME type starts
// with any of MimePrefixes, or its extension is in Extensions.
type FileTypeFilter struct {
	MimeTypes    []string
	MimePrefixes []string
	Extensions   []string
}

// Empty reports whether the filter matches nothing.
func (f FileTypeFilter) Empty() bool {
	return len(f.MimeTypes) == 0 && len(f.MimePrefixes) == 0 && len(f.Extensions) == 0
}

// Matches applies the filter to a MIME type and an extension (lowercased,
// no leading dot; empty when unknown).
func (f FileTypeFilter) Matches(mimeType, extension string) bool {
	for _, m := range f.MimeTypes {
		if mimeType == m {
			return true
		}
	}
	for _, p := range f.MimePrefixes {
		if p != "" && strings.HasPrefix(mimeType, p) {
			return true
		}
	}
	if extension == "" {
		return false
	}
	for _, e := range f.Extensions {
		if strings.EqualFold(extension, e) {
			return true
		}
	}
	return false
}

// Limiter gates outbound remote API requests. Acquire blocks until a request
// permit is available and returns errors.ErrShutdownRequested when the stop
// signal is set.
type Limiter interface {
	Acquire() error
}
