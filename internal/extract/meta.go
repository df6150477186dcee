package extract

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Helpers for reading the Drive-style attribute bag. Extractors only read
// known keys; everything else passes through to the payload untouched.

func metaString(meta map[string]interface{}, key string) string {
	if v, ok := meta[key].(string); ok {
		return v
	}
	return ""
}

// metaSize returns the declared size in bytes, tolerating numeric strings
// (the Drive API reports size as a decimal string). 0 means unknown.
func metaSize(meta map[string]interface{}) int64 {
	switch v := meta["size"].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n
		}
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			return n
		}
	}
	return 0
}

// metaExtension returns the lowercased extension without the leading dot,
// falling back to the name's suffix when the provider did not report one.
func metaExtension(meta map[string]interface{}) string {
	if ext := strings.TrimSpace(metaString(meta, "fileExtension")); ext != "" {
		return strings.ToLower(strings.TrimPrefix(ext, "."))
	}

	name := metaString(meta, "name")
	idx := strings.LastIndex(name, ".")
	if idx < 0 || idx == len(name)-1 {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(name[idx+1:]))
}
