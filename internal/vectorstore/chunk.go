package vectorstore

import "strings"

// ChunkText splits text into overlapping windows of at most maxChars runes.
// Whitespace runs are collapsed to single spaces first, so chunk boundaries
// never depend on the original formatting. The overlap carries trailing
// context into the next chunk; an overlap >= maxChars degenerates to a
// stride of one and is clamped.
func ChunkText(text string, maxChars, overlap int) []string {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return nil
	}

	runes := []rune(text)
	if maxChars <= 0 || len(runes) <= maxChars {
		return []string{text}
	}

	stride := maxChars - overlap
	if stride < 1 {
		stride = 1
	}

	var chunks []string
	for start := 0; start < len(runes); start += stride {
		end := start + maxChars
		if end > len(runes) {
			end = len(runes)
		}
		if chunk := strings.TrimSpace(string(runes[start:end])); chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(runes) {
			break
		}
	}
	return chunks
}
