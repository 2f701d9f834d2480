package embed

// ChunkText splits text into overlapping rune windows. The final partial
// window is kept so trailing content is never dropped.
func ChunkText(text string, window, stride int) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if window <= 0 || len(runes) <= window {
		return []string{text}
	}
	if stride <= 0 {
		stride = window
	}

	var chunks []string
	for start := 0; start < len(runes); start += stride {
		end := start + window
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
