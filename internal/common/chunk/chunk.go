// Package chunk splits oversized text into overlapping windows.
package chunk

import "fmt"

// Split cuts text into windows of at most size runes, each starting
// size-overlap runes after the previous one. The last window always ends at
// the end of text. Text that fits in one window is returned unchanged.
func Split(text string, size, overlap int) ([]string, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap must be in [0, %d), got %d", size, overlap)
	}

	runes := []rune(text)
	if len(runes) <= size {
		return []string{text}, nil
	}

	step := size - overlap
	var chunks []string
	for start := 0; ; start += step {
		end := start + size
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			return chunks, nil
		}
		chunks = append(chunks, string(runes[start:end]))
	}
}

// Count returns how many windows Split would produce for n runes.
func Count(n, size, overlap int) int {
	if size <= 0 || overlap < 0 || overlap >= size {
		return 0
	}
	if n <= size {
		return 1
	}
	step := size - overlap
	return 1 + (n-size+step-1)/step
}
