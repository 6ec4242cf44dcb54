package chunker

import (
	"strings"

	"docqa/internal/domain"
)

// WindowChunker splits a document into fixed-size character windows with
// overlap, operating on runes so multi-byte text never splits mid-character.
type WindowChunker struct {
	size    int
	overlap int
}

func NewWindowChunker(size, overlap int) *WindowChunker {
	if size <= 0 {
		size = 1000
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size - 1
	}
	return &WindowChunker{size: size, overlap: overlap}
}

func (c *WindowChunker) Chunk(document domain.Document) ([]domain.Passage, error) {
	runes := []rune(strings.TrimSpace(document.Content))
	if len(runes) == 0 {
		return nil, nil
	}
	var passages []domain.Passage
	step := c.size - c.overlap
	idx := 0
	for start := 0; start < len(runes); start += step {
		end := start + c.size
		if end > len(runes) {
			end = len(runes)
		}
		text := strings.TrimSpace(string(runes[start:end]))
		if text != "" {
			passages = append(passages, domain.Passage{Index: idx, Text: text})
			idx++
		}
		if end == len(runes) {
			break
		}
	}
	return passages, nil
}
