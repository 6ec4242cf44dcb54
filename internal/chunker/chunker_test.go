package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/domain"
)

func TestSentenceChunkerSplitsWithOverlap(t *testing.T) {
	doc := domain.Document{
		ID:      "doc1",
		Content: "One. Two. Three. Four. Five. Six. Seven.",
	}
	c := NewSentenceChunker(3, 1)

	passages, err := c.Chunk(doc)
	require.NoError(t, err)
	require.NotEmpty(t, passages)

	assert.Equal(t, "One. Two. Three.", passages[0].Text)
	// Overlap: the next passage starts at the last sentence of the previous.
	assert.True(t, strings.HasPrefix(passages[1].Text, "Three."))
	for i, p := range passages {
		assert.Equal(t, i, p.Index)
	}
}

func TestSentenceChunkerNoTerminators(t *testing.T) {
	c := NewSentenceChunker(5, 1)
	passages, err := c.Chunk(domain.Document{Content: "no sentence terminator here"})
	require.NoError(t, err)
	require.Len(t, passages, 1)
	assert.Equal(t, "no sentence terminator here", passages[0].Text)
}

func TestSentenceChunkerEmptyDocument(t *testing.T) {
	c := NewSentenceChunker(5, 1)
	passages, err := c.Chunk(domain.Document{Content: "   \n  "})
	require.NoError(t, err)
	assert.Empty(t, passages)
}

func TestWindowChunkerSizeAndOverlap(t *testing.T) {
	content := strings.Repeat("abcdefghij", 30) // 300 chars
	c := NewWindowChunker(100, 20)

	passages, err := c.Chunk(domain.Document{Content: content})
	require.NoError(t, err)
	require.NotEmpty(t, passages)

	assert.LessOrEqual(t, len(passages[0].Text), 100)
	// Consecutive windows share the overlap region.
	tail := passages[0].Text[len(passages[0].Text)-20:]
	assert.True(t, strings.HasPrefix(passages[1].Text, tail))
	for i, p := range passages {
		assert.Equal(t, i, p.Index)
	}
}

func TestWindowChunkerShortDocument(t *testing.T) {
	c := NewWindowChunker(1000, 200)
	passages, err := c.Chunk(domain.Document{Content: "tiny"})
	require.NoError(t, err)
	require.Len(t, passages, 1)
	assert.Equal(t, "tiny", passages[0].Text)
}
