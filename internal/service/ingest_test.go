package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/chunker"
	"docqa/internal/embedding"
	"docqa/internal/embedding/tfidf"
	"docqa/internal/index"
	"docqa/internal/summarizer"
	"docqa/internal/vectorstore"
	"docqa/internal/vectorstore/memory"
)

func newTestService() (*IngestService, *index.Index) {
	ix := index.New(
		func() embedding.Embedder { return tfidf.NewEmbedder() },
		func() vectorstore.Storage { return memory.NewStorage() },
		nil,
	)
	svc := NewIngestService(
		chunker.NewSentenceChunker(2, 0),
		ix,
		summarizer.NewFrequencySummarizer(),
		2,
		nil,
	)
	return svc, ix
}

func TestIngestBuildsIndexAndSummary(t *testing.T) {
	svc, ix := newTestService()
	content := "Bees collect nectar from flowers. They store it in the hive. " +
		"Worker bees fan the nectar with their wings. Over time it thickens into honey."

	res, err := svc.Ingest(context.Background(), "bees.txt", content)
	require.NoError(t, err)

	assert.NotEmpty(t, res.DocumentID)
	assert.Equal(t, 2, res.Passages)
	assert.NotEmpty(t, res.Summary)
	assert.True(t, ix.Ready())
	assert.Equal(t, res.DocumentID, ix.DocumentID())
}

func TestIngestRejectsEmptyDocument(t *testing.T) {
	svc, ix := newTestService()
	_, err := svc.Ingest(context.Background(), "empty.txt", "   \n ")
	assert.Error(t, err)
	assert.False(t, ix.Ready())
}

func TestIngestReplacesPreviousDocument(t *testing.T) {
	svc, ix := newTestService()

	first, err := svc.Ingest(context.Background(), "a.txt", "Sailing needs wind. Boats have sails.")
	require.NoError(t, err)
	second, err := svc.Ingest(context.Background(), "b.txt", "Baking needs flour. Ovens bake bread.")
	require.NoError(t, err)

	assert.NotEqual(t, first.DocumentID, second.DocumentID)
	assert.Equal(t, second.DocumentID, ix.DocumentID())

	results, err := ix.Retrieve(context.Background(), "baking bread flour", 10)
	require.NoError(t, err)
	for _, p := range results {
		assert.False(t, strings.Contains(p.Text, "Sailing"), "old document must be discarded")
	}
}
