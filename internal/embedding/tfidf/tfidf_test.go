package tfidf

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrepareAndEmbed(t *testing.T) {
	e := NewEmbedder()
	corpus := []string{
		"cats chase mice around house",
		"dogs chase cats around yard",
		"quantum physics describes particles",
	}
	require.NoError(t, e.Prepare(corpus))
	assert.Greater(t, e.Dimension(), 0)

	vec, err := e.Embed("cats chase mice")
	require.NoError(t, err)
	require.Len(t, vec, e.Dimension())

	// Vectors are L2-normalized.
	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-9)
}

func TestEmbedRanksRelatedTextHigher(t *testing.T) {
	e := NewEmbedder()
	corpus := []string{
		"cats chase mice around house",
		"quantum physics describes particles",
	}
	require.NoError(t, e.Prepare(corpus))

	q, err := e.Embed("mice house cats")
	require.NoError(t, err)
	a, err := e.Embed(corpus[0])
	require.NoError(t, err)
	b, err := e.Embed(corpus[1])
	require.NoError(t, err)

	assert.Greater(t, dot(q, a), dot(q, b))
}

func TestEmbedUnknownTokensYieldsZeroVector(t *testing.T) {
	e := NewEmbedder()
	require.NoError(t, e.Prepare([]string{"cats chase mice"}))

	vec, err := e.Embed("zebra xylophone")
	require.NoError(t, err)
	for _, v := range vec {
		assert.Zero(t, v)
	}
}

func TestPrepareRejectsEmptyCorpus(t *testing.T) {
	e := NewEmbedder()
	assert.Error(t, e.Prepare(nil))
}

func TestEmbedBeforePrepareFails(t *testing.T) {
	e := NewEmbedder()
	_, err := e.Embed("anything")
	assert.Error(t, err)
}

func dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
