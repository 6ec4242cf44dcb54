package lexical

import (
	"context"

	"docqa/internal/domain"
)

// Generator produces an extractive answer: a frequency-based summary of the
// relevant context. It needs no external endpoint.
type Generator struct {
	summarizer   domain.Summarizer
	maxSentences int
}

// NewGenerator creates an extractive generator over the given summarizer.
func NewGenerator(summarizer domain.Summarizer, maxSentences int) *Generator {
	if maxSentences <= 0 {
		maxSentences = 3
	}
	return &Generator{summarizer: summarizer, maxSentences: maxSentences}
}

// Generate summarizes the context text into a short extractive answer.
func (g *Generator) Generate(ctx context.Context, question, contextText string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return g.summarizer.Summarize(contextText, g.maxSentences)
}
