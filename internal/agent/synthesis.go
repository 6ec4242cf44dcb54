package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"docqa/internal/domain"
)

// Synthesizer assembles the generation context from relevant passages and
// calls the generation collaborator. Passages are concatenated in
// retrieval-rank order; no re-ranking and no deduplication happen here.
type Synthesizer struct {
	generator domain.Generator
}

// NewSynthesizer creates a synthesizer over the given generation collaborator.
func NewSynthesizer(generator domain.Generator) *Synthesizer {
	return &Synthesizer{generator: generator}
}

// Synthesize produces an answer from a non-empty relevant passage set.
// The non-empty precondition is enforced by the orchestrator; an empty set
// here is a programming error. Generator failures wrap
// domain.ErrGenerationFailed.
func (s *Synthesizer) Synthesize(ctx context.Context, question string, relevant []domain.Passage) (string, error) {
	if len(relevant) == 0 {
		return "", errors.New("synthesize called with empty passage set")
	}
	parts := make([]string, len(relevant))
	for i, p := range relevant {
		parts[i] = p.Text
	}
	contextText := strings.Join(parts, "\n\n")

	answer, err := s.generator.Generate(ctx, question, contextText)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrGenerationFailed, err)
	}
	return answer, nil
}
