// Package lexical provides offline judgment and generation collaborators
// based on token overlap, used when no language-model endpoint is
// configured. They honor the same contracts as the LLM-backed versions.
package lexical

import (
	"context"
	"math"
	"regexp"
	"strings"

	"docqa/internal/domain"
)

var wordRe = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)

// Judge scores question/passage token overlap with the Ochiai coefficient
// and grades the passage relevant above a fixed threshold.
type Judge struct {
	threshold float64
}

// NewJudge creates a lexical judge. threshold values outside (0,1] fall
// back to the default of 0.2.
func NewJudge(threshold float64) *Judge {
	if threshold <= 0 || threshold > 1 {
		threshold = 0.2
	}
	return &Judge{threshold: threshold}
}

// Judge grades the passage by token overlap with the question.
func (j *Judge) Judge(ctx context.Context, question string, passage domain.Passage) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return ochiai(tokenSet(question), passage.Text) >= j.threshold, nil
}

func tokenSet(s string) map[string]struct{} {
	tokens := wordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

// ochiai computes |A∩B| / sqrt(|A||B|) over the unique token sets.
func ochiai(qset map[string]struct{}, text string) float64 {
	toks := wordRe.FindAllString(strings.ToLower(text), -1)
	seen := make(map[string]struct{}, len(toks))
	inter := 0
	for _, t := range toks {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := qset[t]; ok {
			inter++
		}
	}
	if len(qset) == 0 || len(seen) == 0 {
		return 0
	}
	return float64(inter) / math.Sqrt(float64(len(qset))*float64(len(seen)))
}
