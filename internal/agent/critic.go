package agent

import (
	"context"
	"log"

	"golang.org/x/sync/errgroup"

	"docqa/internal/domain"
)

// ProgressFunc observes one completed relevance judgment. It is invoked
// once per passage with the passage's position in the retrieval batch and
// the verdict; invocation order follows completion order, not input order.
type ProgressFunc func(index int, relevant bool)

// Critic classifies each retrieved passage as relevant or not, judging
// passages independently so that widening the retrieval fan-out never
// changes the verdict on a passage already seen.
type Critic struct {
	judge       domain.Judge
	concurrency int
	progress    ProgressFunc
	log         *log.Logger
}

// NewCritic creates a critic over the given judgment collaborator.
// concurrency bounds the number of in-flight judgment calls; values below 1
// mean sequential evaluation. progress may be nil.
func NewCritic(judge domain.Judge, concurrency int, progress ProgressFunc, logger *log.Logger) *Critic {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Critic{judge: judge, concurrency: concurrency, progress: progress, log: logger}
}

// Evaluate returns one verdict per input passage, in input order regardless
// of judgment completion order. A failing judgment call never aborts the
// batch: the passage is conservatively scored not relevant and flagged
// degraded.
func (c *Critic) Evaluate(ctx context.Context, question string, passages []domain.Passage) []domain.Verdict {
	verdicts := make([]domain.Verdict, len(passages))

	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for i, p := range passages {
		i, p := i, p
		g.Go(func() error {
			relevant, err := c.judge.Judge(ctx, question, p)
			if err != nil {
				if c.log != nil {
					c.log.Printf("judgment failed for passage %d: %v", p.Index, err)
				}
				verdicts[i] = domain.Verdict{PassageIndex: p.Index, Relevant: false, Degraded: true}
			} else {
				verdicts[i] = domain.Verdict{PassageIndex: p.Index, Relevant: relevant}
			}
			if c.progress != nil {
				c.progress(i, verdicts[i].Relevant)
			}
			return nil
		})
	}
	_ = g.Wait()
	return verdicts
}

func relevantCount(verdicts []domain.Verdict) int {
	n := 0
	for _, v := range verdicts {
		if v.Relevant {
			n++
		}
	}
	return n
}
