package agent

import (
	"context"
	"errors"
	"fmt"
	"log"

	"docqa/internal/domain"
)

// state names a position in the answering loop. The loop is a fixed
// finite-state machine: narrow retrieval, critique, at most one widened
// retrieval with a fresh critique, then either synthesis or refusal.
type state int

const (
	stateRetrieveNarrow state = iota
	stateCritiqueNarrow
	stateRetrieveWide
	stateCritiqueWide
	stateSynthesize
	stateRefuse
)

// Config holds the tunable retrieval fan-outs of the loop.
type Config struct {
	KInitial  int
	KFallback int
}

// Validate checks the two-tier fan-out policy: both positive, fallback
// strictly wider than the initial round.
func (c Config) Validate() error {
	if c.KInitial <= 0 {
		return fmt.Errorf("k_initial must be positive, got %d", c.KInitial)
	}
	if c.KFallback <= c.KInitial {
		return fmt.Errorf("k_fallback (%d) must exceed k_initial (%d)", c.KFallback, c.KInitial)
	}
	return nil
}

// DefaultConfig returns the documented fan-out defaults.
func DefaultConfig() Config {
	return Config{KInitial: 5, KFallback: 10}
}

// Loop drives one question through retrieval, critique, the single widened
// fallback round, and synthesis or refusal. It holds no per-question state;
// concurrent questions are independent.
type Loop struct {
	retriever   domain.Retriever
	critic      *Critic
	synthesizer *Synthesizer
	cfg         Config
	log         *log.Logger
}

// NewLoop wires the loop. cfg must satisfy Config.Validate.
func NewLoop(retriever domain.Retriever, critic *Critic, synthesizer *Synthesizer, cfg Config, logger *log.Logger) (*Loop, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Loop{
		retriever:   retriever,
		critic:      critic,
		synthesizer: synthesizer,
		cfg:         cfg,
		log:         logger,
	}, nil
}

// Answer runs the loop for one question. The returned error is non-nil only
// for context cancellation or a failed first retrieval round; every domain
// result, including refusals and generation faults, is expressed in the
// Outcome. A fault during the widened round degrades to a refusal, since the
// narrow round already judged every candidate irrelevant. Cancellation is
// honored between steps, never mid-step.
func (l *Loop) Answer(ctx context.Context, question string) (domain.Outcome, error) {
	var (
		passages []domain.Passage
		verdicts []domain.Verdict
		rounds   int
		reason   domain.RefusalReason
	)

	st := stateRetrieveNarrow
	for {
		if err := ctx.Err(); err != nil {
			return domain.Outcome{}, err
		}

		switch st {
		case stateRetrieveNarrow:
			res, err := l.retriever.Retrieve(ctx, question, l.cfg.KInitial)
			if err != nil {
				if errors.Is(err, domain.ErrIndexUnavailable) {
					reason = domain.RefusalNoDocument
					st = stateRefuse
					continue
				}
				return domain.Outcome{}, err
			}
			rounds = 1
			passages = res
			l.logf("retrieved %d passages at k=%d", len(passages), l.cfg.KInitial)
			st = stateCritiqueNarrow

		case stateCritiqueNarrow:
			verdicts = l.critic.Evaluate(ctx, question, passages)
			kept := relevantCount(verdicts)
			l.logf("kept %d/%d passages after critique", kept, len(passages))
			if kept > 0 {
				st = stateSynthesize
			} else {
				st = stateRetrieveWide
			}

		case stateRetrieveWide:
			l.logf("no relevant passages at k=%d, widening to k=%d", l.cfg.KInitial, l.cfg.KFallback)
			res, err := l.retriever.Retrieve(ctx, question, l.cfg.KFallback)
			if err != nil {
				if ctx.Err() != nil {
					return domain.Outcome{}, ctx.Err()
				}
				if errors.Is(err, domain.ErrIndexUnavailable) {
					reason = domain.RefusalNoDocument
					st = stateRefuse
					continue
				}
				// The narrow round already found nothing relevant; a failed
				// widening cannot improve on that, so refuse instead of
				// surfacing the fault.
				l.logf("widened retrieval failed: %v", err)
				rounds = 2
				reason = domain.RefusalNoRelevantContent
				st = stateRefuse
				continue
			}
			rounds = 2
			passages = res
			st = stateCritiqueWide

		case stateCritiqueWide:
			// A wider k may return a different, reordered candidate set, so
			// the critique runs from scratch on the new result.
			verdicts = l.critic.Evaluate(ctx, question, passages)
			kept := relevantCount(verdicts)
			l.logf("kept %d/%d passages after widened critique", kept, len(passages))
			if kept > 0 {
				st = stateSynthesize
			} else {
				reason = domain.RefusalNoRelevantContent
				st = stateRefuse
			}

		case stateSynthesize:
			relevant := relevantSubset(passages, verdicts)
			answer, err := l.synthesizer.Synthesize(ctx, question, relevant)
			if err != nil {
				if ctx.Err() != nil {
					return domain.Outcome{}, ctx.Err()
				}
				l.logf("synthesis failed: %v", err)
				return domain.Outcome{
					Reason:         domain.RefusalGenerationFailed,
					Verdicts:       verdicts,
					RoundsUsed:     rounds,
					TotalRetrieved: len(passages),
				}, nil
			}
			return domain.Outcome{
				Answered:         true,
				Answer:           answer,
				RelevantPassages: relevant,
				Verdicts:         verdicts,
				RoundsUsed:       rounds,
				TotalRetrieved:   len(passages),
			}, nil

		case stateRefuse:
			return domain.Outcome{
				Reason:         reason,
				Verdicts:       verdicts,
				RoundsUsed:     rounds,
				TotalRetrieved: len(passages),
			}, nil
		}
	}
}

// relevantSubset keeps the passages whose verdict is relevant, preserving
// retrieval-rank order.
func relevantSubset(passages []domain.Passage, verdicts []domain.Verdict) []domain.Passage {
	out := make([]domain.Passage, 0, len(passages))
	for i, v := range verdicts {
		if v.Relevant && i < len(passages) {
			out = append(out, passages[i])
		}
	}
	return out
}

func (l *Loop) logf(format string, args ...any) {
	if l.log != nil {
		l.log.Printf(format, args...)
	}
}
