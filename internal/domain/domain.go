package domain

import (
	"context"
	"errors"
)

// Document represents a single uploaded source document before chunking.
type Document struct {
	ID      string
	Name    string
	Content string
}

// Passage is a contiguous unit of document text, the atomic unit of
// retrieval and relevance judgment. Index is the passage's position within
// its source document; Score is the similarity assigned by retrieval.
type Passage struct {
	Index int
	Text  string
	Score float64
}

// Verdict is the critic's binary relevance judgment on one passage.
// Degraded marks a judgment call that failed and was conservatively
// scored not relevant.
type Verdict struct {
	PassageIndex int
	Relevant     bool
	Degraded     bool
}

// RefusalReason distinguishes why the loop declined to produce an answer.
type RefusalReason string

const (
	// RefusalNoDocument means no document has been ingested yet.
	RefusalNoDocument RefusalReason = "no_document"
	// RefusalNoRelevantContent means both retrieval rounds produced zero
	// relevant passages.
	RefusalNoRelevantContent RefusalReason = "no_relevant_content"
	// RefusalGenerationFailed means answer synthesis hit an infrastructure
	// fault. It is terminal but distinct from an evidentiary refusal.
	RefusalGenerationFailed RefusalReason = "generation_failed"
)

// Outcome is the sole externally observable product of the answering loop.
// Either Answered is true and Answer plus RelevantPassages are set, or the
// loop refused and Reason is set. Verdicts always reflect the deciding
// retrieval round in retrieval order.
type Outcome struct {
	Answered         bool
	Answer           string
	Reason           RefusalReason
	RelevantPassages []Passage
	Verdicts         []Verdict
	RoundsUsed       int
	TotalRetrieved   int
}

// ErrIndexUnavailable is returned by retrieval when no document has been
// processed yet.
var ErrIndexUnavailable = errors.New("index unavailable: no document processed")

// ErrGenerationFailed wraps errors from the generation collaborator.
var ErrGenerationFailed = errors.New("answer generation failed")

// Chunker splits a document into ordered passages suitable for indexing.
type Chunker interface {
	Chunk(document Document) ([]Passage, error)
}

// Retriever is the loop-facing contract of the vector index. Results are
// ordered by descending similarity with ties broken by ingestion order.
type Retriever interface {
	Retrieve(ctx context.Context, question string, k int) ([]Passage, error)
}

// Judge classifies one passage as relevant or not to a question. Each call
// is a pure function of (question, passage); calls may fail transiently.
type Judge interface {
	Judge(ctx context.Context, question string, passage Passage) (bool, error)
}

// Generator produces an answer to a question from the supplied context text.
type Generator interface {
	Generate(ctx context.Context, question, context string) (string, error)
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}
