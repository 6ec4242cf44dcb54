package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"docqa/internal/domain"
	"docqa/internal/index"
)

// IngestResult describes one processed upload.
type IngestResult struct {
	DocumentID string
	Passages   int
	Summary    string
}

// IngestService chunks an uploaded document, replaces the index wholesale
// with the new passages, and produces a short document summary.
type IngestService struct {
	chunker      domain.Chunker
	index        *index.Index
	summarizer   domain.Summarizer
	maxSentences int
	log          *log.Logger
}

func NewIngestService(chunker domain.Chunker, idx *index.Index, summarizer domain.Summarizer, maxSentences int, logger *log.Logger) *IngestService {
	return &IngestService{
		chunker:      chunker,
		index:        idx,
		summarizer:   summarizer,
		maxSentences: maxSentences,
		log:          logger,
	}
}

// Ingest processes one document. Any previously indexed document is
// discarded once the new index is ready.
func (s *IngestService) Ingest(ctx context.Context, name, content string) (IngestResult, error) {
	if strings.TrimSpace(content) == "" {
		return IngestResult{}, errors.New("document is empty")
	}

	doc := domain.Document{ID: uuid.NewString(), Name: name, Content: content}
	if s.log != nil {
		s.log.Printf("processing document %q (%d bytes)", name, len(content))
	}

	passages, err := s.chunker.Chunk(doc)
	if err != nil {
		return IngestResult{}, fmt.Errorf("chunk document: %w", err)
	}
	if len(passages) == 0 {
		return IngestResult{}, errors.New("document produced no passages")
	}
	if s.log != nil {
		s.log.Printf("created %d passages", len(passages))
	}

	if err := s.index.Replace(ctx, doc.ID, passages); err != nil {
		return IngestResult{}, fmt.Errorf("index document: %w", err)
	}

	summary, err := s.summarizer.Summarize(content, s.maxSentences)
	if err != nil {
		// The index is already usable; a failed summary should not fail
		// the upload.
		if s.log != nil {
			s.log.Printf("summarize failed: %v", err)
		}
		summary = ""
	}

	return IngestResult{DocumentID: doc.ID, Passages: len(passages), Summary: summary}, nil
}
