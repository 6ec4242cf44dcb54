package vectorstore

import "docqa/internal/domain"

// Storage persists passage vectors and supports similarity search.
// Search results carry the similarity in Passage.Score and are ordered by
// descending score with ties broken by ingestion order.
type Storage interface {
	Init(dimension int) error
	Upsert(passages []domain.Passage, vectors [][]float64) error
	Search(vector []float64, topK int) ([]domain.Passage, error)
	Clear() error
}
