package index

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"docqa/internal/domain"
	"docqa/internal/embedding"
	"docqa/internal/vectorstore"
)

// Index is a versioned handle over one uploaded document's passages.
// Uploading a document builds a complete new snapshot (embedder prepared on
// the new corpus, storage filled) and swaps it in atomically, so an
// in-flight query never sees passages from two documents. Queries read the
// current snapshot; old snapshots are cleared after the swap.
type Index struct {
	newEmbedder func() embedding.Embedder
	newStorage  func() vectorstore.Storage
	log         *log.Logger

	mu   sync.RWMutex
	snap *snapshot
}

type snapshot struct {
	documentID string
	embedder   embedding.Embedder
	storage    vectorstore.Storage
}

// New creates an empty index. The factories are invoked once per Replace so
// every document gets a freshly prepared embedder and storage.
func New(newEmbedder func() embedding.Embedder, newStorage func() vectorstore.Storage, logger *log.Logger) *Index {
	return &Index{newEmbedder: newEmbedder, newStorage: newStorage, log: logger}
}

// Ready reports whether a document has been ingested.
func (ix *Index) Ready() bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.snap != nil
}

// DocumentID returns the id of the currently indexed document, or "".
func (ix *Index) DocumentID() string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if ix.snap == nil {
		return ""
	}
	return ix.snap.documentID
}

// Replace builds a snapshot for the given passages and swaps it in,
// discarding any prior document wholesale. The build happens outside the
// lock; queries keep running against the old snapshot until the swap.
func (ix *Index) Replace(ctx context.Context, documentID string, passages []domain.Passage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(passages) == 0 {
		return errors.New("no passages to index")
	}

	emb := ix.newEmbedder()
	texts := make([]string, len(passages))
	for i, p := range passages {
		texts[i] = p.Text
	}
	if err := emb.Prepare(texts); err != nil {
		return fmt.Errorf("prepare embedder: %w", err)
	}

	vectors := make([][]float64, len(passages))
	for i, p := range passages {
		vec, err := emb.Embed(p.Text)
		if err != nil {
			return fmt.Errorf("embed passage %d: %w", p.Index, err)
		}
		vectors[i] = vec
	}

	st := ix.newStorage()
	if err := st.Init(emb.Dimension()); err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	if err := st.Upsert(passages, vectors); err != nil {
		return fmt.Errorf("upsert passages: %w", err)
	}

	next := &snapshot{documentID: documentID, embedder: emb, storage: st}
	ix.mu.Lock()
	old := ix.snap
	ix.snap = next
	ix.mu.Unlock()

	if old != nil {
		if err := old.storage.Clear(); err != nil && ix.log != nil {
			ix.log.Printf("clearing previous index: %v", err)
		}
	}
	if ix.log != nil {
		ix.log.Printf("index replaced: document=%s passages=%d dimension=%d",
			documentID, len(passages), emb.Dimension())
	}
	return nil
}

// Retrieve embeds the question against the current snapshot and returns up
// to k passages ordered by descending similarity. It fails with
// domain.ErrIndexUnavailable when no document has been ingested.
func (ix *Index) Retrieve(ctx context.Context, question string, k int) ([]domain.Passage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, fmt.Errorf("invalid k: %d", k)
	}

	ix.mu.RLock()
	snap := ix.snap
	ix.mu.RUnlock()
	if snap == nil {
		return nil, domain.ErrIndexUnavailable
	}

	vec, err := snap.embedder.Embed(question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}
	return snap.storage.Search(vec, k)
}
