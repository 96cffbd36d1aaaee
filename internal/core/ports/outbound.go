package ports

import (
	"context"

	"github.com/cardcompass/credit-card-advisor/internal/core/domain"
)

// Embedder turns text into fixed-length vectors. Output order and
// count match the input; vector length is fixed by the configured
// model and must equal the index dimension.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorIndex is the similarity index: upsert of embedded cards and
// top-k nearest-neighbor queries with optional metadata filtering.
type VectorIndex interface {
	// EnsureReady creates the index if absent and polls until it is
	// ready to accept writes, bounded by the context deadline.
	EnsureReady(ctx context.Context) error
	// Upsert writes a batch of vectors. Re-upserting an id overwrites.
	Upsert(ctx context.Context, batch []domain.EmbeddedCard) error
	Query(ctx context.Context, vector []float32, topK int, filter domain.RetrievalFilter) ([]domain.RetrievedCard, error)
	DeleteAll(ctx context.Context) error
	Stats(ctx context.Context) (domain.IndexStats, error)
}

// Segmenter splits raw corpus documents into one CardDocument per
// numbered product entry.
type Segmenter interface {
	Segment(raw []domain.RawDocument) []domain.CardDocument
}

// CorpusLoader reads the source corpus from its external location.
type CorpusLoader interface {
	Load(ctx context.Context) ([]domain.RawDocument, error)
}

// EmbeddingStore persists the intermediate embedding artifact so the
// indexing step can run without re-embedding.
type EmbeddingStore interface {
	Save(ctx context.Context, cards []domain.EmbeddedCard) error
	Load(ctx context.Context) ([]domain.EmbeddedCard, error)
}

// AnswerGenerator produces the final answer text from a prompt.
type AnswerGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
