package ports

import (
	"context"

	"github.com/cardcompass/credit-card-advisor/internal/core/domain"
)

// CardSearcher is the inbound contract for raw similarity search
// without generation.
type CardSearcher interface {
	Search(ctx context.Context, query string, topK int, filter domain.RetrievalFilter) ([]domain.SearchResult, error)
}

// QuestionAnswerer is the inbound contract for grounded answering.
type QuestionAnswerer interface {
	Ask(ctx context.Context, question string, filter domain.RetrievalFilter) (*domain.Answer, error)
	Compare(ctx context.Context, cardNames []string) (*domain.Answer, error)
	Recommend(ctx context.Context, useCase, budget string, preferences []string) (*domain.Answer, error)
}

// CorpusIngestor is the inbound contract for the offline ingestion
// pipeline.
type CorpusIngestor interface {
	Run(ctx context.Context, opts domain.IngestOptions) (*domain.IngestReport, error)
}
