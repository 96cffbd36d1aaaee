package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cardcompass/credit-card-advisor/internal/core/domain"
	"github.com/cardcompass/credit-card-advisor/internal/core/ports"
)

// IngestUseCase is the offline ingestion pipeline: load the corpus,
// segment it into card documents, embed them in one batch call, and
// upsert into the vector index in fixed-size batches. The pipeline is
// deliberately single threaded and sequential.
type IngestUseCase struct {
	loader    ports.CorpusLoader
	segmenter ports.Segmenter
	embedder  ports.Embedder
	index     ports.VectorIndex
	artifacts ports.EmbeddingStore
	batchSize int
	dimension int
}

func NewIngestUseCase(
	loader ports.CorpusLoader,
	segmenter ports.Segmenter,
	embedder ports.Embedder,
	index ports.VectorIndex,
	artifacts ports.EmbeddingStore,
	batchSize int,
	dimension int,
) *IngestUseCase {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &IngestUseCase{
		loader:    loader,
		segmenter: segmenter,
		embedder:  embedder,
		index:     index,
		artifacts: artifacts,
		batchSize: batchSize,
		dimension: dimension,
	}
}

func (uc *IngestUseCase) Run(ctx context.Context, opts domain.IngestOptions) (*domain.IngestReport, error) {
	report := &domain.IngestReport{}

	var cards []domain.EmbeddedCard
	var err error
	if opts.FromArtifact {
		cards, err = uc.artifacts.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("load embedding artifact: %w", err)
		}
	} else {
		cards, err = uc.embedCorpus(ctx, report)
		if err != nil {
			return nil, err
		}
		if opts.SaveArtifact {
			if err := uc.artifacts.Save(ctx, cards); err != nil {
				return nil, fmt.Errorf("save embedding artifact: %w", err)
			}
		}
	}
	report.Cards = len(cards)

	if err := uc.checkDimension(cards); err != nil {
		return nil, err
	}

	if err := uc.index.EnsureReady(ctx); err != nil {
		return nil, fmt.Errorf("ensure index ready: %w", err)
	}

	if opts.Wipe {
		if err := uc.index.DeleteAll(ctx); err != nil {
			return nil, fmt.Errorf("wipe index: %w", err)
		}
	}

	for start := 0; start < len(cards); start += uc.batchSize {
		end := min(start+uc.batchSize, len(cards))
		if err := uc.index.Upsert(ctx, cards[start:end]); err != nil {
			return nil, fmt.Errorf("upsert batch %d: %w", report.Batches+1, err)
		}
		report.Batches++
		report.UpsertedVectors += end - start
		slog.Info("upserted_batch", "batch", report.Batches, "vectors", end-start)
	}

	stats, err := uc.index.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("index stats: %w", err)
	}
	report.TotalVectorCount = stats.TotalVectorCount

	return report, nil
}

// embedCorpus runs segment and embed, assigning deterministic ids in
// corpus order so a re-run overwrites rather than duplicates.
func (uc *IngestUseCase) embedCorpus(ctx context.Context, report *domain.IngestReport) ([]domain.EmbeddedCard, error) {
	raw, err := uc.loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}
	report.SourceDocuments = len(raw)

	docs := uc.segmenter.Segment(raw)
	if len(docs) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "segment corpus",
			errors.New("segmentation produced zero card documents"))
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Text
	}

	vectors, err := uc.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed corpus: %w", err)
	}
	if len(vectors) != len(docs) {
		return nil, domain.WrapError(domain.ErrEmbeddingService, "embed corpus",
			fmt.Errorf("vectors/documents mismatch: %d/%d", len(vectors), len(docs)))
	}

	cards := make([]domain.EmbeddedCard, len(docs))
	for i, doc := range docs {
		cards[i] = domain.EmbeddedCard{
			ID:        fmt.Sprintf("card_%d", i+1),
			Text:      doc.Text,
			Embedding: vectors[i],
			Metadata:  doc.Metadata,
		}
	}
	return cards, nil
}

func (uc *IngestUseCase) checkDimension(cards []domain.EmbeddedCard) error {
	if uc.dimension <= 0 || len(cards) == 0 {
		return nil
	}
	if got := len(cards[0].Embedding); got != uc.dimension {
		return domain.WrapError(domain.ErrConfiguration, "check embedding dimension",
			fmt.Errorf("embedding dimension %d does not match configured index dimension %d", got, uc.dimension))
	}
	return nil
}
