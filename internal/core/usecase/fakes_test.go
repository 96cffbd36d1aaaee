package usecase

import (
	"context"
	"fmt"

	"github.com/cardcompass/credit-card-advisor/internal/core/domain"
)

type fakeEmbedder struct {
	batchCalls [][]string
	queryCalls []string
	vector     []float32
	err        error
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	f.batchCalls = append(f.batchCalls, texts)
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vector
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	f.queryCalls = append(f.queryCalls, text)
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

type fakeIndex struct {
	results []domain.RetrievedCard

	queryCalls  []domain.RetrievalFilter
	queryTopK   []int
	upserts     [][]domain.EmbeddedCard
	deleteCalls int
	readyCalls  int
	stats       domain.IndexStats

	queryErr  error
	upsertErr error
	readyErr  error
}

func (f *fakeIndex) EnsureReady(context.Context) error {
	f.readyCalls++
	return f.readyErr
}

func (f *fakeIndex) Upsert(_ context.Context, cards []domain.EmbeddedCard) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	batch := make([]domain.EmbeddedCard, len(cards))
	copy(batch, cards)
	f.upserts = append(f.upserts, batch)
	return nil
}

func (f *fakeIndex) Query(_ context.Context, _ []float32, topK int, filter domain.RetrievalFilter) ([]domain.RetrievedCard, error) {
	f.queryCalls = append(f.queryCalls, filter)
	f.queryTopK = append(f.queryTopK, topK)
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.results, nil
}

func (f *fakeIndex) DeleteAll(context.Context) error {
	f.deleteCalls++
	return nil
}

func (f *fakeIndex) Stats(context.Context) (domain.IndexStats, error) {
	return f.stats, nil
}

type fakeGenerator struct {
	prompts []string
	answer  string
	err     error
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

type fakeLoader struct {
	docs []domain.RawDocument
	err  error
}

func (f *fakeLoader) Load(context.Context) ([]domain.RawDocument, error) {
	return f.docs, f.err
}

type fakeSegmenter struct {
	docs []domain.CardDocument
}

func (f *fakeSegmenter) Segment([]domain.RawDocument) []domain.CardDocument {
	return f.docs
}

type fakeStore struct {
	saved  []domain.EmbeddedCard
	loaded []domain.EmbeddedCard
	err    error
}

func (f *fakeStore) Save(_ context.Context, cards []domain.EmbeddedCard) error {
	if f.err != nil {
		return f.err
	}
	f.saved = cards
	return nil
}

func (f *fakeStore) Load(context.Context) ([]domain.EmbeddedCard, error) {
	return f.loaded, f.err
}

func retrievedCard(n int, score float64, text string) domain.RetrievedCard {
	return domain.RetrievedCard{
		ID:    fmt.Sprintf("card_%d", n),
		Score: score,
		Text:  text,
		Metadata: domain.CardMetadata{
			Category:   "travel",
			CardName:   fmt.Sprintf("Card %d", n),
			Bank:       "Axis Bank",
			RewardType: "miles",
			UseCase:    "travel",
			Source:     "travel.md",
		},
	}
}
