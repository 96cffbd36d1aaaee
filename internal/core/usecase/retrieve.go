package usecase

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/cardcompass/credit-card-advisor/internal/core/domain"
	"github.com/cardcompass/credit-card-advisor/internal/core/ports"
)

// NoResultsContext is returned by BuildContext for an empty result
// set; callers rely on it being distinguishable from real context.
const NoResultsContext = "No relevant credit cards found."

const previewLength = 300

// Retriever composes the embedding gateway and the vector index into
// the query-time read path: embed the query, search the index, shape
// results. It holds no mutable state after construction and is safe
// for concurrent use.
type Retriever struct {
	embedder ports.Embedder
	index    ports.VectorIndex
}

func NewRetriever(embedder ports.Embedder, index ports.VectorIndex) *Retriever {
	return &Retriever{
		embedder: embedder,
		index:    index,
	}
}

// Retrieve returns the topK most similar cards for the query, ranked
// by descending score. Gateway failures propagate unchanged; the
// retriever performs no retries of its own.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int, filter domain.RetrievalFilter) ([]domain.RetrievedCard, error) {
	if topK <= 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "retrieve",
			fmt.Errorf("topK must be positive, got %d", topK))
	}

	queryVector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := r.index.Query(ctx, queryVector, topK, filter)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}
	return results, nil
}

// RetrieveWithFilters builds a conjunctive filter from the non-empty
// arguments and delegates to Retrieve. With all filters empty it is
// equivalent to an unfiltered Retrieve.
func (r *Retriever) RetrieveWithFilters(ctx context.Context, query, category, bank, rewardType string, topK int) ([]domain.RetrievedCard, error) {
	filter := domain.RetrievalFilter{
		Category:   category,
		Bank:       bank,
		RewardType: rewardType,
	}
	return r.Retrieve(ctx, query, topK, filter)
}

// BuildContext renders ranked results into the grounding context for
// the generative model, greedily accumulating per-card blocks until
// the next block would push the running block total over the budget.
// Once a block does not fit, no later block is considered, even a
// shorter one that would fit; the truncation is deliberately greedy
// rather than optimal. The block separator does not count against the
// budget.
func (r *Retriever) BuildContext(results []domain.RetrievedCard, maxContextLength int) string {
	if len(results) == 0 {
		return NoResultsContext
	}

	blocks := make([]string, 0, len(results))
	total := 0
	for i, card := range results {
		block := fmt.Sprintf("\nCredit Card %d: %s\nBank: %s\nCategory: %s\nReward Type: %s\n\nDetails:\n%s\n",
			i+1,
			card.Metadata.CardName,
			card.Metadata.Bank,
			card.Metadata.Category,
			card.Metadata.RewardType,
			card.Text,
		)
		length := utf8.RuneCountInString(block)
		if total+length > maxContextLength {
			break
		}
		blocks = append(blocks, block)
		total += length
	}

	return strings.Join(blocks, "\n---\n")
}

// Search is the raw search surface: Retrieve plus preview shaping,
// no generation.
func (r *Retriever) Search(ctx context.Context, query string, topK int, filter domain.RetrievalFilter) ([]domain.SearchResult, error) {
	results, err := r.Retrieve(ctx, query, topK, filter)
	if err != nil {
		return nil, err
	}

	out := make([]domain.SearchResult, 0, len(results))
	for _, card := range results {
		out = append(out, domain.SearchResult{
			ID:          card.ID,
			Score:       roundScore(card.Score),
			CardName:    card.Metadata.CardName,
			Bank:        card.Metadata.Bank,
			Category:    card.Metadata.Category,
			RewardType:  card.Metadata.RewardType,
			TextPreview: preview(card.Text),
		})
	}
	return out, nil
}

func preview(text string) string {
	runes := []rune(text)
	if len(runes) <= previewLength {
		return text
	}
	return string(runes[:previewLength]) + "..."
}
