package usecase

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/cardcompass/credit-card-advisor/internal/core/domain"
)

func TestRetrieveRejectsNonPositiveTopK(t *testing.T) {
	r := NewRetriever(&fakeEmbedder{vector: []float32{0.1}}, &fakeIndex{})

	for _, topK := range []int{0, -1} {
		if _, err := r.Retrieve(context.Background(), "best travel card", topK, domain.RetrievalFilter{}); err == nil {
			t.Fatalf("topK=%d: expected error, got nil", topK)
		} else if !domain.IsKind(err, domain.ErrInvalidInput) {
			t.Fatalf("topK=%d: expected ErrInvalidInput, got %v", topK, err)
		}
	}
}

func TestRetrieveEmbedsQueryAndQueriesIndex(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{0.1, 0.2}}
	index := &fakeIndex{results: []domain.RetrievedCard{retrievedCard(1, 0.9, "details")}}
	r := NewRetriever(embedder, index)

	results, err := r.Retrieve(context.Background(), "best travel card", 5, domain.RetrievalFilter{})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if len(embedder.queryCalls) != 1 || embedder.queryCalls[0] != "best travel card" {
		t.Fatalf("unexpected query calls: %v", embedder.queryCalls)
	}
	if index.queryTopK[0] != 5 {
		t.Fatalf("expected topK 5, got %d", index.queryTopK[0])
	}
	if !index.queryCalls[0].IsZero() {
		t.Fatalf("expected empty filter, got %+v", index.queryCalls[0])
	}
}

func TestRetrieveWithFiltersPassesConjunction(t *testing.T) {
	index := &fakeIndex{}
	r := NewRetriever(&fakeEmbedder{vector: []float32{0.1}}, index)

	if _, err := r.RetrieveWithFilters(context.Background(), "q", "travel", "Axis Bank", "", 3); err != nil {
		t.Fatalf("RetrieveWithFilters: %v", err)
	}
	got := index.queryCalls[0]
	if got.Category != "travel" || got.Bank != "Axis Bank" || got.RewardType != "" {
		t.Fatalf("filter not passed through: %+v", got)
	}
}

func TestBuildContextEmptyResults(t *testing.T) {
	r := NewRetriever(&fakeEmbedder{}, &fakeIndex{})

	for _, budget := range []int{0, 1, 3000} {
		got := r.BuildContext(nil, budget)
		if got != NoResultsContext {
			t.Fatalf("budget=%d: expected sentinel, got %q", budget, got)
		}
	}
}

func TestBuildContextGreedyBudget(t *testing.T) {
	results := []domain.RetrievedCard{
		retrievedCard(1, 0.9, strings.Repeat("a", 50)),
		retrievedCard(2, 0.8, strings.Repeat("b", 50)),
		retrievedCard(3, 0.7, strings.Repeat("c", 50)),
	}
	r := NewRetriever(&fakeEmbedder{}, &fakeIndex{})

	full := r.BuildContext(results, 1_000_000)
	if n := strings.Count(full, "\n---\n"); n != 2 {
		t.Fatalf("expected 2 separators in full context, got %d", n)
	}

	oneBlock := utf8.RuneCountInString(r.BuildContext(results[:1], 1_000_000))

	// Budget fits exactly two blocks; the third must be dropped.
	ctx := r.BuildContext(results, 2*oneBlock)
	if !strings.Contains(ctx, "Credit Card 1:") || !strings.Contains(ctx, "Credit Card 2:") {
		t.Fatalf("expected first two blocks present:\n%s", ctx)
	}
	if strings.Contains(ctx, "Credit Card 3:") {
		t.Fatalf("third block should not fit the budget:\n%s", ctx)
	}
}

func TestBuildContextStopsAtFirstOverflow(t *testing.T) {
	// Second result is huge, third is tiny; accumulation stops at the
	// first block that does not fit, with no backtracking.
	results := []domain.RetrievedCard{
		retrievedCard(1, 0.9, "small"),
		retrievedCard(2, 0.8, strings.Repeat("x", 5000)),
		retrievedCard(3, 0.7, "tiny"),
	}
	r := NewRetriever(&fakeEmbedder{}, &fakeIndex{})

	ctx := r.BuildContext(results, 500)
	if !strings.Contains(ctx, "Credit Card 1:") {
		t.Fatalf("first block should fit:\n%s", ctx)
	}
	if strings.Contains(ctx, "Credit Card 2:") || strings.Contains(ctx, "Credit Card 3:") {
		t.Fatalf("accumulation should have stopped at the oversized block:\n%s", ctx)
	}
}

func TestBuildContextBlockFormat(t *testing.T) {
	card := retrievedCard(1, 0.9, "Annual fee waived.")
	r := NewRetriever(&fakeEmbedder{}, &fakeIndex{})

	got := r.BuildContext([]domain.RetrievedCard{card}, 10_000)
	want := fmt.Sprintf("\nCredit Card 1: %s\nBank: %s\nCategory: %s\nReward Type: %s\n\nDetails:\n%s\n",
		card.Metadata.CardName, card.Metadata.Bank, card.Metadata.Category,
		card.Metadata.RewardType, card.Text)
	if got != want {
		t.Fatalf("block format mismatch:\ngot:  %q\nwant: %q", got, want)
	}
}

func TestSearchPreviewTruncation(t *testing.T) {
	short := retrievedCard(1, 0.91234567, strings.Repeat("s", 300))
	long := retrievedCard(2, 0.5, strings.Repeat("л", 301))
	index := &fakeIndex{results: []domain.RetrievedCard{short, long}}
	r := NewRetriever(&fakeEmbedder{vector: []float32{0.1}}, index)

	results, err := r.Search(context.Background(), "q", 2, domain.RetrievalFilter{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if results[0].TextPreview != short.Text {
		t.Fatalf("exactly 300 runes must not be truncated")
	}
	if results[0].Score != 0.9123 {
		t.Fatalf("expected score rounded to 4 decimals, got %v", results[0].Score)
	}
	preview := results[1].TextPreview
	if !strings.HasSuffix(preview, "...") {
		t.Fatalf("long preview should end with ellipsis: %q", preview)
	}
	if utf8.RuneCountInString(strings.TrimSuffix(preview, "...")) != 300 {
		t.Fatalf("preview body should be 300 runes, got %d",
			utf8.RuneCountInString(strings.TrimSuffix(preview, "...")))
	}
}
