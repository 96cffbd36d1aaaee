package pinecone

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/cardcompass/credit-card-advisor/internal/core/domain"
)

// fakePinecone serves both the control plane and the data plane from
// one server; describe responses point the client back at the same
// host.
type fakePinecone struct {
	mux *http.ServeMux

	indexExists bool
	ready       bool
	dimension   int

	created       bool
	upsertBodies  []map[string]any
	queryBodies   []map[string]any
	deleteCalls   int
	statsResponse map[string]any
}

func newFakePinecone(t *testing.T) (*fakePinecone, *httptest.Server) {
	t.Helper()
	fake := &fakePinecone{
		mux:       http.NewServeMux(),
		dimension: 4,
		statsResponse: map[string]any{
			"totalVectorCount": 0,
			"dimension":        4,
		},
	}
	server := httptest.NewServer(fake.mux)
	t.Cleanup(server.Close)

	requireMethod := func(method string, h http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Method != method {
				http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
				return
			}
			h(w, r)
		}
	}

	fake.mux.HandleFunc("/indexes/", requireMethod(http.MethodGet, func(w http.ResponseWriter, r *http.Request) {
		if !fake.indexExists {
			http.Error(w, `{"error":{"code":"NOT_FOUND"}}`, http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"name":      strings.TrimPrefix(r.URL.Path, "/indexes/"),
			"dimension": fake.dimension,
			"metric":    "cosine",
			"host":      server.URL,
			"status":    map[string]any{"ready": fake.ready, "state": "Ready"},
		})
	}))
	fake.mux.HandleFunc("/indexes", requireMethod(http.MethodPost, func(w http.ResponseWriter, r *http.Request) {
		fake.created = true
		fake.indexExists = true
		fake.ready = true
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"name": "credit-cards"})
	}))
	fake.mux.HandleFunc("/vectors/upsert", requireMethod(http.MethodPost, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		fake.upsertBodies = append(fake.upsertBodies, body)
		_ = json.NewEncoder(w).Encode(map[string]any{"upsertedCount": len(body["vectors"].([]any))})
	}))
	fake.mux.HandleFunc("/query", requireMethod(http.MethodPost, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		fake.queryBodies = append(fake.queryBodies, body)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"matches": []map[string]any{
				{
					"id":    "card_1",
					"score": 0.93,
					"metadata": map[string]string{
						"card_name":   "Axis Atlas",
						"bank":        "Axis Bank",
						"category":    "travel",
						"reward_type": "miles",
						"use_case":    "travel",
						"source":      "travel.md",
						"text":        "Earn 5 EDGE Miles per 200 spent.",
					},
				},
			},
		})
	}))
	fake.mux.HandleFunc("/vectors/delete", requireMethod(http.MethodPost, func(w http.ResponseWriter, r *http.Request) {
		fake.deleteCalls++
		_ = json.NewEncoder(w).Encode(map[string]any{})
	}))
	fake.mux.HandleFunc("/describe_index_stats", requireMethod(http.MethodPost, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(fake.statsResponse)
	}))
	return fake, server
}

func newTestClient(serverURL string) *Client {
	return New(Config{
		ControlURL:        serverURL,
		APIKey:            "test-key",
		IndexName:         "credit-cards",
		Dimension:         4,
		MetadataTextLimit: 1000,
	})
}

func TestEnsureReadyCreatesMissingIndex(t *testing.T) {
	fake, server := newFakePinecone(t)
	client := newTestClient(server.URL)

	if err := client.EnsureReady(context.Background()); err != nil {
		t.Fatalf("EnsureReady: %v", err)
	}
	if !fake.created {
		t.Fatal("expected index creation for missing index")
	}
}

func TestEnsureReadyDimensionMismatch(t *testing.T) {
	fake, server := newFakePinecone(t)
	fake.indexExists = true
	fake.ready = true
	fake.dimension = 8

	client := newTestClient(server.URL)
	err := client.EnsureReady(context.Background())
	if !domain.IsKind(err, domain.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestUpsertFlattensMetadataAndCapsText(t *testing.T) {
	fake, server := newFakePinecone(t)
	fake.indexExists = true
	fake.ready = true
	client := newTestClient(server.URL)

	longText := strings.Repeat("x", 1500)
	card := domain.EmbeddedCard{
		ID:        "card_1",
		Text:      longText,
		Embedding: []float32{0.1, 0.2, 0.3, 0.4},
		Metadata: domain.CardMetadata{
			Category:   "travel",
			CardName:   "Axis Atlas",
			Bank:       "Axis Bank",
			RewardType: "miles",
			UseCase:    "travel",
			Source:     "travel.md",
		},
	}
	if err := client.Upsert(context.Background(), []domain.EmbeddedCard{card}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	vectors := fake.upsertBodies[0]["vectors"].([]any)
	if len(vectors) != 1 {
		t.Fatalf("expected 1 vector, got %d", len(vectors))
	}
	metadata := vectors[0].(map[string]any)["metadata"].(map[string]any)
	if metadata["card_name"] != "Axis Atlas" || metadata["reward_type"] != "miles" {
		t.Fatalf("metadata not flattened: %v", metadata)
	}
	if got := metadata["text"].(string); utf8.RuneCountInString(got) != 1000 {
		t.Fatalf("expected text capped at 1000 runes, got %d", utf8.RuneCountInString(got))
	}
}

func TestUpsertTextCapNeverSplitsRunes(t *testing.T) {
	fake, server := newFakePinecone(t)
	fake.indexExists = true
	fake.ready = true
	client := newTestClient(server.URL)

	// 999 ASCII characters followed by rupee signs: a byte-based cap
	// would cut inside the first multibyte character.
	card := domain.EmbeddedCard{
		ID:        "card_1",
		Text:      strings.Repeat("a", 999) + strings.Repeat("₹", 10),
		Embedding: []float32{0.1, 0.2, 0.3, 0.4},
	}
	if err := client.Upsert(context.Background(), []domain.EmbeddedCard{card}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	vectors := fake.upsertBodies[0]["vectors"].([]any)
	got := vectors[0].(map[string]any)["metadata"].(map[string]any)["text"].(string)
	if !utf8.ValidString(got) {
		t.Fatalf("stored text is not valid UTF-8 after truncation: %q", got[len(got)-4:])
	}
	if utf8.RuneCountInString(got) != 1000 {
		t.Fatalf("expected 1000 runes, got %d", utf8.RuneCountInString(got))
	}
	if !strings.HasSuffix(got, "₹") {
		t.Fatalf("expected the thousandth rune kept whole, tail %q", got[len(got)-4:])
	}
}

func TestUpsertEmptyBatchShortCircuits(t *testing.T) {
	fake, server := newFakePinecone(t)
	fake.indexExists = true
	fake.ready = true
	client := newTestClient(server.URL)

	if err := client.Upsert(context.Background(), nil); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if len(fake.upsertBodies) != 0 {
		t.Fatal("empty batch must not hit the wire")
	}
}

func TestQueryBuildsEqualityFilter(t *testing.T) {
	fake, server := newFakePinecone(t)
	fake.indexExists = true
	fake.ready = true
	client := newTestClient(server.URL)

	filter := domain.RetrievalFilter{Category: "travel", RewardType: "miles"}
	results, err := client.Query(context.Background(), []float32{0.1, 0.2, 0.3, 0.4}, 3, filter)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}

	body := fake.queryBodies[0]
	if body["topK"].(float64) != 3 {
		t.Fatalf("expected topK 3, got %v", body["topK"])
	}
	if body["includeMetadata"] != true {
		t.Fatal("expected includeMetadata true")
	}
	wire := body["filter"].(map[string]any)
	if wire["category"].(map[string]any)["$eq"] != "travel" {
		t.Fatalf("category filter missing: %v", wire)
	}
	if wire["reward_type"].(map[string]any)["$eq"] != "miles" {
		t.Fatalf("reward_type filter missing: %v", wire)
	}
	if _, ok := wire["bank"]; ok {
		t.Fatalf("empty bank must not appear in the filter: %v", wire)
	}

	if len(results) != 1 || results[0].Metadata.CardName != "Axis Atlas" {
		t.Fatalf("unexpected results: %+v", results)
	}
	if results[0].Text == "" {
		t.Fatal("expected text lifted from metadata")
	}
}

func TestQueryWithoutFilterOmitsFilterKey(t *testing.T) {
	fake, server := newFakePinecone(t)
	fake.indexExists = true
	fake.ready = true
	client := newTestClient(server.URL)

	if _, err := client.Query(context.Background(), []float32{0.1}, 3, domain.RetrievalFilter{}); err != nil {
		t.Fatalf("Query: %v", err)
	}
	if _, ok := fake.queryBodies[0]["filter"]; ok {
		t.Fatal("unfiltered query must omit the filter key")
	}
}

func TestQueryAgainstMissingIndex(t *testing.T) {
	_, server := newFakePinecone(t)
	client := newTestClient(server.URL)

	_, err := client.Query(context.Background(), []float32{0.1}, 3, domain.RetrievalFilter{})
	if !domain.IsKind(err, domain.ErrIndexNotReady) {
		t.Fatalf("expected ErrIndexNotReady for missing index, got %v", err)
	}
}

func TestDeleteAllAndStats(t *testing.T) {
	fake, server := newFakePinecone(t)
	fake.indexExists = true
	fake.ready = true
	fake.statsResponse = map[string]any{"totalVectorCount": 57, "dimension": 4}
	client := newTestClient(server.URL)

	if err := client.DeleteAll(context.Background()); err != nil {
		t.Fatalf("DeleteAll: %v", err)
	}
	if fake.deleteCalls != 1 {
		t.Fatalf("expected 1 delete call, got %d", fake.deleteCalls)
	}

	stats, err := client.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalVectorCount != 57 || stats.Dimension != 4 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}
