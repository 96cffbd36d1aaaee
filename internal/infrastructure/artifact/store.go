package artifact

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cardcompass/credit-card-advisor/internal/core/domain"
)

// Store persists the intermediate embedding artifact: a JSON array of
// {id, text, embedding, metadata} records. It lets the indexing step
// run without calling the embedding provider again.
type Store struct {
	path string
}

func New(path string) *Store {
	if path == "" {
		path = "./embeddings/credit_cards_embeddings.json"
	}
	return &Store{path: path}
}

func (s *Store) Save(_ context.Context, cards []domain.EmbeddedCard) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}

	data, err := json.MarshalIndent(cards, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal embeddings: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write embeddings artifact: %w", err)
	}
	return nil
}

func (s *Store) Load(_ context.Context) ([]domain.EmbeddedCard, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read embeddings artifact: %w", err)
	}

	var cards []domain.EmbeddedCard
	if err := json.Unmarshal(data, &cards); err != nil {
		return nil, fmt.Errorf("parse embeddings artifact: %w", err)
	}
	return cards, nil
}
