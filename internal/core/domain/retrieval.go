package domain

// RetrievalFilter constrains a similarity search by exact metadata
// match. Empty fields impose no constraint; non-empty fields compose
// conjunctively.
type RetrievalFilter struct {
	Category   string
	Bank       string
	RewardType string
}

// IsZero reports whether no constraint is set.
func (f RetrievalFilter) IsZero() bool {
	return f.Category == "" && f.Bank == "" && f.RewardType == ""
}

// Fields returns the present constraints as a flat key/value map in
// index wire form.
func (f RetrievalFilter) Fields() map[string]string {
	out := make(map[string]string, 3)
	if f.Category != "" {
		out["category"] = f.Category
	}
	if f.Bank != "" {
		out["bank"] = f.Bank
	}
	if f.RewardType != "" {
		out["reward_type"] = f.RewardType
	}
	return out
}

// RetrievedCard is one similarity match, ranked by descending Score.
// Text carries the stored description from index metadata, already
// truncated to the index metadata cap at ingestion time.
type RetrievedCard struct {
	ID       string       `json:"id"`
	Score    float64      `json:"score"`
	Metadata CardMetadata `json:"metadata"`
	Text     string       `json:"text"`
}

// SearchResult is the external shape of one match for the raw search
// endpoint: metadata plus a bounded text preview.
type SearchResult struct {
	ID          string  `json:"id"`
	Score       float64 `json:"score"`
	CardName    string  `json:"card_name"`
	Bank        string  `json:"bank"`
	Category    string  `json:"category"`
	RewardType  string  `json:"reward_type"`
	TextPreview string  `json:"text_preview"`
}

// SourceRef cites one retrieved card in an answer.
type SourceRef struct {
	CardName string  `json:"card_name"`
	Bank     string  `json:"bank"`
	Category string  `json:"category"`
	Score    float64 `json:"score"`
}

// Answer is a generated response grounded in retrieved cards.
type Answer struct {
	Question       string            `json:"question"`
	Answer         string            `json:"answer"`
	Sources        []SourceRef       `json:"sources"`
	FiltersApplied map[string]string `json:"filters_applied,omitempty"`
}

// IndexStats summarizes the live vector index.
type IndexStats struct {
	TotalVectorCount int `json:"total_vector_count"`
	Dimension        int `json:"dimension"`
}
