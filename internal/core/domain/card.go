package domain

// CardMetadata is the structured metadata extracted for one credit card.
// Extraction is best-effort: Bank and RewardType may stay empty when no
// keyword rule matches, which is not an error.
type CardMetadata struct {
	Category   string `json:"category"`
	CardName   string `json:"card_name"`
	Bank       string `json:"bank"`
	RewardType string `json:"reward_type"`
	UseCase    string `json:"use_case"`
	Source     string `json:"source"`
}

// RawDocument is one source corpus file before segmentation.
type RawDocument struct {
	Text        string
	SourceLabel string
}

// CardDocument is one issuer product: the full description text of a
// single numbered corpus entry plus its derived metadata.
type CardDocument struct {
	ID       string       `json:"id"`
	Text     string       `json:"text"`
	Metadata CardMetadata `json:"metadata"`
}

// EmbeddedCard is a CardDocument paired with its embedding vector.
type EmbeddedCard struct {
	ID        string       `json:"id"`
	Text      string       `json:"text"`
	Embedding []float32    `json:"embedding"`
	Metadata  CardMetadata `json:"metadata"`
}
