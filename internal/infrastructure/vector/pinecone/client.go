package pinecone

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cardcompass/credit-card-advisor/internal/core/domain"
)

const defaultControlURL = "https://api.pinecone.io"

// Config carries the index deployment settings.
type Config struct {
	ControlURL string
	APIKey     string
	IndexName  string
	Namespace  string
	Dimension  int
	Metric     string
	Cloud      string
	Region     string
	// MetadataTextLimit caps the description text stored as index
	// metadata (deployment constraint of the index service, distinct
	// from the context-assembly budget).
	MetadataTextLimit int
}

func (c Config) withDefaults() Config {
	out := c
	if out.ControlURL == "" {
		out.ControlURL = defaultControlURL
	}
	if out.Metric == "" {
		out.Metric = "cosine"
	}
	if out.Cloud == "" {
		out.Cloud = "aws"
	}
	if out.Region == "" {
		out.Region = "us-east-1"
	}
	if out.MetadataTextLimit <= 0 {
		out.MetadataTextLimit = 1000
	}
	return out
}

// Client is the similarity index gateway: control-plane calls manage
// the index lifecycle, data-plane calls hit the resolved index host.
type Client struct {
	cfg        Config
	httpClient *http.Client

	hostMu sync.Mutex
	host   string
}

func New(cfg Config) *Client {
	return &Client{
		cfg:        cfg.withDefaults(),
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

type indexDescription struct {
	Name      string `json:"name"`
	Dimension int    `json:"dimension"`
	Metric    string `json:"metric"`
	Host      string `json:"host"`
	Status    struct {
		Ready bool   `json:"ready"`
		State string `json:"state"`
	} `json:"status"`
}

// EnsureReady creates the index when absent and polls until it reports
// ready, bounded by the context deadline. A dimension mismatch with an
// existing index is a configuration error, not a runtime one.
func (c *Client) EnsureReady(ctx context.Context) error {
	desc, err := c.describeIndex(ctx)
	if err != nil {
		if !isNotFound(err) {
			return domain.WrapError(domain.ErrIndexService, "describe index", err)
		}
		if err := c.createIndex(ctx); err != nil {
			return domain.WrapError(domain.ErrIndexService, "create index", err)
		}
	} else if desc.Dimension != c.cfg.Dimension {
		return domain.WrapError(domain.ErrConfiguration, "ensure index",
			fmt.Errorf("index dimension %d does not match configured %d", desc.Dimension, c.cfg.Dimension))
	}

	return c.waitUntilReady(ctx)
}

func (c *Client) waitUntilReady(ctx context.Context) error {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		desc, err := c.describeIndex(ctx)
		if err == nil && desc.Status.Ready {
			c.setHost(desc.Host)
			return nil
		}
		if err != nil && !isNotFound(err) {
			return domain.WrapError(domain.ErrIndexService, "poll index status", err)
		}

		select {
		case <-ctx.Done():
			return domain.WrapError(domain.ErrIndexNotReady, "wait for index",
				fmt.Errorf("index %q not ready: %w", c.cfg.IndexName, ctx.Err()))
		case <-ticker.C:
		}
	}
}

func (c *Client) createIndex(ctx context.Context) error {
	body := map[string]any{
		"name":      c.cfg.IndexName,
		"dimension": c.cfg.Dimension,
		"metric":    c.cfg.Metric,
		"spec": map[string]any{
			"serverless": map[string]any{
				"cloud":  c.cfg.Cloud,
				"region": c.cfg.Region,
			},
		},
	}
	var desc indexDescription
	err := c.doJSON(ctx, http.MethodPost, c.cfg.ControlURL+"/indexes", body, &desc, "create_index")
	if err != nil && !isConflict(err) {
		return err
	}
	return nil
}

func (c *Client) describeIndex(ctx context.Context) (*indexDescription, error) {
	var desc indexDescription
	url := fmt.Sprintf("%s/indexes/%s", c.cfg.ControlURL, c.cfg.IndexName)
	if err := c.doJSON(ctx, http.MethodGet, url, nil, &desc, "describe_index"); err != nil {
		return nil, err
	}
	return &desc, nil
}

// Upsert writes one batch of vectors. Metadata is flattened to scalar
// strings and the stored text is truncated to the metadata cap.
func (c *Client) Upsert(ctx context.Context, batch []domain.EmbeddedCard) error {
	if len(batch) == 0 {
		return nil
	}

	host, err := c.dataHost(ctx)
	if err != nil {
		return err
	}

	type vector struct {
		ID       string            `json:"id"`
		Values   []float32         `json:"values"`
		Metadata map[string]string `json:"metadata"`
	}

	vectors := make([]vector, 0, len(batch))
	for _, card := range batch {
		vectors = append(vectors, vector{
			ID:       card.ID,
			Values:   card.Embedding,
			Metadata: c.flattenMetadata(card),
		})
	}

	body := map[string]any{
		"vectors":   vectors,
		"namespace": c.cfg.Namespace,
	}
	var resp struct {
		UpsertedCount int `json:"upsertedCount"`
	}
	if err := c.doJSON(ctx, http.MethodPost, host+"/vectors/upsert", body, &resp, "upsert"); err != nil {
		return domain.WrapError(domain.ErrIndexService, "upsert vectors", err)
	}
	return nil
}

func (c *Client) Query(ctx context.Context, queryVector []float32, topK int, filter domain.RetrievalFilter) ([]domain.RetrievedCard, error) {
	host, err := c.dataHost(ctx)
	if err != nil {
		return nil, err
	}

	body := map[string]any{
		"vector":          queryVector,
		"topK":            topK,
		"namespace":       c.cfg.Namespace,
		"includeMetadata": true,
	}
	if !filter.IsZero() {
		must := make(map[string]any, 3)
		for key, value := range filter.Fields() {
			must[key] = map[string]any{"$eq": value}
		}
		body["filter"] = must
	}

	var resp struct {
		Matches []struct {
			ID       string            `json:"id"`
			Score    float64           `json:"score"`
			Metadata map[string]string `json:"metadata"`
		} `json:"matches"`
	}
	if err := c.doJSON(ctx, http.MethodPost, host+"/query", body, &resp, "query"); err != nil {
		return nil, domain.WrapError(domain.ErrIndexService, "query index", err)
	}

	out := make([]domain.RetrievedCard, 0, len(resp.Matches))
	for _, match := range resp.Matches {
		out = append(out, domain.RetrievedCard{
			ID:    match.ID,
			Score: match.Score,
			Metadata: domain.CardMetadata{
				Category:   match.Metadata["category"],
				CardName:   match.Metadata["card_name"],
				Bank:       match.Metadata["bank"],
				RewardType: match.Metadata["reward_type"],
				UseCase:    match.Metadata["use_case"],
				Source:     match.Metadata["source"],
			},
			Text: match.Metadata["text"],
		})
	}
	return out, nil
}

func (c *Client) DeleteAll(ctx context.Context) error {
	host, err := c.dataHost(ctx)
	if err != nil {
		return err
	}

	body := map[string]any{
		"deleteAll": true,
		"namespace": c.cfg.Namespace,
	}
	var resp struct{}
	if err := c.doJSON(ctx, http.MethodPost, host+"/vectors/delete", body, &resp, "delete_all"); err != nil {
		return domain.WrapError(domain.ErrIndexService, "delete all vectors", err)
	}
	return nil
}

func (c *Client) Stats(ctx context.Context) (domain.IndexStats, error) {
	host, err := c.dataHost(ctx)
	if err != nil {
		return domain.IndexStats{}, err
	}

	var resp struct {
		TotalVectorCount int `json:"totalVectorCount"`
		Dimension        int `json:"dimension"`
	}
	if err := c.doJSON(ctx, http.MethodPost, host+"/describe_index_stats", map[string]any{}, &resp, "stats"); err != nil {
		return domain.IndexStats{}, domain.WrapError(domain.ErrIndexService, "index stats", err)
	}
	return domain.IndexStats{
		TotalVectorCount: resp.TotalVectorCount,
		Dimension:        resp.Dimension,
	}, nil
}

func (c *Client) flattenMetadata(card domain.EmbeddedCard) map[string]string {
	// The cap counts runes so a cut never lands inside a multibyte
	// character (currency signs are common in card descriptions).
	text := card.Text
	if runes := []rune(text); len(runes) > c.cfg.MetadataTextLimit {
		text = string(runes[:c.cfg.MetadataTextLimit])
	}
	return map[string]string{
		"card_name":   card.Metadata.CardName,
		"bank":        card.Metadata.Bank,
		"category":    card.Metadata.Category,
		"reward_type": card.Metadata.RewardType,
		"use_case":    card.Metadata.UseCase,
		"source":      card.Metadata.Source,
		"text":        text,
	}
}

// dataHost resolves and caches the index data-plane endpoint.
func (c *Client) dataHost(ctx context.Context) (string, error) {
	c.hostMu.Lock()
	host := c.host
	c.hostMu.Unlock()
	if host != "" {
		return host, nil
	}

	desc, err := c.describeIndex(ctx)
	if err != nil {
		if isNotFound(err) {
			return "", domain.WrapError(domain.ErrIndexNotReady, "resolve index host",
				fmt.Errorf("index %q does not exist", c.cfg.IndexName))
		}
		return "", domain.WrapError(domain.ErrIndexService, "resolve index host", err)
	}
	c.setHost(desc.Host)

	c.hostMu.Lock()
	defer c.hostMu.Unlock()
	if c.host == "" {
		return "", domain.WrapError(domain.ErrIndexNotReady, "resolve index host",
			fmt.Errorf("index %q has no host yet", c.cfg.IndexName))
	}
	return c.host, nil
}

func (c *Client) setHost(host string) {
	host = strings.TrimSpace(host)
	if host == "" {
		return
	}
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "https://" + host
	}
	c.hostMu.Lock()
	c.host = strings.TrimRight(host, "/")
	c.hostMu.Unlock()
}
