package bootstrap

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	httpadapter "github.com/cardcompass/credit-card-advisor/internal/adapters/http"
	"github.com/cardcompass/credit-card-advisor/internal/config"
	"github.com/cardcompass/credit-card-advisor/internal/core/ports"
	"github.com/cardcompass/credit-card-advisor/internal/core/usecase"
	"github.com/cardcompass/credit-card-advisor/internal/infrastructure/artifact"
	"github.com/cardcompass/credit-card-advisor/internal/infrastructure/corpus"
	"github.com/cardcompass/credit-card-advisor/internal/infrastructure/llm/mistral"
	"github.com/cardcompass/credit-card-advisor/internal/infrastructure/resilience"
	"github.com/cardcompass/credit-card-advisor/internal/infrastructure/segmenter"
	"github.com/cardcompass/credit-card-advisor/internal/infrastructure/vector/pinecone"
)

type App struct {
	Config config.Config
	Meta   httpadapter.Meta

	Embedder  ports.Embedder
	Generator ports.AnswerGenerator
	Index     ports.VectorIndex

	Retriever *usecase.Retriever
	AnswerUC  *usecase.AnswerUseCase
	IngestUC  ports.CorpusIngestor
}

func New(cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rules, err := segmenter.LoadRules(cfg.RulesPath)
	if err != nil {
		return nil, fmt.Errorf("load segmentation rules: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultPolicy())

	mistralClient := mistral.New(cfg.MistralBaseURL, cfg.MistralAPIKey,
		cfg.MistralEmbedModel, cfg.MistralChatModel, cfg.ChatTemperature)
	embedder := mistral.NewResilientEmbedder(mistral.NewEmbedder(mistralClient), executor)
	generator := mistral.NewResilientGenerator(mistral.NewGenerator(mistralClient), executor)

	pineconeClient := pinecone.New(pinecone.Config{
		ControlURL:        cfg.PineconeControlURL,
		APIKey:            cfg.PineconeAPIKey,
		IndexName:         cfg.PineconeIndex,
		Namespace:         cfg.PineconeNamespace,
		Dimension:         cfg.EmbedDimension,
		Cloud:             cfg.PineconeCloud,
		Region:            cfg.PineconeRegion,
		MetadataTextLimit: cfg.MetadataTextLimit,
	})
	index := pinecone.NewResilientIndex(pineconeClient, executor)

	retriever := usecase.NewRetriever(embedder, index)
	answerUC := usecase.NewAnswerUseCase(retriever, generator, cfg.RAGTopK, cfg.MaxContextChars)
	ingestUC := usecase.NewIngestUseCase(
		corpus.New(cfg.CorpusDir),
		segmenter.New(rules),
		embedder,
		index,
		artifact.New(cfg.EmbeddingsPath),
		cfg.UpsertBatchSize,
		cfg.EmbedDimension,
	)

	return &App{
		Config:    cfg,
		Meta:      buildMeta(cfg.CorpusDir, rules),
		Embedder:  embedder,
		Generator: generator,
		Index:     index,
		Retriever: retriever,
		AnswerUC:  answerUC,
		IngestUC:  ingestUC,
	}, nil
}

// buildMeta derives the filter vocabulary: categories from the corpus
// file names, banks and reward types from the extraction rules.
func buildMeta(corpusDir string, rules segmenter.Rules) httpadapter.Meta {
	meta := httpadapter.Meta{}

	if paths, err := filepath.Glob(filepath.Join(corpusDir, "*.md")); err == nil {
		for _, path := range paths {
			base := filepath.Base(path)
			meta.Categories = append(meta.Categories, strings.TrimSuffix(base, filepath.Ext(base)))
		}
		sort.Strings(meta.Categories)
	}

	for _, rule := range rules.Banks {
		meta.Banks = append(meta.Banks, rule.Value)
	}
	for _, rule := range rules.RewardTypes {
		meta.RewardTypes = append(meta.RewardTypes, rule.Value)
	}
	if rules.RewardFallback != "" {
		meta.RewardTypes = append(meta.RewardTypes, rules.RewardFallback)
	}
	return meta
}
