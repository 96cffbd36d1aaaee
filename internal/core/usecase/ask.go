package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/cardcompass/credit-card-advisor/internal/core/domain"
	"github.com/cardcompass/credit-card-advisor/internal/core/ports"
)

const advisorPromptTemplate = `You are an expert credit card advisor with deep knowledge of Indian credit cards.
Your role is to provide accurate, helpful recommendations based on the user's needs.

Based on the following credit card information, answer the user's question comprehensively.

Credit Card Information:
%s

User Question: %s

Instructions:
1. Recommend the most suitable credit card(s) based on the context
2. Explain key benefits and features
3. Mention any fees or requirements
4. Be specific and cite card names
5. If comparing cards, highlight differences
6. Keep your answer concise but informative

Answer:
`

// AnswerUseCase is the answering orchestrator: it retrieves once,
// builds the grounding context and the cited sources from that same
// result set, and only then calls the generative model.
type AnswerUseCase struct {
	retriever       *Retriever
	generator       ports.AnswerGenerator
	topK            int
	maxContextChars int
}

func NewAnswerUseCase(retriever *Retriever, generator ports.AnswerGenerator, topK, maxContextChars int) *AnswerUseCase {
	if topK <= 0 {
		topK = 3
	}
	if maxContextChars <= 0 {
		maxContextChars = 3000
	}
	return &AnswerUseCase{
		retriever:       retriever,
		generator:       generator,
		topK:            topK,
		maxContextChars: maxContextChars,
	}
}

func (uc *AnswerUseCase) Ask(ctx context.Context, question string, filter domain.RetrievalFilter) (*domain.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "ask", errors.New("question is required"))
	}

	results, err := uc.retriever.Retrieve(ctx, question, uc.topK, filter)
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}

	contextText := uc.retriever.BuildContext(results, uc.maxContextChars)
	prompt := fmt.Sprintf(advisorPromptTemplate, contextText, question)

	answerText, err := uc.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	answer := &domain.Answer{
		Question: question,
		Answer:   answerText,
		Sources:  sourcesFrom(results),
	}
	if !filter.IsZero() {
		answer.FiltersApplied = filter.Fields()
	}
	return answer, nil
}

// Compare phrases a multi-card comparison as a question and answers
// it without filters.
func (uc *AnswerUseCase) Compare(ctx context.Context, cardNames []string) (*domain.Answer, error) {
	names := make([]string, 0, len(cardNames))
	for _, name := range cardNames {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	if len(names) < 2 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "compare",
			errors.New("at least two card names are required"))
	}

	question := fmt.Sprintf(
		"Compare these credit cards: %s. What are the key differences and which one is better for different use cases?",
		strings.Join(names, ", "),
	)
	return uc.Ask(ctx, question, domain.RetrievalFilter{})
}

// Recommend phrases a personalized recommendation request as a
// question from the use case, budget and preferences.
func (uc *AnswerUseCase) Recommend(ctx context.Context, useCase, budget string, preferences []string) (*domain.Answer, error) {
	useCase = strings.TrimSpace(useCase)
	if useCase == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "recommend",
			errors.New("use case is required"))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "I need a credit card for %s.", useCase)
	if budget != "" {
		fmt.Fprintf(&b, " My budget is %s.", budget)
	}
	if len(preferences) > 0 {
		fmt.Fprintf(&b, " I prefer cards with: %s.", strings.Join(preferences, ", "))
	}
	b.WriteString(" What do you recommend?")

	return uc.Ask(ctx, b.String(), domain.RetrievalFilter{})
}

func sourcesFrom(results []domain.RetrievedCard) []domain.SourceRef {
	sources := make([]domain.SourceRef, 0, len(results))
	for _, card := range results {
		sources = append(sources, domain.SourceRef{
			CardName: card.Metadata.CardName,
			Bank:     card.Metadata.Bank,
			Category: card.Metadata.Category,
			Score:    roundScore(card.Score),
		})
	}
	return sources
}

func roundScore(score float64) float64 {
	return math.Round(score*10000) / 10000
}
