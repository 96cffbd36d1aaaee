package mistral

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/cardcompass/credit-card-advisor/internal/infrastructure/resilience"
)

// classifyError decides retryability for Mistral failures: network
// errors and 408/429/5xx are transient; auth and validation statuses
// are permanent and do not trip the breaker.
func classifyError(err error) resilience.Classification {
	if err == nil {
		return resilience.Classification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.Classification{Retryable: false, RecordFailure: false}
	}
	if resilience.IsCircuitOpen(err) {
		return resilience.Classification{Retryable: true, RecordFailure: true}
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		if isRetryableStatus(statusErr.StatusCode) {
			return resilience.Classification{Retryable: true, RecordFailure: true}
		}
		return resilience.Classification{Retryable: false, RecordFailure: false}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.Classification{Retryable: true, RecordFailure: true}
	}

	return resilience.Classification{Retryable: false, RecordFailure: true}
}

func isRetryableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// ResilientEmbedder decorates an Embedder with bounded retries and a
// circuit breaker.
type ResilientEmbedder struct {
	inner    *Embedder
	executor *resilience.Executor
}

func NewResilientEmbedder(inner *Embedder, executor *resilience.Executor) *ResilientEmbedder {
	return &ResilientEmbedder{inner: inner, executor: executor}
}

func (e *ResilientEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var vectors [][]float32
	err := e.executor.Execute(ctx, "mistral_embed_batch", classifyError, func(ctx context.Context) error {
		var callErr error
		vectors, callErr = e.inner.EmbedBatch(ctx, texts)
		return callErr
	})
	if err != nil {
		return nil, err
	}
	return vectors, nil
}

func (e *ResilientEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	var vector []float32
	err := e.executor.Execute(ctx, "mistral_embed_query", classifyError, func(ctx context.Context) error {
		var callErr error
		vector, callErr = e.inner.EmbedQuery(ctx, text)
		return callErr
	})
	if err != nil {
		return nil, err
	}
	return vector, nil
}

// ResilientGenerator decorates a Generator the same way.
type ResilientGenerator struct {
	inner    *Generator
	executor *resilience.Executor
}

func NewResilientGenerator(inner *Generator, executor *resilience.Executor) *ResilientGenerator {
	return &ResilientGenerator{inner: inner, executor: executor}
}

func (g *ResilientGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	var answer string
	err := g.executor.Execute(ctx, "mistral_chat", classifyError, func(ctx context.Context) error {
		var callErr error
		answer, callErr = g.inner.Generate(ctx, prompt)
		return callErr
	})
	if err != nil {
		return "", err
	}
	return answer, nil
}
