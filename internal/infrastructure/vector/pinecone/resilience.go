package pinecone

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/cardcompass/credit-card-advisor/internal/core/domain"
	"github.com/cardcompass/credit-card-advisor/internal/infrastructure/resilience"
)

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
	// Provisioning is handled by the EnsureReady poll loop, not by
	// blind retries.
	if domain.IsKind(err, domain.ErrIndexNotReady) || domain.IsKind(err, domain.ErrConfiguration) {
		return resilience.Classification{Retryable: false, RecordFailure: false}
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case http.StatusRequestTimeout,
			http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return resilience.Classification{Retryable: true, RecordFailure: true}
		default:
			return resilience.Classification{Retryable: false, RecordFailure: false}
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.Classification{Retryable: true, RecordFailure: true}
	}

	return resilience.Classification{Retryable: false, RecordFailure: true}
}

// ResilientIndex decorates the index gateway with bounded retries and
// a circuit breaker per operation.
type ResilientIndex struct {
	inner    *Client
	executor *resilience.Executor
}

func NewResilientIndex(inner *Client, executor *resilience.Executor) *ResilientIndex {
	return &ResilientIndex{inner: inner, executor: executor}
}

func (r *ResilientIndex) EnsureReady(ctx context.Context) error {
	// EnsureReady already polls with its own bound; the executor would
	// only multiply waiting.
	return r.inner.EnsureReady(ctx)
}

func (r *ResilientIndex) Upsert(ctx context.Context, batch []domain.EmbeddedCard) error {
	return r.executor.Execute(ctx, "pinecone_upsert", classifyError, func(ctx context.Context) error {
		return r.inner.Upsert(ctx, batch)
	})
}

func (r *ResilientIndex) Query(ctx context.Context, vector []float32, topK int, filter domain.RetrievalFilter) ([]domain.RetrievedCard, error) {
	var results []domain.RetrievedCard
	err := r.executor.Execute(ctx, "pinecone_query", classifyError, func(ctx context.Context) error {
		var callErr error
		results, callErr = r.inner.Query(ctx, vector, topK, filter)
		return callErr
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (r *ResilientIndex) DeleteAll(ctx context.Context) error {
	return r.executor.Execute(ctx, "pinecone_delete_all", classifyError, func(ctx context.Context) error {
		return r.inner.DeleteAll(ctx)
	})
}

func (r *ResilientIndex) Stats(ctx context.Context) (domain.IndexStats, error) {
	var stats domain.IndexStats
	err := r.executor.Execute(ctx, "pinecone_stats", classifyError, func(ctx context.Context) error {
		var callErr error
		stats, callErr = r.inner.Stats(ctx)
		return callErr
	})
	if err != nil {
		return domain.IndexStats{}, err
	}
	return stats, nil
}
