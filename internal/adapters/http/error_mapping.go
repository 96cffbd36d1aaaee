package httpadapter

import (
	"net/http"

	"github.com/cardcompass/credit-card-advisor/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrIndexNotReady):
		return http.StatusServiceUnavailable
	case domain.IsKind(err, domain.ErrEmbeddingService),
		domain.IsKind(err, domain.ErrIndexService):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
