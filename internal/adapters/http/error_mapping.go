package httpadapter

import (
	"net/http"

	"github.com/risknavigator/document-classifier/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrUploadsDisabled):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrObjectNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	case domain.IsKind(err, domain.ErrOracleUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
