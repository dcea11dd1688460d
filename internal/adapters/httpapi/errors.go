package httpapi

import (
	"net/http"

	"clientcore/pkg/domain"
)

const (
	codeInvalidBody = "invalid_body"
	codeStoreError  = "store_error"
	codeInternal    = "internal"
)

// failureResponse maps a service error onto a status and error body.
// NotFound is 404, every other rejection 400, store failures 500.
func failureResponse(err error) (int, errorResponse) {
	if rej, ok := domain.AsRejection(err); ok {
		status := http.StatusBadRequest
		if rej.Kind == domain.KindNotFound {
			status = http.StatusNotFound
		}
		return status, errorResponse{Error: rej.Error(), Code: string(rej.Kind)}
	}
	if domain.IsStoreError(err) {
		return http.StatusInternalServerError, errorResponse{Error: err.Error(), Code: codeStoreError}
	}
	return http.StatusInternalServerError, errorResponse{Error: err.Error(), Code: codeInternal}
}
