package controllers

import (
	"net/http"

	"github.com/mad23dog/nomad-detroit-coffee/app/services"
	"github.com/mad23dog/nomad-detroit-coffee/pkg/response"
)

// statusFor maps a service error code onto its HTTP status. Validation
// failures are the client's fault, lookups that miss are 404, an
// unreachable payment authority is an upstream failure, and anything the
// storage layer broke is a 500.
func statusFor(code string) int {
	switch code {
	case services.CodeOrderNotFound, services.CodeProductNotFound:
		return http.StatusNotFound
	case services.CodeInvalidCredentials:
		return http.StatusUnauthorized
	case services.CodePaymentAuthority:
		return http.StatusBadGateway
	case services.CodeStorageError:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

func writeServiceError(w http.ResponseWriter, err *services.Error) {
	if err.Code == services.CodeStorageError {
		// Storage details stay in the logs, not the response body.
		response.Internal(w)
		return
	}
	response.Error(w, statusFor(err.Code), err.Code, err.Message)
}
