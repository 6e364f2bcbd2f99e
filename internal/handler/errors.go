// internal/handler/errors.go
package handler

import (
	"context"
	"errors"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"wallet-sync-service/internal/domain"
)

// grpcCode maps a usecase error to the status code returned to clients
func grpcCode(err error) codes.Code {
	switch {
	case errors.Is(err, domain.ErrInvalidSubject),
		errors.Is(err, domain.ErrInvalidAddress),
		errors.Is(err, domain.ErrMessageTooLong):
		return codes.InvalidArgument

	case errors.Is(err, domain.ErrDestinationNotInitialized),
		errors.Is(err, domain.ErrNotEnoughFunds),
		errors.Is(err, domain.ErrPublicKeyMismatch),
		errors.Is(err, domain.ErrSecretDecryptionFailed):
		return codes.FailedPrecondition

	case errors.Is(err, domain.ErrWalletNotFound):
		return codes.NotFound

	case errors.Is(err, domain.ErrNetwork):
		return codes.Unavailable

	case errors.Is(err, domain.ErrCancelled), errors.Is(err, context.Canceled):
		return codes.Canceled

	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	}
	return codes.Internal
}

func toStatus(err error) error {
	return status.Error(grpcCode(err), err.Error())
}

// httpStatus maps a usecase error for the REST surface
func httpStatus(err error) int {
	switch grpcCode(err) {
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.FailedPrecondition:
		return http.StatusUnprocessableEntity
	case codes.NotFound:
		return http.StatusNotFound
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	case codes.Canceled:
		return 499
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}
