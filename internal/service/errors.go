package service

import (
	"errors"

	"connectrpc.com/connect"

	"github.com/mmynk/splitsettle/internal/auth"
	"github.com/mmynk/splitsettle/internal/ledger"
	"github.com/mmynk/splitsettle/internal/storage"
)

var errPermissionDenied = errors.New("permission denied")

// toConnectError maps domain errors onto Connect status codes. Errors that are
// already *connect.Error pass through unchanged.
func toConnectError(err error) error {
	if err == nil {
		return nil
	}

	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return connectErr
	}

	var validation *ledger.ValidationError
	var integrity *ledger.DataIntegrityError
	switch {
	case errors.As(err, &validation):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.As(err, &integrity),
		errors.Is(err, storage.ErrNotParticipant), errors.Is(err, storage.ErrParticipantInUse):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, storage.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, storage.ErrDuplicate), errors.Is(err, auth.ErrEmailExists):
		return connect.NewError(connect.CodeAlreadyExists, err)
	case errors.Is(err, errPermissionDenied):
		return connect.NewError(connect.CodePermissionDenied, err)
	case errors.Is(err, auth.ErrMissingToken), errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrRevokedToken), errors.Is(err, auth.ErrInvalidCredentials):
		return connect.NewError(connect.CodeUnauthenticated, err)
	case errors.Is(err, auth.ErrWeakPassword):
		return connect.NewError(connect.CodeInvalidArgument, err)
	}
	return connect.NewError(connect.CodeInternal, err)
}
