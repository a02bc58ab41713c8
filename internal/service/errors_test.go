package service

import (
	"errors"
	"fmt"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"

	"github.com/mmynk/splitsettle/internal/auth"
	"github.com/mmynk/splitsettle/internal/ledger"
	"github.com/mmynk/splitsettle/internal/storage"
)

func TestToConnectError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want connect.Code
	}{
		{"validation", &ledger.ValidationError{Field: "amount", Reason: "bad"}, connect.CodeInvalidArgument},
		{"wrapped validation", fmt.Errorf("create: %w", &ledger.ValidationError{Field: "amount"}), connect.CodeInvalidArgument},
		{"integrity", &ledger.DataIntegrityError{GroupID: "g", UserID: "u"}, connect.CodeFailedPrecondition},
		{"stored non-participant", storage.RequireParticipants("g", []string{"a"}, []string{"z"}), connect.CodeFailedPrecondition},
		{"participant in use", storage.RequireRetained("g", []string{"a"}, []string{"b"}), connect.CodeFailedPrecondition},
		{"not found", fmt.Errorf("group g: %w", storage.ErrNotFound), connect.CodeNotFound},
		{"duplicate", fmt.Errorf("user: %w", storage.ErrDuplicate), connect.CodeAlreadyExists},
		{"email exists", auth.ErrEmailExists, connect.CodeAlreadyExists},
		{"permission", fmt.Errorf("%w: nope", errPermissionDenied), connect.CodePermissionDenied},
		{"invalid token", auth.ErrInvalidToken, connect.CodeUnauthenticated},
		{"revoked token", auth.ErrRevokedToken, connect.CodeUnauthenticated},
		{"weak password", auth.ErrWeakPassword, connect.CodeInvalidArgument},
		{"unknown", errors.New("disk on fire"), connect.CodeInternal},
		{"already connect", connect.NewError(connect.CodeUnavailable, errors.New("redis down")), connect.CodeUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, connect.CodeOf(toConnectError(tt.err)))
		})
	}

	assert.NoError(t, toConnectError(nil))
}
