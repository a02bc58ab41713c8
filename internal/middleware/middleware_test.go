package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitsettle/internal/auth"
	"github.com/mmynk/splitsettle/internal/models"
)

type echoRequest struct{}

// call runs interceptor around a handler that records the context it saw.
func call(t *testing.T, interceptor connect.UnaryInterceptorFunc, procedure, authHeader string) (context.Context, error) {
	t.Helper()
	var seen context.Context
	next := func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		seen = ctx
		return connect.NewResponse(&echoRequest{}), nil
	}

	req := connect.NewRequest(&echoRequest{})
	if authHeader != "" {
		req.Header().Set("Authorization", authHeader)
	}
	// Spec is normally filled in by the framework.
	_, err := interceptor(next)(context.Background(), &specRequest{Request: req, procedure: procedure})
	return seen, err
}

type specRequest struct {
	*connect.Request[echoRequest]
	procedure string
}

func (r *specRequest) Spec() connect.Spec {
	return connect.Spec{Procedure: r.procedure, StreamType: connect.StreamTypeUnary}
}

func TestRequireAuth(t *testing.T) {
	jwtManager := auth.NewJWTManager("secret", time.Hour)
	revoker := auth.NewMemoryRevoker()
	interceptor := RequireAuth(jwtManager, revoker, "/svc/Login")

	user := &models.User{ID: "u1", Email: "u1@example.com", Role: models.RoleViewer}
	token, err := jwtManager.Generate(user)
	require.NoError(t, err)

	t.Run("public procedure skips auth", func(t *testing.T) {
		ctx, err := call(t, interceptor, "/svc/Login", "")
		require.NoError(t, err)
		assert.Empty(t, GetUserID(ctx))
	})

	t.Run("missing header", func(t *testing.T) {
		_, err := call(t, interceptor, "/svc/Private", "")
		assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))
		assert.ErrorIs(t, err, auth.ErrMissingToken)
	})

	t.Run("malformed header", func(t *testing.T) {
		_, err := call(t, interceptor, "/svc/Private", "Token "+token)
		assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))
	})

	t.Run("invalid token", func(t *testing.T) {
		_, err := call(t, interceptor, "/svc/Private", "Bearer nope")
		assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))
	})

	t.Run("valid token populates context", func(t *testing.T) {
		ctx, err := call(t, interceptor, "/svc/Private", "Bearer "+token)
		require.NoError(t, err)
		assert.Equal(t, "u1", GetUserID(ctx))
		assert.Equal(t, models.RoleViewer, GetRole(ctx))
		require.NotNil(t, GetClaims(ctx))
		assert.Equal(t, "u1@example.com", GetClaims(ctx).Email)
	})

	t.Run("revoked token", func(t *testing.T) {
		claims, err := jwtManager.Validate(token)
		require.NoError(t, err)
		require.NoError(t, revoker.Revoke(context.Background(), claims.ID, claims.ExpiresAtTime()))

		_, err = call(t, interceptor, "/svc/Private", "Bearer "+token)
		assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))
		assert.ErrorIs(t, err, auth.ErrRevokedToken)
	})
}

type failingRevoker struct{}

func (failingRevoker) Revoke(context.Context, string, time.Time) error { return nil }
func (failingRevoker) IsRevoked(context.Context, string) (bool, error) {
	return false, errors.New("redis down")
}

func TestRequireAuthRevokerUnavailable(t *testing.T) {
	jwtManager := auth.NewJWTManager("secret", time.Hour)
	token, err := jwtManager.Generate(&models.User{ID: "u1", Role: models.RoleMember})
	require.NoError(t, err)

	_, err = call(t, RequireAuth(jwtManager, failingRevoker{}), "/svc/Private", "Bearer "+token)
	assert.Equal(t, connect.CodeUnavailable, connect.CodeOf(err))
}

func TestCORS(t *testing.T) {
	called := false
	h := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/splitsettle.v1.GroupService/ListGroups", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
	assert.False(t, called, "preflight does not reach the handler")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.True(t, called)
}

func TestRequestLoggerPassesStatus(t *testing.T) {
	h := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestLoggingInterceptorRecordsCaller(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	ctx := WithClaims(context.Background(), &auth.Claims{UserID: "u1", Email: "u1@example.com", Role: models.RoleAdmin})
	next := func(context.Context, connect.AnyRequest) (connect.AnyResponse, error) {
		return nil, connect.NewError(connect.CodeNotFound, errors.New("gone"))
	}
	req := &specRequest{Request: connect.NewRequest(&echoRequest{}), procedure: "/svc/Get"}

	_, err := LoggingInterceptor()(next)(ctx, req)
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))

	out := buf.String()
	assert.Contains(t, out, `"level":"WARN"`)
	assert.Contains(t, out, `"procedure":"/svc/Get"`)
	assert.Contains(t, out, `"user_id":"u1"`)
	assert.Contains(t, out, `"role":"admin"`)
}
