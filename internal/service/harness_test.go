package service_test

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/splitsettle/internal/auth"
	"github.com/mmynk/splitsettle/internal/metrics"
	"github.com/mmynk/splitsettle/internal/models"
	"github.com/mmynk/splitsettle/internal/server"
	"github.com/mmynk/splitsettle/internal/storage"
	"github.com/mmynk/splitsettle/internal/storage/sqlite"
	"github.com/mmynk/splitsettle/pkg/api"
	"github.com/mmynk/splitsettle/pkg/api/apiconnect"
)

// testServer runs every Connect service against a temp SQLite database.
type testServer struct {
	store       storage.Store
	jwt         *auth.JWTManager
	auth        apiconnect.AuthServiceClient
	groups      apiconnect.GroupServiceClient
	expenses    apiconnect.ExpenseServiceClient
	settlements apiconnect.SettlementServiceClient
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	return setupWrappedServer(t, func(s storage.Store) storage.Store { return s })
}

// setupWrappedServer serves the services from wrap(store), letting tests
// intercept storage calls.
func setupWrappedServer(t *testing.T, wrap func(storage.Store) storage.Store) *testServer {
	t.Helper()

	db, err := sqlite.New(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	store := wrap(db)

	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	handler, err := server.NewHandler(server.Deps{
		Store:         store,
		JWT:           jwtManager,
		Revoker:       auth.NewMemoryRevoker(),
		Authenticator: auth.NewPasswordAuthenticator(store).WithCost(bcrypt.MinCost),
		Metrics:       metrics.New(),
	})
	require.NoError(t, err)

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return &testServer{
		store:       store,
		jwt:         jwtManager,
		auth:        apiconnect.NewAuthServiceClient(srv.Client(), srv.URL),
		groups:      apiconnect.NewGroupServiceClient(srv.Client(), srv.URL),
		expenses:    apiconnect.NewExpenseServiceClient(srv.Client(), srv.URL),
		settlements: apiconnect.NewSettlementServiceClient(srv.Client(), srv.URL),
	}
}

// user stores a user with the given role directly and returns a token for it.
func (s *testServer) user(t *testing.T, id string, role models.Role) string {
	t.Helper()
	u := &models.User{ID: id, Username: id, Email: id + "@example.com", Name: id, Role: role}
	require.NoError(t, s.store.CreateUser(context.Background(), u))
	token, err := s.jwt.Generate(u)
	require.NoError(t, err)
	return token
}

// group creates a group owned by the holder of token.
func (s *testServer) group(t *testing.T, token, name string, participants ...string) *api.Group {
	t.Helper()
	resp, err := s.groups.CreateGroup(context.Background(), authed(token, &api.CreateGroupRequest{
		Name:         name,
		Participants: participants,
	}))
	require.NoError(t, err)
	return resp.Msg.Group
}

func authed[T any](token string, msg *T) *connect.Request[T] {
	req := connect.NewRequest(msg)
	if token != "" {
		req.Header().Set("Authorization", "Bearer "+token)
	}
	return req
}

func requireCode(t *testing.T, err error, code connect.Code) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, code, connect.CodeOf(err), "error: %v", err)
}
