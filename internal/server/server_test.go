package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitsettle/internal/auth"
	"github.com/mmynk/splitsettle/internal/metrics"
	"github.com/mmynk/splitsettle/internal/storage/memory"
	"github.com/mmynk/splitsettle/pkg/api"
	"github.com/mmynk/splitsettle/pkg/api/apiconnect"
)

func newTestHandler(t *testing.T, staticDir string) http.Handler {
	t.Helper()
	h, err := NewHandler(Deps{
		Store:     memory.New(),
		JWT:       auth.NewJWTManager("test-secret", time.Hour),
		Metrics:   metrics.New(),
		StaticDir: staticDir,
	})
	require.NoError(t, err)
	return h
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestNewHandler_RequiresStoreAndJWT(t *testing.T) {
	_, err := NewHandler(Deps{})
	assert.Error(t, err)
}

func TestHealthAndMetrics(t *testing.T) {
	h := newTestHandler(t, "")

	rec := get(t, h, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok\n", rec.Body.String())

	srv := httptest.NewServer(h)
	defer srv.Close()
	client := apiconnect.NewGroupServiceClient(srv.Client(), srv.URL)
	_, err := client.ListGroups(context.Background(), connect.NewRequest(&api.ListGroupsRequest{}))
	require.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))

	rec = get(t, h, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `splitsettle_rpc_requests_total{code="unauthenticated",procedure="/splitsettle.v1.GroupService/ListGroups"} 1`)
}

func TestCORSPreflight(t *testing.T) {
	h := newTestHandler(t, "")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, apiconnect.GroupServiceListGroupsProcedure, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestStaticFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>index</h1>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o644))
	h := newTestHandler(t, dir)

	assert.Contains(t, get(t, h, "/").Body.String(), "index")
	assert.Contains(t, get(t, h, "/app.js").Body.String(), "console.log")
	// Unknown paths fall back to the index page.
	assert.Contains(t, get(t, h, "/groups/123").Body.String(), "index")
	assert.Equal(t, http.StatusNotFound, get(t, h, "/splitsettle.v1.Unknown/Method").Code)
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, ln, newTestHandler(t, ""), time.Second)
	}()

	url := "http://" + ln.Addr().String() + "/healthz"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return strings.TrimSpace(string(body)) == "ok"
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
