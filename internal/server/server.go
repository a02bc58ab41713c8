// Package server assembles the Connect services, interceptors and HTTP
// middleware into one handler and serves it over h2c.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/splitsettle/internal/auth"
	"github.com/mmynk/splitsettle/internal/metrics"
	"github.com/mmynk/splitsettle/internal/middleware"
	"github.com/mmynk/splitsettle/internal/service"
	"github.com/mmynk/splitsettle/internal/storage"
	"github.com/mmynk/splitsettle/pkg/api/apiconnect"
)

// apiPrefix is the path prefix shared by every Connect procedure.
const apiPrefix = "/splitsettle.v1."

// Deps are the collaborators the handler is built from.
type Deps struct {
	Store         storage.Store
	JWT           *auth.JWTManager
	Revoker       auth.Revoker
	Authenticator auth.Authenticator
	Metrics       *metrics.Metrics
	// StaticDir, when set, is served for every non-API path.
	StaticDir string
}

// NewHandler returns the full HTTP handler: Connect services, /healthz,
// /metrics and optional static files, wrapped in request logging and CORS.
func NewHandler(d Deps) (http.Handler, error) {
	if d.Store == nil || d.JWT == nil {
		return nil, errors.New("server: store and JWT manager are required")
	}
	if d.Revoker == nil {
		d.Revoker = auth.NewMemoryRevoker()
	}
	if d.Authenticator == nil {
		d.Authenticator = auth.NewPasswordAuthenticator(d.Store)
	}

	opts := connect.WithInterceptors(
		middleware.MetricsInterceptor(d.Metrics),
		middleware.RequireAuth(d.JWT, d.Revoker, service.PublicProcedures()...),
		middleware.LoggingInterceptor(),
	)

	mux := http.NewServeMux()

	authPath, authHandler := apiconnect.NewAuthServiceHandler(
		service.NewAuthService(d.Authenticator, d.JWT, d.Revoker, d.Store, slog.Default()), opts)
	mux.Handle(authPath, authHandler)

	groupPath, groupHandler := apiconnect.NewGroupServiceHandler(service.NewGroupService(d.Store), opts)
	mux.Handle(groupPath, groupHandler)

	expensePath, expenseHandler := apiconnect.NewExpenseServiceHandler(service.NewExpenseService(d.Store), opts)
	mux.Handle(expensePath, expenseHandler)

	settlementPath, settlementHandler := apiconnect.NewSettlementServiceHandler(
		service.NewSettlementService(d.Store, d.Metrics), opts)
	mux.Handle(settlementPath, settlementHandler)

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	if d.Metrics != nil {
		mux.Handle("/metrics", d.Metrics.Handler())
	}

	if d.StaticDir != "" {
		static, err := staticHandler(d.StaticDir)
		if err != nil {
			return nil, err
		}
		mux.Handle("/", static)
	}

	return middleware.RequestLogger(middleware.CORS(mux)), nil
}

// staticHandler serves files from dir, falling back to index.html for
// unknown paths.
func staticHandler(dir string) (http.Handler, error) {
	staticDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	slog.Info("Serving static files", "path", staticDir)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, apiPrefix) {
			http.NotFound(w, r)
			return
		}

		urlPath := r.URL.Path
		if urlPath == "/" {
			urlPath = "/index.html"
		}

		filePath := filepath.Join(staticDir, filepath.Clean("/"+urlPath))
		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			http.ServeFile(w, r, filepath.Join(staticDir, "index.html"))
			return
		}

		http.ServeFile(w, r, filePath)
	}), nil
}

// Run serves handler on addr until ctx is cancelled, then shuts down,
// giving in-flight requests up to shutdownTimeout to finish.
func Run(ctx context.Context, addr string, handler http.Handler, shutdownTimeout time.Duration) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return Serve(ctx, ln, handler, shutdownTimeout)
}

// Serve is Run on an existing listener.
func Serve(ctx context.Context, ln net.Listener, handler http.Handler, shutdownTimeout time.Duration) error {
	// h2c serves HTTP/2 without TLS, which Connect clients use.
	srv := &http.Server{
		Handler:           h2c.NewHandler(handler, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Connect server starting", "address", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down server", "timeout", shutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
