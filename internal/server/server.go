package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/janpfeifer/GoPeaks/internal/frontend"
	"github.com/janpfeifer/GoPeaks/internal/game"
	"github.com/janpfeifer/GoPeaks/internal/levels"
	"github.com/maxence-charriere/go-app/v10/pkg/app"
	"k8s.io/klog/v2"
)

// Config carries everything Run needs.
type Config struct {
	// Addr is the address to listen on. Empty picks a random local port,
	// reported through ServerState.Address.
	Addr string `env:"GOPEAKS_ADDR"`
	// LevelsDir points at a directory of level files. Empty serves the
	// embedded default levels.
	LevelsDir string `env:"GOPEAKS_LEVELS_DIR"`
	// LogV is the klog verbosity applied at startup; the -v flag wins.
	LogV string `env:"GOPEAKS_LOG_V"`
}

// Run starts the server and blocks until the context is canceled. When
// started is not nil it receives the ServerState once the listener is up.
func Run(ctx context.Context, cfg Config, started chan<- *ServerState) error {
	// Initialize global client state for server-side prerendering without panic
	frontend.InitState()

	catalog, err := levels.Load(cfg.LevelsDir)
	if err != nil {
		return err
	}
	serverState := NewServerState(catalog)

	// Register go-app routes so the server knows how to prerender them
	app.Route("/", func() app.Composer { return &frontend.Home{} })
	app.RouteWithRegexp("^/game/.*", func() app.Composer { return &frontend.Game{} })

	// The web assets and the compiled webassembly
	// are served natively by the go-app framework
	h := &app.Handler{
		Name:        "GoPeaks",
		Description: "A three peaks solitaire game",
		Version:     game.Version,
		Styles: []string{
			"/web/css/pico.min.css", // Load pico.css
			"/web/css/main.css",     // Custom styles if any
		},
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	r.Get("/api/levels", serverState.HandleLevels)
	r.Get("/ws", serverState.HandleWS)

	// We want to serve /web for static files
	r.Handle("/web/*", http.StripPrefix("/web/", http.FileServer(http.Dir("web/"))))

	// Everything else is the go-app UI
	r.Handle("/*", h)

	addr := cfg.Addr
	if addr == "" {
		addr = "127.0.0.1:0"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	serverState.Address = ln.Addr().String()
	if started != nil {
		started <- serverState
	}

	srv := &http.Server{Handler: r}
	go func() {
		klog.Infof("Server started on %s", serverState.Address)
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			klog.Errorf("Server error: %v", err)
		}
	}()

	<-ctx.Done()

	// Graceful shutdown with 5 second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	klog.Info("Shutting down server...")
	return srv.Shutdown(shutdownCtx)
}
