// Command chatgw serves the storefront chat API.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	chatgw "github.com/blueember/storefront-chat"
	"github.com/blueember/storefront-chat/internal/logging"
	"github.com/blueember/storefront-chat/internal/version"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ConfigEnv names the config file when --config is not given.
const ConfigEnv = "CHATGW_CONFIG"

func main() {
	configPath := flag.String("config", os.Getenv(ConfigEnv), "path to a JSON or YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		logging.Logger.Error("chatgw exited", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := loadConfig(configPath, os.Getenv)
	if err != nil {
		return err
	}

	gw, err := chatgw.New(cfg)
	if err != nil {
		return fmt.Errorf("creating gateway: %w", err)
	}
	if err := gw.LoadPlugins(); err != nil {
		return fmt.Errorf("loading plugins: %w", err)
	}

	creds := gw.Credentials()
	if len(creds) == 0 {
		logging.Logger.Warn("no API keys in environment; every routed message will fail until one is set",
			"prefixes", prefixNames(gw))
	}

	srv := &http.Server{
		Addr:        cfg.Listen,
		Handler:     newRouter(gw),
		ReadTimeout: 30 * time.Second,
		// A failover chain can run several upstream timeouts back to back.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		logging.Logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logging.Logger.Error("shutdown error", "error", err)
		}
	}()

	logging.Logger.Info("chatgw listening",
		"version", version.Short(),
		"addr", cfg.Listen,
		"default_model", cfg.DefaultModel,
		"credentials", len(creds),
		"plugins", gw.Plugins(),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logging.Logger.Info("server stopped")
	return nil
}

// loadConfig reads path when set, validates it, then applies defaults and
// environment overrides.
func loadConfig(path string, getenv func(string) string) (chatgw.Config, error) {
	cfg := chatgw.DefaultConfig()
	if path != "" {
		loaded, err := chatgw.LoadConfig(path)
		if err != nil {
			return chatgw.Config{}, fmt.Errorf("loading config: %w", err)
		}
		if err := chatgw.ValidateConfig(*loaded); err != nil {
			return chatgw.Config{}, err
		}
		cfg = *loaded
		logging.Logger.Info("config loaded", "path", path, "plugins", len(cfg.Plugins))
	}
	return cfg.WithDefaults().ApplyEnv(getenv), nil
}

func prefixNames(gw *chatgw.Gateway) []string {
	specs := gw.Specs()
	out := make([]string, len(specs))
	for i, s := range specs {
		out[i] = s.EnvPrefix
	}
	return out
}

// newRouter builds the HTTP router.
func newRouter(gw *chatgw.Gateway) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(logging.Middleware)
	r.Use(logging.RequestLogger)
	r.Use(corsMiddleware(gw.Config().CORSOrigins...))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":      "ok",
			"version":     version.Short(),
			"credentials": len(gw.Credentials()),
		})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/chat", chatHandler(gw))
		r.Get("/models", modelsHandler(gw))
	})
	return r
}

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
