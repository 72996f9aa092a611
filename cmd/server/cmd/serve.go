package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/softcane/agropower/internal/api"
	"github.com/softcane/agropower/internal/auth"
	"github.com/softcane/agropower/internal/config"
	"github.com/softcane/agropower/internal/guard"
	"github.com/softcane/agropower/internal/recommend"
	"github.com/softcane/agropower/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the AgroPower HTTP server",
	Long: `Serve starts the AgroPower API.

The server will:
1. Connect to PostgreSQL and verify connectivity
2. Expose the calculation and recommendation endpoints under /api
3. Expose Prometheus metrics on a separate port

Use --dry-run to compute without writing to the database.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// policyLoader re-reads the runtime scoring policy on each request so
// operators can tune ranking live. Unreadable files fall back to the
// built-in policy.
func policyLoader(path string, logger *slog.Logger) recommend.PolicyLoader {
	if path == "" {
		return config.DefaultRuntimePolicy
	}
	return func() *config.RuntimePolicy {
		p, err := config.LoadRuntimePolicy(path)
		if err != nil {
			logger.Warn("runtime policy unavailable, using defaults", "path", path, "error", err)
			return config.DefaultRuntimePolicy()
		}
		return p
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	slog.Info("starting AgroPower server", "dry_run", IsDryRun(), "version", "0.1.0")

	// 1. Load Configuration
	if cfgFile == "" {
		cfgFile = "config/default.yaml"
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 2. Connect to PostgreSQL
	st, err := store.Open(cfg.Database.DSN(), cfg.Database.MaxConns, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer st.Close()

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := st.Ping(pingCtx); err != nil {
		return fmt.Errorf("database unreachable: %w", err)
	}
	slog.Info("database connected", "host", cfg.Database.Host, "name", cfg.Database.Name)

	// 3. Token verification
	signer, err := auth.NewSigner(cfg.Auth.Secret, cfg.Auth.TokenTTL())
	if err != nil {
		return fmt.Errorf("failed to initialize token signer: %w", err)
	}

	// 4. Wire the request pipeline
	g := guard.New(st)
	engine := recommend.NewEngine(st, g, policyLoader(cfg.Policy.Path, slog.Default()), slog.Default())
	handlers := api.NewHandlers(st, g, engine, cfg, slog.Default(), IsDryRun())
	router := api.NewRouter(handlers, signer, cfg, slog.Default())

	// 5. Metrics server (non-blocking)
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		addr := fmt.Sprintf(":%d", cfg.Server.MetricsPort)
		slog.Info("starting metrics server", "addr", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			slog.Error("metrics server failed", "error", err)
		}
	}()

	// 6. API server with graceful shutdown
	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting API server", "addr", srv.Addr, "run_mode", cfg.RunMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failure: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
