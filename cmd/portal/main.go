package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"biblio/internal/api"
	"biblio/internal/config"
	"biblio/internal/logger"
	"biblio/internal/portal"
	"biblio/internal/session"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var bip, port string

	cmd := &cobra.Command{
		Use:           "portal",
		Short:         "Library loan portal",
		Long:          `Serves the library loan portal and proxies /api to the library API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			applyFlags(bip, port)
			fmt.Fprintln(cmd.OutOrStdout(), backendMessage(os.Getenv("BACKEND_HOST")))
			return serve()
		},
	}

	cmd.Flags().StringVar(&bip, "bip", "", "backend IP or host the portal talks to (sets BACKEND_HOST)")
	cmd.Flags().StringVar(&port, "port", "", "port to listen on (sets PORTAL_PORT)")
	return cmd
}

// applyFlags writes flag values into the environment before configuration
// is loaded, so they win over .env values.
func applyFlags(bip, port string) {
	if bip != "" {
		os.Setenv("BACKEND_HOST", bip)
	}
	if port != "" {
		os.Setenv("PORTAL_PORT", port)
	}
}

func backendMessage(backendHost string) string {
	if backendHost == "" {
		return "Usando localhost:" + api.BackendPort
	}
	if _, _, err := net.SplitHostPort(backendHost); err == nil {
		return "Usando bip: " + backendHost
	}
	return "Usando bip: " + net.JoinHostPort(backendHost, api.BackendPort)
}

func serve() error {
	log := logger.New()
	logger.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	slog.Info("Starting library portal",
		"port", cfg.Port,
		"env", cfg.Env,
		"api_upstream", cfg.APIUpstream,
		"backend_host", cfg.BackendHost,
		"redis_addr", cfg.RedisAddr,
	)

	storage, err := newStorage(cfg)
	if err != nil {
		return err
	}

	srv, err := portal.New(cfg, storage, portal.WithLogger(log))
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           srv.Router(),
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Library portal listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for interrupt signal to gracefully shut down
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-quit:
	}

	slog.Info("Shutting down library portal")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("Library portal stopped")
	return nil
}

// newStorage keeps tokens in Redis when REDIS_ADDR is set, in memory otherwise.
func newStorage(cfg *config.Config) (session.Storage, error) {
	if cfg.RedisAddr == "" {
		slog.Warn("REDIS_ADDR not set, sessions are kept in memory")
		return session.NewMemoryStorage(), nil
	}

	storage := session.NewRedisStorage(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := storage.(session.Pinger).Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.RedisAddr, err)
	}
	slog.Info("Connected to Redis")
	return storage, nil
}
