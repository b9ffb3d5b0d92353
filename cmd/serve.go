package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/biomindlabs/biorag/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP query API",
	Long: `Starts an HTTP server exposing the query pipeline at POST /api/query
and a health check at GET /healthz.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Int("port", 0, "port to listen on (overrides config)")
	serveCmd.Flags().Bool("allow-all-origins", false, "allow all CORS origins (dev mode)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	port, _ := cmd.Flags().GetInt("port")
	if port == 0 {
		port = cfg.Server.Port
	}
	allowAll, _ := cmd.Flags().GetBool("allow-all-origins")

	embedder, err := createEmbedderFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("creating embedder: %w", err)
	}
	store, index, err := openStores(ctx, cfg, embedder)
	if err != nil {
		return err
	}
	defer store.Close()

	orch, err := buildOrchestrator(cfg, embedder, store, index)
	if err != nil {
		return err
	}

	srv := server.New(server.Config{Port: port, AllowAll: allowAll}, orch)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		fmt.Fprintln(os.Stderr, "Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := index.Persist(shutdownCtx, vectorDir(cfg)); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: persisting vector index: %v\n", err)
		}
		return srv.Shutdown(shutdownCtx)
	}
}
