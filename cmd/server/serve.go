package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Brownie44l1/emotion-api/internal/handlers"
	"github.com/Brownie44l1/emotion-api/internal/web"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP prediction server",
	Long: `Start the emotion prediction server.

Endpoints:
  GET  /         - Camera page that posts 5 second clips
  GET  /health   - Health check
  POST /predict  - Multipart "file" (image/* or video/*) or JSON {"inputs": [...]}`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "Port to listen on (overrides PORT)")
	serveCmd.Flags().String("host", "", "Host to bind to (overrides HOST)")
}

func runServe(cmd *cobra.Command, args []string) error {
	rt, err := loadRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		rt.cfg.Port = port
	}
	if host, _ := cmd.Flags().GetString("host"); host != "" {
		rt.cfg.Host = host
	}

	handler := handlers.NewHandler(rt.service, rt.cfg.MaxUploadBytes, rt.logger)
	server := web.NewServer(rt.cfg.Addr(), handler, rt.logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	rt.logger.Info("endpoints ready",
		zap.String("addr", rt.cfg.Addr()),
		zap.Strings("routes", []string{"GET /", "GET /health", "POST /predict"}))

	return g.Wait()
}
