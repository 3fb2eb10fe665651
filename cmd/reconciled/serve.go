package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/reconciled/internal/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP daemon",
	Long: `Start the reconciled HTTP server. Reconciliation passes are triggered via
POST /api/v1/reconcile; /health reports store connectivity and /metrics
exposes prometheus metrics.`,
	RunE: serve,
}

func serve(cmd *cobra.Command, args []string) error {
	p, err := buildPipeline(true)
	if err != nil {
		return err
	}
	defer p.close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect eagerly so /health is meaningful from the start. A failure
	// here is not fatal: the first run retries the connection.
	if err := p.gateway.Connect(ctx); err != nil {
		p.logger.Warn("initial store connection failed", zap.Error(err))
	}

	server, err := http.NewServer(p.reconciler, p.gateway, p.logger.Named("http"), http.Config{
		Host: p.cfg.Server.Host,
		Port: p.cfg.Server.Port,
	})
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	p.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
