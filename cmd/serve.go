package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/choropleth/internal/fips"
	"github.com/sells-group/choropleth/internal/monitoring"
	"github.com/sells-group/choropleth/internal/pipeline"
	"github.com/sells-group/choropleth/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the maps, lookup and metrics over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		if servePort != 0 {
			cfg.Server.Port = servePort
		}
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		table := fips.MassachusettsCounties()
		metrics := monitoring.NewMetrics()
		p := pipeline.New(cfg, pipeline.NewResolver(cfg.Fetch), table, metrics, nil)

		srv := server.New(p, server.Options{
			Title:          cfg.Render.Title,
			AllowedOrigins: cfg.Server.AllowedOrigins,
			Table:          table,
			Metrics:        metrics,
		})

		// An initial failure is not fatal; /readyz reports 503 until a
		// refresh succeeds.
		if _, err := srv.Refresh(ctx); err != nil {
			zap.L().Error("initial build failed", zap.Error(err))
		}
		if cfg.Server.RefreshSecs > 0 {
			go srv.RefreshEvery(ctx, time.Duration(cfg.Server.RefreshSecs)*time.Second)
		}

		httpSrv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           srv,
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = httpSrv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", cfg.Server.Port))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
