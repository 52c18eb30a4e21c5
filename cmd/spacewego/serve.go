package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/dstuartbryant/spacewego/internal/api"
	"github.com/dstuartbryant/spacewego/internal/config"
	"github.com/dstuartbryant/spacewego/internal/health"
	"github.com/dstuartbryant/spacewego/internal/propagation"
	"github.com/dstuartbryant/spacewego/internal/timescale"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
				a.cfg.HTTPAddr = addr
			}
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().String("addr", "", "listen address (overrides http_addr)")
	return cmd
}

func (a *app) serve(parent context.Context) error {
	logger := a.logger(a.stdout)
	gin.SetMode(gin.ReleaseMode)

	pc := a.cfg.PropConfig()
	pool := propagation.NewWorkerPool(pc.Workers, logger)
	logger.Info("propagation config",
		"workers", pool.Workers(),
		"max_step_seconds", pc.MaxStep.Seconds(),
		"max_samples", a.cfg.Propagation.MaxSamples,
		"timeout_seconds", a.cfg.Propagation.Timeout.Seconds(),
	)

	h := health.New()
	h.Register("leap_seconds", func() error {
		_, err := timescale.FromTime(time.Now())
		return err
	})

	srv := api.NewServer(a.cfg, api.Options{Logger: logger, Pool: pool, Health: h})

	config.Watch(a.v, logger, func(c config.Config) {
		if lvl, err := config.ParseLevel(c.LogLevel); err == nil {
			a.level.Set(lvl)
		}
		srv.ApplyRateLimit(c.RateLimit)
	})

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server",
			"addr", a.cfg.HTTPAddr,
			"earth_model", a.cfg.EarthModel,
			"sun_model", a.cfg.SunModel,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	h.SetReady(true)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("server listen: %w", err)
	}
	h.SetReady(false)
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
