package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/chatsim"
	httpAdapter "github.com/aretw0/chatsim/pkg/adapters/http"
	redisAdapter "github.com/aretw0/chatsim/pkg/adapters/redis"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Serves conversation sessions over a JSON API, with server-sent diffs,
a websocket per session, the OpenAPI document and Prometheus metrics.
Navigation intents are published to a Redis stream when redis.addr is set.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}
		logger, err := newLogger(cfg, os.Stderr)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)

		simOpts, _, err := baseOptions(cfg, logger)
		if err != nil {
			return err
		}
		if cfg.Metrics.Enabled {
			simOpts = append(simOpts, chatsim.WithMetrics(reg))
		}
		if cfg.Redis.Enabled() {
			pub := redisAdapter.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
				redisAdapter.WithStream(cfg.Redis.Stream),
				redisAdapter.WithMaxLen(cfg.Redis.MaxLen),
			)
			defer pub.Close()
			if err := pub.Ping(ctx); err != nil {
				return fmt.Errorf("redis unreachable at %s: %w", cfg.Redis.Addr, err)
			}
			logger.Info("Publishing intents to Redis", "addr", cfg.Redis.Addr, "stream", cfg.Redis.Stream)
			simOpts = append(simOpts, chatsim.WithIntentSink(pub))
		}
		sim := chatsim.New(simOpts...)

		httpOpts := []httpAdapter.Option{
			httpAdapter.WithAllowedOrigins(cfg.Server.AllowedOrigins...),
			httpAdapter.WithMaxInputSize(cfg.Input.MaxSize),
			httpAdapter.WithLogger(logger),
		}
		if cfg.Metrics.Enabled {
			httpOpts = append(httpOpts, httpAdapter.WithMetrics(cfg.Metrics.Path, reg))
		}

		srv := &http.Server{
			Addr:    cfg.Server.Addr,
			Handler: httpAdapter.NewHandler(sim.Sessions(), httpOpts...),
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			logger.Info("Starting chatsim server", "addr", srv.Addr)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			logger.Info("Shutting down", "timeout", cfg.Server.ShutdownTimeout, "sessions", sim.Sessions().Len())

			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()

			// Unmounting closes the event streams, so Shutdown is not held
			// up by long-lived connections.
			if err := sim.Close(shutdownCtx); err != nil {
				logger.Warn("Failed to close sessions", "err", err)
			}
			if err := srv.Shutdown(shutdownCtx); err != nil {
				srv.Close()
				return fmt.Errorf("graceful shutdown did not complete: %w", err)
			}
			logger.Info("chatsim server stopped gracefully")
			return nil
		})
		return g.Wait()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address; overrides server.addr")
}
