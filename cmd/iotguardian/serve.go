package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"iotguardian/internal/config"
	"iotguardian/internal/logx"
	"iotguardian/internal/repository"
	"iotguardian/internal/seed"
	"iotguardian/internal/server"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the HTTP API.

Configuration comes from the environment (and a .env file when present).
Redis and InfluxDB are optional: without REDIS_ADDR commands and AI quotas
are kept in memory, without INFLUXDB_URL reading history is disabled.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func serve(ctx context.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	logx.Init(logx.Options{Production: cfg.Environment.IsProduction() && !verbose})

	data, err := seed.Load(cfg.SeedFile)
	if err != nil {
		return err
	}

	var backends server.Backends
	if cfg.RedisConfig.Enabled() {
		rdb, err := repository.NewRedisClient(cfg.RedisConfig.Addr, cfg.RedisConfig.Password, cfg.RedisConfig.DB)
		if err != nil {
			return err
		}
		defer rdb.Close()
		backends.Redis = rdb
		logx.Info().Str("addr", cfg.RedisConfig.Addr).Msg("Connected to Redis")
	} else {
		logx.Warn().Msg("REDIS_ADDR not set, device commands and AI quotas are kept in memory")
	}

	if cfg.InfluxConfig.Enabled() {
		influx, err := repository.NewInfluxDBRepository(ctx, cfg.InfluxConfig.URL, cfg.InfluxConfig.Token, cfg.InfluxConfig.Org, cfg.InfluxConfig.Bucket)
		if err != nil {
			return err
		}
		defer influx.Close()
		backends.History = influx
		logx.Info().Str("url", cfg.InfluxConfig.URL).Str("bucket", cfg.InfluxConfig.Bucket).Msg("Connected to InfluxDB")
	} else {
		logx.Warn().Msg("INFLUXDB_URL not set, reading history is disabled")
	}

	backends.Completers, err = server.Completers(ctx, cfg.AIConfig)
	if err != nil {
		return err
	}

	app := server.New(cfg, data, backends)
	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           c.Handler(app.Handler()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logx.Info().Str("addr", srv.Addr).Str("environment", string(cfg.Environment)).Msg("Server is running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logx.Info().Msg("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
