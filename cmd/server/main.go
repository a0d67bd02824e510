// Command server runs the suggestion box HTTP API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/tbourn/go-suggestion-box/internal/aggregate"
	"github.com/tbourn/go-suggestion-box/internal/config"
	httpapi "github.com/tbourn/go-suggestion-box/internal/http"
	"github.com/tbourn/go-suggestion-box/internal/live"
	"github.com/tbourn/go-suggestion-box/internal/observability"
	"github.com/tbourn/go-suggestion-box/internal/repo"
	"github.com/tbourn/go-suggestion-box/internal/services"
	"github.com/tbourn/go-suggestion-box/internal/store"
	"github.com/tbourn/go-suggestion-box/internal/sysutil"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const shutdownTimeout = 10 * time.Second

func main() {
	// a missing .env is fine outside local development
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		sysutil.SetupLogger(nil, "info", false)
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	sysutil.SetupLogger(nil, cfg.LogLevel, cfg.LogPretty)
	gin.SetMode(cfg.GinMode)

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ver := sysutil.FirstNonEmpty(os.Getenv("APP_VERSION"), version)
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, ver)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	kv, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return err
	}
	broker := live.NewBroker()
	st := repo.New(kv, repo.WithBroker(broker))
	defer func() {
		if err := st.Close(); err != nil {
			log.Warn().Err(err).Msg("store close")
		}
	}()

	if cfg.SeedDefaults {
		if err := st.Initialize(ctx); err != nil {
			return err
		}
	}

	eng := aggregate.NewEngine(st, cfg.AggregateCache)
	svc := services.New(st, eng, services.Options{IdempotencyTTL: cfg.IdempotencyTTL})

	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.Deps{Services: svc, Engine: eng, Store: st, Broker: broker}, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return (&services.Janitor{Store: st, Every: time.Hour}).Run(gctx)
	})
	g.Go(func() error {
		log.Info().
			Str("addr", srv.Addr).
			Str("store", cfg.Store.Backend).
			Str("version", ver).
			Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		// live connections are hijacked and ignore Shutdown; closing the
		// broker ends their event streams first
		broker.Close()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}
