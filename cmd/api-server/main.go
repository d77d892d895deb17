package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/centrodental/clinic-scheduling/internal/api"
	"github.com/centrodental/clinic-scheduling/internal/appointment"
	"github.com/centrodental/clinic-scheduling/internal/availability"
	"github.com/centrodental/clinic-scheduling/internal/config"
	"github.com/centrodental/clinic-scheduling/internal/db"
	"github.com/centrodental/clinic-scheduling/internal/identity"
	redisclient "github.com/centrodental/clinic-scheduling/internal/redis"
	"github.com/centrodental/clinic-scheduling/internal/schedule"
)

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Str("component", "api-server").Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.Env == "dev" {
		log = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer rdb.Close()

	locker := redisclient.NewRedisBookingLocker(rdb, cfg.LockTTL)
	tokens := identity.NewTokenService(cfg.JWTSecret, 24*time.Hour)

	apptRepo := appointment.NewPgRepository(pool)
	availRepo := availability.NewPgRepository(pool)

	apptSvc := appointment.NewService(apptRepo, locker, log)
	availSvc := availability.NewService(availRepo, log)
	scheduleSvc := schedule.NewService(availRepo, apptRepo, cfg.SlotDuration, time.Local, log)

	router := api.NewRouter(api.RouterConfig{
		Appointments: apptSvc,
		Availability: availSvc,
		Schedule:     scheduleSvc,
		Tokens:       tokens,
		Pool:         pool,
		Redis:        rdb,
		Log:          log,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  time.Minute,
	}

	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("api server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
