package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/centrodental/clinic-scheduling/internal/appointment"
	"github.com/centrodental/clinic-scheduling/internal/config"
	"github.com/centrodental/clinic-scheduling/internal/db"
	redisclient "github.com/centrodental/clinic-scheduling/internal/redis"
)

// The completion worker sweeps confirmed appointments whose time is long past
// and marks them COMPLETED, so the calendar does not accumulate stale rows.
func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Str("component", "completion-worker").Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()

	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer rdb.Close()

	locker := redisclient.NewRedisBookingLocker(rdb, cfg.LockTTL)
	svc := appointment.NewService(appointment.NewPgRepository(pool), locker, log)

	log.Info().
		Dur("interval", cfg.WorkerInterval).
		Dur("grace", cfg.CompletionGrace).
		Msg("completion worker started")

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	sweep(ctx, svc, cfg.CompletionGrace, log)

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("completion worker stopping")
			return
		case <-ticker.C:
			sweep(ctx, svc, cfg.CompletionGrace, log)
		}
	}
}

func sweep(ctx context.Context, svc *appointment.Service, grace time.Duration, log zerolog.Logger) {
	cutoff := time.Now().Add(-grace)
	if err := svc.CompletePastConfirmed(ctx, cutoff); err != nil {
		log.Error().Err(err).Msg("completion sweep failed")
	}
}
