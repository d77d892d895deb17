package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/centrodental/clinic-scheduling/internal/appointment"
	"github.com/centrodental/clinic-scheduling/internal/config"
	"github.com/centrodental/clinic-scheduling/internal/db"
	"github.com/centrodental/clinic-scheduling/internal/identity"
	redisclient "github.com/centrodental/clinic-scheduling/internal/redis"
)

// Fires concurrent booking attempts at the same (doctor, instant) and reports
// how the conflict guard resolved them. Exactly one attempt per contended slot
// should succeed.
func main() {
	workers := flag.Int("workers", 20, "concurrent booking attempts per slot")
	slots := flag.Int("slots", 5, "number of distinct slots to contend")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

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
	repo := appointment.NewPgRepository(pool)
	svc := appointment.NewService(repo, locker, log)

	doctors, err := repo.ListDoctors(ctx)
	if err != nil || len(doctors) == 0 {
		log.Fatal().Err(err).Msg("no doctors found, run the seed first")
	}
	doctor := doctors[0]

	admin := identity.Actor{UserID: uuid.New(), Role: identity.RoleAdmin, Name: "Simulator"}
	faker := gofakeit.New(0)

	var successes, conflicts, failures atomic.Int64
	var mu sync.Mutex
	var latencies []time.Duration

	base := time.Now().Add(48 * time.Hour).Truncate(time.Hour)

	for slot := 0; slot < *slots; slot++ {
		at := base.Add(time.Duration(slot) * cfg.SlotDuration)

		var wg sync.WaitGroup
		start := make(chan struct{})

		for w := 0; w < *workers; w++ {
			wg.Add(1)
			go func(w int) {
				defer wg.Done()
				<-start

				req := appointment.BookingRequest{
					DoctorID:    &doctor.ID,
					ScheduledAt: at,
					Service:     "Checkup",
					Name:        faker.Name(),
					Email:       fmt.Sprintf("sim-%d-%s@example.com", w, uuid.NewString()[:8]),
					Phone:       faker.Phone(),
				}

				began := time.Now()
				_, err := svc.TryBook(ctx, admin, req)
				took := time.Since(began)

				mu.Lock()
				latencies = append(latencies, took)
				mu.Unlock()

				switch {
				case err == nil:
					successes.Add(1)
				case errors.Is(err, appointment.ErrSlotTaken), errors.Is(err, appointment.ErrSlotBeingBooked):
					conflicts.Add(1)
				default:
					failures.Add(1)
					log.Error().Err(err).Msg("unexpected booking failure")
				}
			}(w)
		}

		close(start)
		wg.Wait()
	}

	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	p50 := latencies[len(latencies)/2]
	p99 := latencies[len(latencies)*99/100]

	log.Info().
		Int("slots", *slots).
		Int("workers_per_slot", *workers).
		Int64("successes", successes.Load()).
		Int64("conflicts", conflicts.Load()).
		Int64("failures", failures.Load()).
		Dur("p50", p50).
		Dur("p99", p99).
		Msg("simulation finished")

	if successes.Load() != int64(*slots) {
		log.Fatal().
			Int64("successes", successes.Load()).
			Int("expected", *slots).
			Msg("conflict guard admitted the wrong number of bookings")
	}
	log.Info().Msg("exactly one booking won each contended slot")
}
