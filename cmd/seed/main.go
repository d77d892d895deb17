package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/centrodental/clinic-scheduling/internal/availability"
	"github.com/centrodental/clinic-scheduling/internal/config"
	"github.com/centrodental/clinic-scheduling/internal/db"
)

// Seeds a development database with doctors, patients and a default weekly
// schedule of Monday through Friday, 09:00 to 17:00.
func main() {
	doctors := flag.Int("doctors", 3, "number of doctors to create")
	patients := flag.Int("patients", 20, "number of patients to create")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	faker := gofakeit.New(0)
	availRepo := availability.NewPgRepository(pool)

	doctorIDs, err := seedDoctors(ctx, pool, faker, *doctors)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to seed doctors")
	}
	log.Info().Int("count", len(doctorIDs)).Msg("doctors created")

	if err := seedPatients(ctx, pool, faker, *patients); err != nil {
		log.Fatal().Err(err).Msg("failed to seed patients")
	}
	log.Info().Int("count", *patients).Msg("patients created")

	// Default working week: Monday (1) through Friday (5), 09:00 to 17:00.
	window := availability.Window{StartMinute: 9 * 60, EndMinute: 17 * 60, IsActive: true}
	for _, id := range doctorIDs {
		for day := 1; day <= 5; day++ {
			if _, err := availRepo.Upsert(ctx, id, day, window); err != nil {
				log.Fatal().Err(err).Str("doctor_id", id.String()).Msg("failed to seed availability")
			}
		}
	}
	log.Info().Msg("default availability set")
}

func seedDoctors(ctx context.Context, pool *pgxpool.Pool, faker *gofakeit.Faker, n int) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, n)
	for i := 0; i < n; i++ {
		id := uuid.New()
		name := "Dr. " + faker.Name()
		email := fmt.Sprintf("doctor%d@centrodental.com.au", i+1)

		_, err := pool.Exec(ctx, `
			INSERT INTO doctors (id, name, email, specialty, created_at)
			VALUES ($1, $2, $3, $4, now())
			ON CONFLICT (email) DO NOTHING
		`, id, name, email, "Dentist")
		if err != nil {
			return nil, err
		}

		// The insert may have been skipped on conflict; read the row back so
		// availability seeding targets the real ID.
		var realID uuid.UUID
		if err := pool.QueryRow(ctx, `SELECT id FROM doctors WHERE email = $1`, email).Scan(&realID); err != nil {
			return nil, err
		}
		ids = append(ids, realID)
	}
	return ids, nil
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, faker *gofakeit.Faker, n int) error {
	for i := 0; i < n; i++ {
		_, err := pool.Exec(ctx, `
			INSERT INTO patients (id, name, email, phone, created_at)
			VALUES ($1, $2, $3, $4, now())
			ON CONFLICT (email) DO NOTHING
		`, uuid.New(), faker.Name(), fmt.Sprintf("patient%d@example.com", i+1), faker.Phone())
		if err != nil {
			return err
		}
	}
	return nil
}
