// Command seed populates the database with demo data.
package main

import (
	"context"
	"flag"
	"log"

	"go.uber.org/zap"

	"github.com/itsmenoahpoli/brgykonek-backend/internal/config"
	"github.com/itsmenoahpoli/brgykonek-backend/internal/observability"
	"github.com/itsmenoahpoli/brgykonek-backend/internal/persistence"
	"github.com/itsmenoahpoli/brgykonek-backend/internal/repository"
	"github.com/itsmenoahpoli/brgykonek-backend/internal/seed"
)

func main() {
	residents := flag.Int("residents", 5, "Number of resident accounts to create")
	randSeed := flag.Int64("seed", 0, "Random seed for reproducible data (0 = random)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx := context.Background()
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	pool := pg.PoolHandle()
	seeder := seed.NewSeeder(seed.Repositories{
		Users:              repository.NewUserRepository(pool),
		PermissionRequests: repository.NewPermissionRequestRepository(pool),
		Complaints:         repository.NewComplaintRepository(pool),
		Sitios:             repository.NewSitioRepository(pool),
		Announcements:      repository.NewAnnouncementRepository(pool),
	}, seed.Options{Residents: *residents, Seed: *randSeed, BcryptCost: cfg.Auth.BcryptCost}, logger)

	summary, err := seeder.Run(ctx)
	if err != nil {
		logger.Fatal("seed failed", zap.Error(err))
	}
	logger.Info("seeded accounts use the default password",
		zap.String("password", seed.DefaultPassword),
		zap.Int("users_created", summary.Users))
}
