package main

import (
	"fmt"

	"github.com/questx-lab/reputation/internal/domain/progression"
	"github.com/questx-lab/reputation/migration"
	"github.com/questx-lab/reputation/pkg/xcontext"
	"github.com/urfave/cli/v2"
)

// startMigrate applies pending migrations and seeds the achievement catalog.
// With --version, the given migrator runs again even if it was applied.
func (s *srv) startMigrate(cctx *cli.Context) error {
	if err := s.setup(cctx); err != nil {
		return err
	}

	if version := cctx.String("version"); version != "" {
		migrator, ok := migration.Migrators[version]
		if !ok {
			return fmt.Errorf("not found version %s", version)
		}

		if err := migrator(s.ctx); err != nil {
			return err
		}
	}

	s.progressionEngine = progression.NewEngine(s.userProgressionRepo, s.pointTransactionRepo, s.idGenerator)
	if err := s.loadAchievementManager(); err != nil {
		return err
	}

	xcontext.Logger(s.ctx).Infof("Migrated database and seeded %d achievements", len(s.achievementManager.Keys()))
	return nil
}
