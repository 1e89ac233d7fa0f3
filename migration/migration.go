package migration

import (
	"context"
	"errors"
	"sort"

	"github.com/questx-lab/reputation/internal/entity"
	"github.com/questx-lab/reputation/pkg/xcontext"
	"golang.org/x/exp/maps"
	"gorm.io/gorm"
)

// Migrators are applied in order of version, each exactly once per database.
var Migrators = map[string]func(context.Context) error{
	"0000": migrate0000,
	"0001": migrate0001,
}

// Migrate applies every migrator not recorded in the migrations table yet and
// returns the versions it applied.
func Migrate(ctx context.Context) ([]string, error) {
	if err := xcontext.DB(ctx).AutoMigrate(&entity.Migration{}); err != nil {
		return nil, err
	}

	versions := maps.Keys(Migrators)
	sort.Strings(versions)

	applied := []string{}
	for _, version := range versions {
		err := xcontext.DB(ctx).Where("version=?", version).Take(&entity.Migration{}).Error
		if err == nil {
			continue
		}

		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return applied, err
		}

		xcontext.Logger(ctx).Infof("Applying migration %s", version)
		if err := Migrators[version](ctx); err != nil {
			return applied, err
		}

		if err := xcontext.DB(ctx).Create(&entity.Migration{Version: version}).Error; err != nil {
			return applied, err
		}

		applied = append(applied, version)
	}

	return applied, nil
}

// AutoMigrate creates every table with the latest schema.
func AutoMigrate(ctx context.Context) error {
	return entity.MigrateTable(xcontext.DB(ctx))
}
