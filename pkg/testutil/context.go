package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/questx-lab/reputation/config"
	"github.com/questx-lab/reputation/internal/entity"
	"github.com/questx-lab/reputation/pkg/logger"
	"github.com/questx-lab/reputation/pkg/xcontext"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var dbCounter atomic.Int64

// MockContext returns a context carrying a fresh in-memory database with
// every table migrated, a silent logger and the default configs.
//
// The database is shared by every connection of its pool and the pool is
// limited to one connection, so goroutines of a test see the same data and
// their transactions are serialized.
func MockContext() context.Context {
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", dbCounter.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		panic(err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		panic(err)
	}
	sqlDB.SetMaxOpenConns(1)

	cfg := config.Default()
	cfg.ApiServer.MaxLimit = 50
	cfg.ApiServer.DefaultLimit = 10

	if err := entity.MigrateTable(db); err != nil {
		panic(err)
	}

	ctx := context.Background()
	ctx = xcontext.WithConfigs(ctx, cfg)
	ctx = xcontext.WithLogger(ctx, logger.NewNopLogger())
	ctx = xcontext.WithDB(ctx, db)
	return ctx
}
