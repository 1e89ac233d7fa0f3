package main

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/questx-lab/reputation/config"
	"github.com/questx-lab/reputation/internal/domain"
	"github.com/questx-lab/reputation/internal/domain/accumulator"
	"github.com/questx-lab/reputation/internal/domain/achievement"
	"github.com/questx-lab/reputation/internal/domain/governance"
	"github.com/questx-lab/reputation/internal/domain/ledger"
	"github.com/questx-lab/reputation/internal/domain/normalizer"
	"github.com/questx-lab/reputation/internal/domain/progression"
	"github.com/questx-lab/reputation/internal/domain/statistic"
	"github.com/questx-lab/reputation/internal/repository"
	"github.com/questx-lab/reputation/migration"
	"github.com/questx-lab/reputation/pkg/idutil"
	"github.com/questx-lab/reputation/pkg/kafka"
	"github.com/questx-lab/reputation/pkg/logger"
	"github.com/questx-lab/reputation/pkg/pubsub"
	"github.com/questx-lab/reputation/pkg/xcontext"
	"github.com/questx-lab/reputation/pkg/xredis"
	"github.com/urfave/cli/v2"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type srv struct {
	ctx context.Context

	idGenerator    *idutil.Generator
	redisClient    xredis.Client
	publisher      pubsub.Publisher
	asynqClient    *asynq.Client
	asynqInspector *asynq.Inspector

	activityEventRepo    repository.ActivityEventRepository
	skillRawMetricsRepo  repository.SkillRawMetricsRepository
	userSkillScoreRepo   repository.UserSkillScoreRepository
	radarSnapshotRepo    repository.RadarSnapshotRepository
	userProgressionRepo  repository.UserProgressionRepository
	pointTransactionRepo repository.PointTransactionRepository
	achievementRepo      repository.AchievementRepository
	userAchievementRepo  repository.UserAchievementRepository

	normalizer         *normalizer.Normalizer
	progressionEngine  *progression.Engine
	achievementManager *achievement.Manager
	leaderboard        statistic.Leaderboard

	reputationDomain domain.ReputationDomain
}

// setup loads every dependency shared by the commands: configs, logger,
// database (migrated), id generator and repositories.
func (s *srv) setup(cctx *cli.Context) error {
	if err := s.loadConfig(cctx.String("config")); err != nil {
		return err
	}

	s.loadLogger()

	db, err := s.newDatabase()
	if err != nil {
		return err
	}
	s.ctx = xcontext.WithDB(s.ctx, db)

	if err := s.migrateDB(); err != nil {
		return err
	}

	s.idGenerator, err = idutil.NewGenerator(xcontext.Configs(s.ctx).Reputation.SnowflakeNode)
	if err != nil {
		return err
	}

	s.loadRepos()
	return nil
}

func (s *srv) loadConfig(path string) error {
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	s.ctx = xcontext.WithConfigs(s.ctx, cfg)
	return nil
}

func (s *srv) loadLogger() {
	cfg := xcontext.Configs(s.ctx)
	level := logger.ParseLevel(cfg.LogLevel)
	if cfg.Env == "production" {
		s.ctx = xcontext.WithLogger(s.ctx, logger.NewProductionLogger(level))
	} else {
		s.ctx = xcontext.WithLogger(s.ctx, logger.NewLogger(level))
	}
}

func (s *srv) newDatabase() (*gorm.DB, error) {
	cfg := xcontext.Configs(s.ctx).Database

	var dialector gorm.Dialector
	switch cfg.Type {
	case "mysql":
		dialector = mysql.New(mysql.Config{
			DSN:                       cfg.ConnectionString(),
			DefaultStringSize:         256,
			DisableDatetimePrecision:  true,
			DontSupportRenameIndex:    true,
			DontSupportRenameColumn:   true,
			SkipInitializeWithVersion: false,
		})
	case "postgres":
		dialector = postgres.Open(cfg.ConnectionString())
	case "sqlite":
		dialector = sqlite.Open(cfg.ConnectionString())
	default:
		return nil, fmt.Errorf("unsupported database type %s", cfg.Type)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if cfg.Type == "sqlite" {
		// Sqlite allows a single writer.
		sqlDB.SetMaxOpenConns(1)
	}

	return db, nil
}

func (s *srv) migrateDB() error {
	if err := migration.AutoMigrate(s.ctx); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	applied, err := migration.Migrate(s.ctx)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	if len(applied) > 0 {
		xcontext.Logger(s.ctx).Infof("Applied migrations %v", applied)
	}

	return nil
}

// loadRedisClient connects to redis. The leaderboard works without it, so a
// failure is only logged.
func (s *srv) loadRedisClient() {
	client, err := xredis.NewClient(s.ctx, xcontext.Configs(s.ctx).Redis)
	if err != nil {
		xcontext.Logger(s.ctx).Warnf("Cannot connect to redis, leaderboard is served from database: %v", err)
		return
	}

	s.redisClient = client
}

func (s *srv) loadPublisher() error {
	cfg := xcontext.Configs(s.ctx).Kafka
	publisher, err := kafka.NewPublisher(cfg.ClientID, cfg.Addrs)
	if err != nil {
		return fmt.Errorf("new kafka publisher: %w", err)
	}

	s.publisher = publisher
	return nil
}

func (s *srv) loadAsynqClient() {
	cfg := xcontext.Configs(s.ctx).Redis
	opt := asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	s.asynqClient = asynq.NewClient(opt)
	s.asynqInspector = asynq.NewInspector(opt)
}

func (s *srv) closeAsynqClient() {
	if err := s.asynqClient.Close(); err != nil {
		xcontext.Logger(s.ctx).Warnf("Cannot close asynq client: %v", err)
	}
	if err := s.asynqInspector.Close(); err != nil {
		xcontext.Logger(s.ctx).Warnf("Cannot close asynq inspector: %v", err)
	}
}

func (s *srv) loadRepos() {
	s.activityEventRepo = repository.NewActivityEventRepository()
	s.skillRawMetricsRepo = repository.NewSkillRawMetricsRepository()
	s.userSkillScoreRepo = repository.NewUserSkillScoreRepository()
	s.radarSnapshotRepo = repository.NewRadarSnapshotRepository()
	s.userProgressionRepo = repository.NewUserProgressionRepository()
	s.pointTransactionRepo = repository.NewPointTransactionRepository()
	s.achievementRepo = repository.NewAchievementRepository()
	s.userAchievementRepo = repository.NewUserAchievementRepository()
}

func (s *srv) loadNormalizer() {
	s.normalizer = normalizer.New(
		s.skillRawMetricsRepo,
		s.userSkillScoreRepo,
		s.radarSnapshotRepo,
		normalizer.DefaultBenchmarks(),
		s.idGenerator,
	)
}

func (s *srv) loadLeaderboard() {
	s.leaderboard = statistic.New(s.userProgressionRepo, s.redisClient)
}

func (s *srv) loadAchievementManager() error {
	manager, err := achievement.New(
		s.achievementRepo,
		s.userAchievementRepo,
		s.skillRawMetricsRepo,
		s.activityEventRepo,
		s.progressionEngine,
	)
	if err != nil {
		return err
	}

	if err := manager.SeedCatalog(s.ctx); err != nil {
		return fmt.Errorf("seed achievements: %w", err)
	}

	s.achievementManager = manager
	return nil
}

// loadDomains builds the reputation domain. loadRedisClient, loadPublisher
// and loadAsynqClient are optional and must run before if wanted.
func (s *srv) loadDomains() error {
	s.loadNormalizer()
	s.loadLeaderboard()
	s.progressionEngine = progression.NewEngine(s.userProgressionRepo, s.pointTransactionRepo, s.idGenerator)
	if err := s.loadAchievementManager(); err != nil {
		return err
	}

	cfg := xcontext.Configs(s.ctx).Reputation
	var scheduler normalizer.Scheduler = normalizer.NewSyncScheduler(s.normalizer)
	if cfg.AsyncRecalculation && s.asynqClient != nil {
		scheduler = normalizer.NewAsynqScheduler(
			s.asynqClient,
			s.asynqInspector,
			s.normalizer,
			normalizer.QueueRecalculate,
			cfg.RecalculateDelay,
		)
	}

	s.reputationDomain = domain.NewReputationDomain(
		ledger.New(s.activityEventRepo, s.idGenerator),
		accumulator.New(s.skillRawMetricsRepo),
		s.normalizer,
		scheduler,
		s.progressionEngine,
		governance.NewEngine(s.userSkillScoreRepo),
		s.achievementManager,
		s.leaderboard,
		s.userSkillScoreRepo,
		s.pointTransactionRepo,
		s.publisher,
	)

	return nil
}
