package database

import (
	"fmt"
	"time"

	migrate "github.com/rubenv/sql-migrate"
	"go.uber.org/zap"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/johnquangdev/meeting-functions/pkg/config"
)

// MigrationsDir is where the sql-migrate files live, relative to the working directory
const MigrationsDir = "migrations"

// NewPostgresDB creates a new PostgreSQL database connection using GORM
func NewPostgresDB(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	dsn := cfg.GetDatabaseDSN()

	// Configure GORM logger
	gormLogger := logger.Default.LogMode(logger.Warn)
	if cfg.IsProduction() {
		gormLogger = logger.Default.LogMode(logger.Error)
	}

	// Open connection
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get generic database object to configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database object: %w", err)
	}

	// Connection pool settings
	sqlDB.SetMaxOpenConns(cfg.Database.MaxConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MinConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info("database connected", zap.String("host", cfg.DatabaseHost()))

	return db, nil
}

// Migrate applies (migrate.Up) or rolls back (migrate.Down) the sql-migrate files.
// max limits the number of migrations, 0 means all.
func Migrate(db *gorm.DB, dir migrate.MigrationDirection, max int, log *zap.Logger) (int, error) {
	migrations := &migrate.FileMigrationSource{
		Dir: MigrationsDir,
	}

	sqlDB, err := db.DB()
	if err != nil {
		return 0, fmt.Errorf("failed to get db connection during migrate, error: %w", err)
	}

	n, err := migrate.ExecMax(sqlDB, "postgres", migrations, dir, max)
	if err != nil {
		return n, fmt.Errorf("failed to apply migration, error: %w", err)
	}

	log.Info("migrations applied", zap.Int("count", n), zap.String("dir", MigrationsDir))
	return n, nil
}

// CloseDB closes the database connection
func CloseDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database object: %w", err)
	}

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	return nil
}
