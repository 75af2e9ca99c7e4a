package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/qzarchive/qzarchive/internal/models"
	"github.com/qzarchive/qzarchive/pkg/config"
	"github.com/qzarchive/qzarchive/pkg/logging"
)

// zapWriter adapts zap.Logger to logger.Writer interface
type zapWriter struct {
	logger *zap.Logger
}

func (w *zapWriter) Printf(format string, args ...interface{}) {
	w.logger.Sugar().Infof(format, args...)
}

// DB wraps GORM database connection
type DB struct {
	*gorm.DB
}

// gormLogLevel maps the application log level to GORM's, one step quieter
func gormLogLevel(level string) logger.LogLevel {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return logger.Info
	case "INFO":
		return logger.Warn
	case "WARN", "WARNING":
		return logger.Error
	case "ERROR":
		return logger.Silent
	default:
		return logger.Warn
	}
}

// New creates a new database connection
func New(cfg *config.DatabaseConfig, logLevel string) (*DB, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("database_url is required")
	}

	writer := &zapWriter{logger: logging.WithComponent("gorm")}
	gormLogger := logger.New(
		writer,
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormLogLevel(logLevel),
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(postgres.Open(cfg.URL), &gorm.Config{
		Logger: gormLogger,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	// The archiver is sequential and the API read-only, so a small pool suffices
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logging.GetLogger().Info("Database connection established")

	return &DB{DB: db}, nil
}

// Migrate creates or updates the archive tables
func (d *DB) Migrate(ctx context.Context) error {
	if err := d.DB.WithContext(ctx).AutoMigrate(
		&models.ArchivedPost{},
		&models.ArchivedComment{},
		&models.SyncRun{},
	); err != nil {
		return fmt.Errorf("failed to migrate archive tables: %w", err)
	}
	return nil
}

// Close closes the database connection
func (d *DB) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Health checks database health
func (d *DB) Health(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
