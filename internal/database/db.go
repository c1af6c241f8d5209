package database

import (
	"fmt"
	"strings"
	"time"

	"go-pos-server/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const connectAttempts = 5

// sqliteParams make a writer wait for the lock instead of failing with
// SQLITE_BUSY, and take the write lock when a transaction begins.
const sqliteParams = "_busy_timeout=5000&_txlock=immediate"

// Options picks the store and how chatty GORM is.
type Options struct {
	Driver string // "sqlite" or "mysql"
	DSN    string
	Debug  bool
}

func dialector(opts Options) (gorm.Dialector, error) {
	switch opts.Driver {
	case "mysql":
		return mysql.Open(opts.DSN), nil
	case "sqlite":
		return sqlite.Open(sqliteDSN(opts.DSN)), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}
}

func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_busy_timeout") || strings.Contains(dsn, "_txlock") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&" + sqliteParams
	}
	return dsn + "?" + sqliteParams
}

// Connect opens the store (retrying while MySQL starts up) and syncs the schema.
func Connect(opts Options, log *zap.Logger) (*gorm.DB, error) {
	dial, err := dialector(opts)
	if err != nil {
		return nil, err
	}

	level := logger.Warn
	if opts.Debug {
		level = logger.Info
	}
	cfg := &gorm.Config{
		Logger:         newGormLogger(log, level),
		TranslateError: true,
	}

	var db *gorm.DB
	for i := 0; i < connectAttempts; i++ {
		db, err = gorm.Open(dial, cfg)
		if err == nil {
			break
		}
		log.Warn("database not ready, retrying",
			zap.Int("attempt", i+1),
			zap.Int("of", connectAttempts),
			zap.Error(err),
		)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("connect after %d attempts: %w", connectAttempts, err)
	}
	if opts.Driver == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("sqlite pool: %w", err)
		}
		// one writer at a time; checkouts queue on the pool instead of the file lock
		sqlDB.SetMaxOpenConns(1)
	}
	log.Info("connected to database", zap.String("driver", opts.Driver))

	if err := Migrate(db); err != nil {
		return nil, err
	}
	log.Info("database schema synced")
	return db, nil
}

// Migrate creates or updates every table.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}
