package database

import (
	"errors"
	"fmt"
	"time"

	"go-pos-inventory/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

type ConnectOptions struct {
	Driver     string // "mysql" or "sqlite"
	DSN        string
	Attempts   int
	RetryDelay time.Duration
	SQLLogger  gormlogger.Interface
	Logger     logrus.FieldLogger
}

// Connect opens the database, waiting for it to come up, and syncs the schema.
func Connect(opts ConnectOptions) (*gorm.DB, error) {
	if opts.DSN == "" {
		return nil, errors.New("database DSN is empty")
	}
	if opts.Attempts <= 0 {
		opts.Attempts = 5
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 2 * time.Second
	}
	if opts.SQLLogger == nil {
		opts.SQLLogger = gormlogger.Default.LogMode(gormlogger.Warn)
	}

	var dialector gorm.Dialector
	switch opts.Driver {
	case "mysql":
		dialector = mysql.Open(opts.DSN)
	case "sqlite":
		dialector = sqlite.Open(opts.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}

	// 1. Connect with GORM (Wait for DB to be ready)
	var db *gorm.DB
	var err error
	for i := 0; i < opts.Attempts; i++ {
		db, err = gorm.Open(dialector, &gorm.Config{
			Logger:         opts.SQLLogger,
			TranslateError: true,
			NowFunc:        func() time.Time { return time.Now().UTC() },
		})
		if err == nil {
			break
		}
		if opts.Logger != nil {
			opts.Logger.WithError(err).Warnf("Failed to connect to database. Retrying in %s... (%d/%d)", opts.RetryDelay, i+1, opts.Attempts)
		}
		time.Sleep(opts.RetryDelay)
	}
	if err != nil {
		return nil, fmt.Errorf("connect to %s after %d attempts: %w", opts.Driver, opts.Attempts, err)
	}

	if opts.Driver == "sqlite" {
		// SQLite allows one writer; a single connection keeps writers queued instead of failing busy.
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.SetMaxOpenConns(1)
		}
	}

	// 2. Auto-Migrate
	if err := Migrate(db); err != nil {
		return nil, err
	}
	if opts.Logger != nil {
		opts.Logger.WithField("driver", opts.Driver).Info("Database connected and schema synced")
	}
	return db, nil
}

// Migrate syncs the schema and makes sure the transaction counter row exists,
// so checkouts only ever lock it and never race to create it.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.TransactionRecord{},
		&models.TransactionItem{},
		&models.Counter{},
		&models.ActivityLog{},
	)
	if err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}

	err = db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Counter{Name: models.TransactionCounter}).Error
	if err != nil {
		return fmt.Errorf("seed transaction counter: %w", err)
	}
	return nil
}
