package db

import (
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"postpilot/db/models"
	"postpilot/logger"
)

// Database represents the database connection
type Database struct {
	DB *gorm.DB
}

// NewDatabase opens (creating if needed) the sqlite database under
// saveLocation and runs migrations.
func NewDatabase(saveLocation string) (*Database, error) {
	if err := os.MkdirAll(saveLocation, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	// Busy timeout plus WAL so concurrent request handlers serialize on the
	// guarded status updates instead of failing with SQLITE_BUSY.
	dbPath := filepath.Join(saveLocation, "postpilot.db") + "?_busy_timeout=5000&_journal_mode=WAL"

	// Configure GORM logger
	logConfig := gormlogger.Config{
		LogLevel: gormlogger.Warn, // Log only warnings and errors
		Colorful: false,
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: gormlogger.New(
			logger.Logger,
			logConfig,
		),
	})

	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := migrate(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Database{DB: db}, nil
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Session{},
		&models.Post{},
		&models.Interaction{},
	)
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
