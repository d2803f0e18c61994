package database

import (
	"fmt"
	"log/slog"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"splitfree/models"
)

// Connect opens the PostgreSQL connection. SQL statements are only logged
// when debug is set.
func Connect(url string, debug bool) (*gorm.DB, error) {
	level := logger.Warn
	if debug {
		level = logger.Info
	}

	db, err := gorm.Open(postgres.Open(url), &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	slog.Info("✅ Database connected successfully")
	return db, nil
}

// Migrate creates or updates every table the service stores.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Friend{},
		&models.FriendRequest{},
		&models.Group{},
		&models.GroupMember{},
		&models.Event{},
		&models.Participant{},
		&models.Person{},
		&models.Expense{},
	)
	if err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}

	slog.Info("✅ Database migrated successfully")
	return nil
}
