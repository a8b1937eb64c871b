// database/bootstrap.go
package database

import (
	"fmt"

	sqlite "github.com/glebarez/sqlite" // CGO-free driver
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"krishi/entities"
)

// OpenSQLite opens the store. ":memory:" gives a private database, used by tests.
func OpenSQLite(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite handle: %w", err)
	}
	// one writer; also keeps a :memory: database on a single connection
	sqlDB.SetMaxOpenConns(1)

	if err := db.Exec(`PRAGMA foreign_keys = ON`).Error; err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return db, nil
}

// Migrate brings the schema up to date. Safe to run on every start.
func Migrate(db *gorm.DB) error {
	// must run BEFORE AutoMigrate adds the unique index on email
	if err := migrateLowercaseEmails(db); err != nil {
		return fmt.Errorf("migrate emails: %w", err)
	}
	if err := db.AutoMigrate(
		&entities.Farmer{},
		&entities.FarmerSettings{},
		&entities.Crop{},
	); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}

// migrateLowercaseEmails folds stored emails to lower case so lookups by the
// lowercased sign-in email always hit. Refuses to run if folding would collide.
func migrateLowercaseEmails(db *gorm.DB) error {
	var tbl string
	if err := db.Raw(`SELECT name FROM sqlite_master WHERE type='table' AND name='farmers'`).Scan(&tbl).Error; err != nil {
		return fmt.Errorf("check table exist: %w", err)
	}
	if tbl == "" {
		// fresh DB, nothing to do
		return nil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var dupes []string
		if err := tx.Raw(`
SELECT lower(trim(email)) AS e FROM farmers
GROUP BY e HAVING count(*) > 1
`).Scan(&dupes).Error; err != nil {
			return err
		}
		if len(dupes) > 0 {
			return fmt.Errorf("emails collide case-insensitively: %v", dupes)
		}
		return tx.Exec(`UPDATE farmers SET email = lower(trim(email)) WHERE email <> lower(trim(email))`).Error
	})
}
