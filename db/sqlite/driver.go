package sqlite

import (
	"fmt"
	"sync/atomic"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open creates a GORM *DB backed by SQLite at the given path.
func Open(path string) (*gorm.DB, error) {
	return gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
}

var memSeq atomic.Int64

// OpenMemory creates a private in-memory SQLite database. Each call
// gets its own database; the shared-cache DSN keeps every pooled
// connection of one *gorm.DB on the same database.
func OpenMemory() (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:mem%d?mode=memory&cache=shared", memSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// A single connection avoids table-lock contention in tests.
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}
