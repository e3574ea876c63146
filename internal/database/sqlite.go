package database

import (
	"fmt"

	"github.com/cjcjon/blog-backend/internal/lectures"
	"github.com/cjcjon/blog-backend/internal/posts"
	"github.com/cjcjon/blog-backend/internal/series"
	"github.com/cjcjon/blog-backend/internal/users"
	sqlite "github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OpenSQLite establishes a SQLite connection, migrates the schema and
// recreates the read-optimized views.
func OpenSQLite(path string, logger *zap.Logger) (*gorm.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&users.User{},
		&lectures.Lecture{},
		&series.Series{},
		&posts.Post{},
		&posts.Tag{},
		&posts.Like{},
		&migrationRecord{},
	); err != nil {
		return nil, err
	}

	if err := applyMigrations(db, logger); err != nil {
		return nil, err
	}

	if err := ensureViews(db); err != nil {
		return nil, err
	}

	if logger != nil {
		logger.Info("database initialized", zap.String("path", path))
	}

	return db, nil
}

// ensureViews drops and recreates every read view so the definitions
// always match the running binary.
func ensureViews(db *gorm.DB) error {
	if err := series.EnsureView(db); err != nil {
		return err
	}
	if err := lectures.EnsureView(db); err != nil {
		return err
	}
	return posts.EnsureView(db)
}
