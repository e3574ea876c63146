package database

import (
	"errors"
	"time"

	"github.com/cjcjon/blog-backend/internal/posts"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const migrationBackfillLikeCounters = "2026-05-10_backfill_like_counters"

type migrationRecord struct {
	Name             string `gorm:"column:name;primaryKey;size:190;not null"`
	AppliedAtSeconds int64  `gorm:"column:applied_at_s;not null"`
}

func (migrationRecord) TableName() string {
	return "db_migrations"
}

type migrationDefinition struct {
	name  string
	apply func(*gorm.DB) error
}

func applyMigrations(db *gorm.DB, logger *zap.Logger) error {
	migrations := []migrationDefinition{
		{name: migrationBackfillLikeCounters, apply: backfillLikeCounters},
	}

	for _, migration := range migrations {
		var record migrationRecord
		err := db.Where("name = ?", migration.name).Take(&record).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := migration.apply(db); err != nil {
			return err
		}
		appliedAt := time.Now().UTC().Unix()
		if err := db.Create(&migrationRecord{Name: migration.name, AppliedAtSeconds: appliedAt}).Error; err != nil {
			return err
		}
		if logger != nil {
			logger.Info("database migration applied", zap.String("migration", migration.name))
		}
	}
	return nil
}

// backfillLikeCounters repairs the denormalized like counter so it equals
// the number of like rows for each post.
func backfillLikeCounters(db *gorm.DB) error {
	return db.Model(&posts.Post{}).
		Where("1 = 1").
		Update("likes", gorm.Expr(
			"(SELECT COUNT(*) FROM likes WHERE likes.post_id = posts.id)",
		)).Error
}
