package lectures

import (
	"context"
	"errors"
	"fmt"

	"github.com/cjcjon/blog-backend/internal/optional"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrLectureNotFound indicates the referenced lecture row is absent.
	ErrLectureNotFound = errors.New("lectures: not found")
	// ErrEmptyUpdate indicates an update request without any present field.
	ErrEmptyUpdate = errors.New("lectures: empty update request")
	// ErrMissingDatabase indicates the service was built without a store.
	ErrMissingDatabase = errors.New("lectures: database connection required")

	noOpLogger = zap.NewNop()
)

// UpdateRequest carries the fields of a partial lecture update. Absent
// fields are excluded from the SET clause.
type UpdateRequest struct {
	Title     optional.Value[string]
	Thumbnail optional.Value[string]
}

// ServiceConfig describes the dependencies of the lecture repository.
type ServiceConfig struct {
	Database *gorm.DB
	Logger   *zap.Logger
}

// Service implements lecture CRUD against the relational store.
type Service struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewService constructs the lecture repository.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, ErrMissingDatabase
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	return &Service{db: cfg.Database, logger: logger}, nil
}

// ListAll returns every lecture with its derived counters.
func (s *Service) ListAll(ctx context.Context) ([]Summary, error) {
	var rows []Summary
	if err := s.db.WithContext(ctx).Table("lectures_view").Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("lectures: list failed: %w", err)
	}
	return rows, nil
}

// GetByID returns one lecture with its derived counters.
func (s *Service) GetByID(ctx context.Context, id int64) (Summary, error) {
	var row Summary
	err := s.db.WithContext(ctx).Table("lectures_view").Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Summary{}, ErrLectureNotFound
	}
	if err != nil {
		return Summary{}, fmt.Errorf("lectures: lookup failed: %w", err)
	}
	return row, nil
}

// ListRecommended returns the five lectures whose posts collected the
// most likes.
func (s *Service) ListRecommended(ctx context.Context) ([]Recommendation, error) {
	var rows []Recommendation
	err := s.db.WithContext(ctx).Raw(`
		SELECT b.id AS id, b.title AS title, a.last_post_date AS last_post_date
		FROM (SELECT lecture_id, SUM(likes) AS likes, MAX(make_date) AS last_post_date
		      FROM posts
		      WHERE lecture_id IS NOT NULL
		      GROUP BY lecture_id
		      ORDER BY likes DESC
		      LIMIT 5) a
		LEFT JOIN lectures b ON a.lecture_id = b.id`).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("lectures: recommendation query failed: %w", err)
	}
	return rows, nil
}

// Create inserts a lecture row and returns its generated id.
func (s *Service) Create(ctx context.Context, title, thumbnail string) (int64, error) {
	row := Lecture{Title: title, Thumbnail: thumbnail}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		s.logger.Error("lecture insert failed", zap.String("title", title), zap.Error(err))
		return 0, fmt.Errorf("lectures: insert failed: %w", err)
	}
	return row.ID, nil
}

// Update applies the present fields of the request to one lecture row.
// The existence probe and the update run in the same transaction so a
// vanished row reports ErrLectureNotFound instead of silently updating
// zero rows.
func (s *Service) Update(ctx context.Context, id int64, request UpdateRequest) error {
	updates := map[string]interface{}{}
	if title, ok := request.Title.Get(); ok {
		updates["title"] = title
	}
	if thumbnail, ok := request.Thumbnail.Get(); ok {
		updates["thumbnail"] = thumbnail
	}
	if len(updates) == 0 {
		return ErrEmptyUpdate
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing Lecture
		if err := tx.Where("id = ?", id).Take(&existing).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrLectureNotFound
			}
			return fmt.Errorf("lectures: existence probe failed: %w", err)
		}
		if err := tx.Model(&Lecture{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return fmt.Errorf("lectures: update failed: %w", err)
		}
		return nil
	})
}

// DeleteByID removes one lecture row. Thumbnail cleanup happens at the
// caller after the deletion committed.
func (s *Service) DeleteByID(ctx context.Context, id int64) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&Lecture{})
	if result.Error != nil {
		return fmt.Errorf("lectures: delete failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrLectureNotFound
	}
	return nil
}
