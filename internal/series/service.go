package series

import (
	"context"
	"errors"
	"fmt"

	"github.com/cjcjon/blog-backend/internal/optional"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrSeriesNotFound indicates the referenced series row is absent.
	ErrSeriesNotFound = errors.New("series: not found")
	// ErrEmptyUpdate indicates an update request without any present field.
	ErrEmptyUpdate = errors.New("series: empty update request")
	// ErrMissingDatabase indicates the service was built without a store.
	ErrMissingDatabase = errors.New("series: database connection required")

	noOpLogger = zap.NewNop()
)

// UpdateRequest carries the fields of a partial series update. Absent
// fields are excluded from the SET clause.
type UpdateRequest struct {
	Title     optional.Value[string]
	Thumbnail optional.Value[string]
}

// ServiceConfig describes the dependencies of the series repository.
type ServiceConfig struct {
	Database *gorm.DB
	Logger   *zap.Logger
}

// Service implements series CRUD against the relational store.
type Service struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewService constructs the series repository.
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

// ListAll returns every series with its derived counters.
func (s *Service) ListAll(ctx context.Context) ([]Summary, error) {
	var rows []Summary
	if err := s.db.WithContext(ctx).Table("series_view").Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("series: list failed: %w", err)
	}
	return rows, nil
}

// GetByID returns one series with its derived counters.
func (s *Service) GetByID(ctx context.Context, id int64) (Summary, error) {
	var row Summary
	err := s.db.WithContext(ctx).Table("series_view").Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Summary{}, ErrSeriesNotFound
	}
	if err != nil {
		return Summary{}, fmt.Errorf("series: lookup failed: %w", err)
	}
	return row, nil
}

// ListRecommended returns the five series whose posts collected the most
// likes, newest activity first within the ranking.
func (s *Service) ListRecommended(ctx context.Context) ([]Recommendation, error) {
	var rows []Recommendation
	err := s.db.WithContext(ctx).Raw(`
		SELECT b.id AS id, b.title AS title, a.last_post_date AS last_post_date
		FROM (SELECT series_id, SUM(likes) AS likes, MAX(make_date) AS last_post_date
		      FROM posts
		      WHERE series_id IS NOT NULL
		      GROUP BY series_id
		      ORDER BY likes DESC
		      LIMIT 5) a
		LEFT JOIN series b ON a.series_id = b.id`).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("series: recommendation query failed: %w", err)
	}
	return rows, nil
}

// Create inserts a series row and returns its generated id.
func (s *Service) Create(ctx context.Context, title, thumbnail string) (int64, error) {
	row := Series{Title: title, Thumbnail: thumbnail}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		s.logger.Error("series insert failed", zap.String("title", title), zap.Error(err))
		return 0, fmt.Errorf("series: insert failed: %w", err)
	}
	return row.ID, nil
}

// Update applies the present fields of the request to one series row.
// The existence probe and the update run in the same transaction so a
// vanished row reports ErrSeriesNotFound instead of silently updating
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
		var existing Series
		if err := tx.Where("id = ?", id).Take(&existing).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSeriesNotFound
			}
			return fmt.Errorf("series: existence probe failed: %w", err)
		}
		if err := tx.Model(&Series{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return fmt.Errorf("series: update failed: %w", err)
		}
		return nil
	})
}

// DeleteByID removes one series row. The caller is responsible for the
// thumbnail asset afterwards; the row deletion is never rolled back for
// asset failures.
func (s *Service) DeleteByID(ctx context.Context, id int64) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&Series{})
	if result.Error != nil {
		return fmt.Errorf("series: delete failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrSeriesNotFound
	}
	return nil
}
