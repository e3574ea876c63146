package posts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cjcjon/blog-backend/internal/optional"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrPostNotFound indicates the referenced post row is absent.
	ErrPostNotFound = errors.New("posts: not found")
	// ErrAlreadyLiked indicates a second like from the same client IP.
	ErrAlreadyLiked = errors.New("posts: already liked")
	// ErrEmptyUpdate indicates an update request without any present field.
	ErrEmptyUpdate = errors.New("posts: empty update request")
	// ErrMissingDatabase indicates the service was built without a store.
	ErrMissingDatabase = errors.New("posts: database connection required")

	noOpLogger = zap.NewNop()
)

// Draft is the input for creating a post. Tags become the post's full
// tag set, written in the same transaction as the row insert.
type Draft struct {
	Title     string
	Body      string
	Tags      []string
	SeriesID  *int64
	LectureID *int64
}

// UpdateRequest carries the fields of a partial post update. An absent
// field leaves the column untouched; a present tag set fully replaces
// the stored one.
type UpdateRequest struct {
	Title optional.Value[string]
	Body  optional.Value[string]
	Tags  optional.Value[[]string]
}

// ServiceConfig describes the dependencies of the post repository.
type ServiceConfig struct {
	Database *gorm.DB
	Logger   *zap.Logger
}

// Service implements the post write path: CRUD, transactional tag
// synchronization, like registration and the view counter.
type Service struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewService constructs the post repository.
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

// Create inserts the post row and its tag set in one transaction and
// returns the generated id. A failed tag insert rolls the row back.
func (s *Service) Create(ctx context.Context, draft Draft) (int64, error) {
	post := Post{
		Title:     draft.Title,
		Body:      draft.Body,
		SeriesID:  draft.SeriesID,
		LectureID: draft.LectureID,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&post).Error; err != nil {
			return fmt.Errorf("posts: insert failed: %w", err)
		}
		if len(draft.Tags) > 0 {
			if err := tx.Create(tagRows(post.ID, draft.Tags)).Error; err != nil {
				return fmt.Errorf("posts: tag insert failed: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("post create failed", zap.String("title", draft.Title), zap.Error(err))
		return 0, err
	}

	return post.ID, nil
}

// GetByID returns the fully joined post.
func (s *Service) GetByID(ctx context.Context, id int64) (Detail, error) {
	var row viewRow
	err := s.db.WithContext(ctx).Table("posts_view").Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Detail{}, ErrPostNotFound
	}
	if err != nil {
		return Detail{}, fmt.Errorf("posts: lookup failed: %w", err)
	}
	return row.toDetail(), nil
}

// ListBySeries returns the posts of one series with bodies truncated
// for listing pages.
func (s *Service) ListBySeries(ctx context.Context, seriesID int64) ([]Summary, error) {
	return s.listByParent(ctx, "series_id", seriesID)
}

// ListByLecture returns the posts of one lecture with bodies truncated
// for listing pages.
func (s *Service) ListByLecture(ctx context.Context, lectureID int64) ([]Summary, error) {
	return s.listByParent(ctx, "lecture_id", lectureID)
}

func (s *Service) listByParent(ctx context.Context, column string, parentID int64) ([]Summary, error) {
	var rows []Summary
	query := fmt.Sprintf(`
		SELECT id, title, substr(body, 1, 100) AS body, likes, tags, make_date
		FROM posts_view
		WHERE %s = ?
		ORDER BY id`, column)
	if err := s.db.WithContext(ctx).Raw(query, parentID).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("posts: list by %s failed: %w", column, err)
	}
	return rows, nil
}

// ListRecent returns the two newest posts joined with their series
// thumbnail.
func (s *Service) ListRecent(ctx context.Context) ([]RecentPost, error) {
	var rows []RecentPost
	err := s.db.WithContext(ctx).Raw(`
		SELECT a.id, a.title, a.body, b.thumbnail, a.make_date
		FROM (SELECT id, title, body, series_id, make_date FROM posts ORDER BY id DESC LIMIT 2) a
		LEFT JOIN (SELECT id, thumbnail FROM series) b ON a.series_id = b.id`).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("posts: recent query failed: %w", err)
	}
	return rows, nil
}

// ListTopLiked returns the five most liked posts.
func (s *Service) ListTopLiked(ctx context.Context) ([]LikedPost, error) {
	var rows []LikedPost
	err := s.db.WithContext(ctx).
		Model(&Post{}).
		Select("id, title, likes, make_date").
		Order("likes DESC").
		Limit(5).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("posts: top liked query failed: %w", err)
	}
	return rows, nil
}

// ListMostViewed returns the five most viewed posts.
func (s *Service) ListMostViewed(ctx context.Context) ([]ViewedPost, error) {
	var rows []ViewedPost
	err := s.db.WithContext(ctx).
		Model(&Post{}).
		Select("id, title, view").
		Order("view DESC").
		Limit(5).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("posts: most viewed query failed: %w", err)
	}
	return rows, nil
}

// CountView bumps the view counter with a single atomic statement;
// read-modify-write at this layer would lose updates under concurrency.
func (s *Service) CountView(ctx context.Context, id int64) error {
	result := s.db.WithContext(ctx).
		Model(&Post{}).
		Where("id = ?", id).
		UpdateColumn("view", gorm.Expr("view + 1"))
	if result.Error != nil {
		return fmt.Errorf("posts: view count failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrPostNotFound
	}
	return nil
}

// Update applies the present fields to one post row. A present tag set
// is replaced wholesale (delete-all-then-insert) inside the same
// transaction as the column updates, so readers never observe the row
// with a half-replaced tag set.
func (s *Service) Update(ctx context.Context, id int64, request UpdateRequest) error {
	updates := map[string]interface{}{}
	if title, ok := request.Title.Get(); ok {
		updates["title"] = title
	}
	if body, ok := request.Body.Get(); ok {
		updates["body"] = body
	}
	if len(updates) == 0 && !request.Tags.Present() {
		return ErrEmptyUpdate
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing Post
		if err := tx.Where("id = ?", id).Take(&existing).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPostNotFound
			}
			return fmt.Errorf("posts: existence probe failed: %w", err)
		}

		if len(updates) > 0 {
			if err := tx.Model(&Post{}).Where("id = ?", id).Updates(updates).Error; err != nil {
				return fmt.Errorf("posts: update failed: %w", err)
			}
		}

		if tags, ok := request.Tags.Get(); ok {
			if err := tx.Where("post_id = ?", id).Delete(&Tag{}).Error; err != nil {
				return fmt.Errorf("posts: tag delete failed: %w", err)
			}
			if len(tags) > 0 {
				if err := tx.Create(tagRows(id, tags)).Error; err != nil {
					return fmt.Errorf("posts: tag insert failed: %w", err)
				}
			}
		}
		return nil
	})
}

// Delete removes the post row together with its tag and like rows so no
// child row ever references a missing post. Body-image cleanup happens
// at the caller after the deletion committed.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ?", id).Delete(&Post{})
		if result.Error != nil {
			return fmt.Errorf("posts: delete failed: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrPostNotFound
		}
		if err := tx.Where("post_id = ?", id).Delete(&Tag{}).Error; err != nil {
			return fmt.Errorf("posts: tag cleanup failed: %w", err)
		}
		if err := tx.Where("post_id = ?", id).Delete(&Like{}).Error; err != nil {
			return fmt.Errorf("posts: like cleanup failed: %w", err)
		}
		return nil
	})
}

// RegisterLike records one like per client IP. The like row and the
// denormalized counter are written in one transaction: a duplicate like
// rolls the counter bump back and reports ErrAlreadyLiked.
func (s *Service) RegisterLike(ctx context.Context, id int64, clientIP string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing Post
		if err := tx.Where("id = ?", id).Take(&existing).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPostNotFound
			}
			return fmt.Errorf("posts: existence probe failed: %w", err)
		}

		if err := tx.Create(&Like{PostID: id, IP: clientIP}).Error; err != nil {
			if isDuplicateKey(err) {
				return ErrAlreadyLiked
			}
			return fmt.Errorf("posts: like insert failed: %w", err)
		}

		if err := tx.Model(&Post{}).Where("id = ?", id).
			UpdateColumn("likes", gorm.Expr("likes + 1")).Error; err != nil {
			return fmt.Errorf("posts: like count failed: %w", err)
		}
		return nil
	})
}

// ListTags returns every tag row.
func (s *Service) ListTags(ctx context.Context) ([]Tag, error) {
	var rows []Tag
	if err := s.db.WithContext(ctx).Order("post_id, tag").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("posts: tag list failed: %w", err)
	}
	return rows, nil
}

// GroupTags returns tag usage counts across all posts.
func (s *Service) GroupTags(ctx context.Context) ([]TagCount, error) {
	var rows []TagCount
	err := s.db.WithContext(ctx).
		Raw("SELECT tag, COUNT(*) AS count FROM tags GROUP BY tag ORDER BY tag").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("posts: tag group failed: %w", err)
	}
	return rows, nil
}

func tagRows(postID int64, tags []string) []Tag {
	rows := make([]Tag, 0, len(tags))
	for _, tag := range tags {
		rows = append(rows, Tag{PostID: postID, Tag: tag})
	}
	return rows
}

func isDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "UNIQUE constraint")
}
