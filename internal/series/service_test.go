package series

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/cjcjon/blog-backend/internal/optional"
	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type postRow struct {
	ID       int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Title    string    `gorm:"column:title"`
	Likes    int64     `gorm:"column:likes"`
	MakeDate time.Time `gorm:"column:make_date;autoCreateTime"`
	SeriesID *int64    `gorm:"column:series_id"`
}

func (postRow) TableName() string { return "posts" }

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:series_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	if err := db.AutoMigrate(&Series{}, &postRow{}); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	if err := EnsureView(db); err != nil {
		t.Fatalf("failed to create series view: %v", err)
	}

	service, err := NewService(ServiceConfig{Database: db})
	if err != nil {
		t.Fatalf("unexpected constructor error: %v", err)
	}
	return service, db
}

func TestCreateAndGetByID(t *testing.T) {
	service, _ := newTestService(t)

	id, err := service.Create(context.Background(), "Go from scratch", "https://img.example.com/thumbs/a.png")
	if err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}
	if id <= 0 {
		t.Fatalf("expected generated id > 0, got %d", id)
	}

	summary, err := service.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("unexpected get error: %v", err)
	}
	if summary.Title != "Go from scratch" {
		t.Fatalf("unexpected title: %q", summary.Title)
	}
	if summary.PostCount != 0 {
		t.Fatalf("fresh series must have zero posts, got %d", summary.PostCount)
	}
}

func TestGetByIDReportsMissingSeries(t *testing.T) {
	service, _ := newTestService(t)

	_, err := service.GetByID(context.Background(), 42)
	if !errors.Is(err, ErrSeriesNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestListAllCountsPosts(t *testing.T) {
	service, db := newTestService(t)

	id, err := service.Create(context.Background(), "Go from scratch", "")
	if err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := db.Create(&postRow{Title: fmt.Sprintf("post %d", i), SeriesID: &id}).Error; err != nil {
			t.Fatalf("failed to seed post: %v", err)
		}
	}

	rows, err := service.ListAll(context.Background())
	if err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected one series, got %d", len(rows))
	}
	if rows[0].PostCount != 3 {
		t.Fatalf("expected post count 3, got %d", rows[0].PostCount)
	}
	if rows[0].LastPostDate == nil {
		t.Fatalf("expected last post date to be set")
	}
}

func TestListRecommendedRanksByLikes(t *testing.T) {
	service, db := newTestService(t)

	quiet, err := service.Create(context.Background(), "quiet", "")
	if err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}
	popular, err := service.Create(context.Background(), "popular", "")
	if err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}
	if err := db.Create(&postRow{Title: "meh", Likes: 1, SeriesID: &quiet}).Error; err != nil {
		t.Fatalf("failed to seed post: %v", err)
	}
	if err := db.Create(&postRow{Title: "hit", Likes: 10, SeriesID: &popular}).Error; err != nil {
		t.Fatalf("failed to seed post: %v", err)
	}

	rows, err := service.ListRecommended(context.Background())
	if err != nil {
		t.Fatalf("unexpected recommendation error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected two rows, got %d", len(rows))
	}
	if rows[0].Title != "popular" {
		t.Fatalf("expected most liked series first, got %q", rows[0].Title)
	}
}

func TestUpdateChangesOnlyPresentFields(t *testing.T) {
	service, db := newTestService(t)

	id, err := service.Create(context.Background(), "before", "thumb-before")
	if err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}

	err = service.Update(context.Background(), id, UpdateRequest{
		Title: optional.Some("after"),
	})
	if err != nil {
		t.Fatalf("unexpected update error: %v", err)
	}

	var stored Series
	if err := db.Where("id = ?", id).Take(&stored).Error; err != nil {
		t.Fatalf("failed to load series: %v", err)
	}
	if stored.Title != "after" {
		t.Fatalf("title must change, got %q", stored.Title)
	}
	if stored.Thumbnail != "thumb-before" {
		t.Fatalf("thumbnail must stay untouched, got %q", stored.Thumbnail)
	}
}

func TestUpdateRejectsEmptyRequest(t *testing.T) {
	service, _ := newTestService(t)

	id, err := service.Create(context.Background(), "A", "")
	if err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}

	err = service.Update(context.Background(), id, UpdateRequest{})
	if !errors.Is(err, ErrEmptyUpdate) {
		t.Fatalf("expected empty update error, got %v", err)
	}
}

func TestUpdateReportsMissingSeries(t *testing.T) {
	service, _ := newTestService(t)

	err := service.Update(context.Background(), 42, UpdateRequest{Title: optional.Some("x")})
	if !errors.Is(err, ErrSeriesNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestDeleteByID(t *testing.T) {
	service, _ := newTestService(t)

	id, err := service.Create(context.Background(), "A", "")
	if err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}
	if err := service.DeleteByID(context.Background(), id); err != nil {
		t.Fatalf("unexpected delete error: %v", err)
	}
	if err := service.DeleteByID(context.Background(), id); !errors.Is(err, ErrSeriesNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}
