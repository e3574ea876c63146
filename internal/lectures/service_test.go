package lectures

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
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Title     string    `gorm:"column:title"`
	Likes     int64     `gorm:"column:likes"`
	MakeDate  time.Time `gorm:"column:make_date;autoCreateTime"`
	LectureID *int64    `gorm:"column:lecture_id"`
}

func (postRow) TableName() string { return "posts" }

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:lectures_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	if err := db.AutoMigrate(&Lecture{}, &postRow{}); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	if err := EnsureView(db); err != nil {
		t.Fatalf("failed to create lectures view: %v", err)
	}

	service, err := NewService(ServiceConfig{Database: db})
	if err != nil {
		t.Fatalf("unexpected constructor error: %v", err)
	}
	return service, db
}

func TestCreateAndListAll(t *testing.T) {
	service, db := newTestService(t)

	id, err := service.Create(context.Background(), "Databases 101", "https://img.example.com/thumbs/db.png")
	if err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}
	if id <= 0 {
		t.Fatalf("expected generated id > 0, got %d", id)
	}
	if err := db.Create(&postRow{Title: "intro", LectureID: &id}).Error; err != nil {
		t.Fatalf("failed to seed post: %v", err)
	}

	rows, err := service.ListAll(context.Background())
	if err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected one lecture, got %d", len(rows))
	}
	if rows[0].PostCount != 1 {
		t.Fatalf("expected post count 1, got %d", rows[0].PostCount)
	}
}

func TestGetByIDReportsMissingLecture(t *testing.T) {
	service, _ := newTestService(t)

	_, err := service.GetByID(context.Background(), 42)
	if !errors.Is(err, ErrLectureNotFound) {
		t.Fatalf("expected not found error, got %v", err)
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
	if err := db.Create(&postRow{Title: "meh", Likes: 2, LectureID: &quiet}).Error; err != nil {
		t.Fatalf("failed to seed post: %v", err)
	}
	if err := db.Create(&postRow{Title: "hit", Likes: 9, LectureID: &popular}).Error; err != nil {
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
		t.Fatalf("expected most liked lecture first, got %q", rows[0].Title)
	}
}

func TestUpdateChangesOnlyPresentFields(t *testing.T) {
	service, db := newTestService(t)

	id, err := service.Create(context.Background(), "before", "thumb-before")
	if err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}

	err = service.Update(context.Background(), id, UpdateRequest{
		Thumbnail: optional.Some("thumb-after"),
	})
	if err != nil {
		t.Fatalf("unexpected update error: %v", err)
	}

	var stored Lecture
	if err := db.Where("id = ?", id).Take(&stored).Error; err != nil {
		t.Fatalf("failed to load lecture: %v", err)
	}
	if stored.Title != "before" {
		t.Fatalf("title must stay untouched, got %q", stored.Title)
	}
	if stored.Thumbnail != "thumb-after" {
		t.Fatalf("thumbnail must change, got %q", stored.Thumbnail)
	}
}

func TestUpdateReportsMissingLecture(t *testing.T) {
	service, _ := newTestService(t)

	err := service.Update(context.Background(), 42, UpdateRequest{Title: optional.Some("x")})
	if !errors.Is(err, ErrLectureNotFound) {
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
	if err := service.DeleteByID(context.Background(), id); !errors.Is(err, ErrLectureNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}
