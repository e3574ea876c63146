package posts

import (
	"strings"
	"time"
)

// Post is a persisted article. ID 0 denotes a post not yet inserted.
// A post hangs off a series or a lecture; both references are optional
// because the two content trees coexist.
type Post struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Title     string    `gorm:"column:title;size:255;not null"`
	Body      string    `gorm:"column:body;type:text;not null"`
	ViewCount int64     `gorm:"column:view;not null;default:0"`
	LikeCount int64     `gorm:"column:likes;not null;default:0"`
	MakeDate  time.Time `gorm:"column:make_date;autoCreateTime"`
	SeriesID  *int64    `gorm:"column:series_id;index"`
	LectureID *int64    `gorm:"column:lecture_id;index"`
}

// TableName exposes the table backing post rows.
func (Post) TableName() string {
	return "posts"
}

// Tag is one tag attached to a post. The composite primary key makes a
// post's tag set a plain row set: replacing it is delete-then-insert.
type Tag struct {
	PostID int64  `gorm:"column:post_id;primaryKey"`
	Tag    string `gorm:"column:tag;primaryKey;size:100"`
}

// TableName exposes the table backing tag rows.
func (Tag) TableName() string {
	return "tags"
}

// Like records one like per client IP per post; the composite primary
// key enforces the at-most-once invariant at the store level.
type Like struct {
	PostID int64  `gorm:"column:post_id;primaryKey"`
	IP     string `gorm:"column:ip;primaryKey;size:64"`
}

// TableName exposes the table backing like rows.
func (Like) TableName() string {
	return "likes"
}

// TagCount is one entry of the grouped tag listing.
type TagCount struct {
	Tag   string `gorm:"column:tag" json:"tag"`
	Count int64  `gorm:"column:count" json:"count"`
}

// Detail is a fully joined post as served to readers: view counters,
// parent titles and the comma-joined tag list split into a slice.
type Detail struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Body         string    `json:"body"`
	ViewCount    int64     `json:"view"`
	LikeCount    int64     `json:"likes"`
	MakeDate     time.Time `json:"makeDate"`
	SeriesID     *int64    `json:"seriesId"`
	LectureID    *int64    `json:"lectureId"`
	SeriesTitle  string    `json:"seriesTitle"`
	LectureTitle string    `json:"lectureTitle"`
	Tags         []string  `json:"tags"`
}

// viewRow mirrors one posts_view row before tag splitting.
type viewRow struct {
	ID           int64     `gorm:"column:id"`
	Title        string    `gorm:"column:title"`
	Body         string    `gorm:"column:body"`
	ViewCount    int64     `gorm:"column:view"`
	LikeCount    int64     `gorm:"column:likes"`
	MakeDate     time.Time `gorm:"column:make_date"`
	SeriesID     *int64    `gorm:"column:series_id"`
	LectureID    *int64    `gorm:"column:lecture_id"`
	SeriesTitle  *string   `gorm:"column:series_title"`
	LectureTitle *string   `gorm:"column:lecture_title"`
	Tags         *string   `gorm:"column:tags"`
}

func (r viewRow) toDetail() Detail {
	detail := Detail{
		ID:        r.ID,
		Title:     r.Title,
		Body:      r.Body,
		ViewCount: r.ViewCount,
		LikeCount: r.LikeCount,
		MakeDate:  r.MakeDate,
		SeriesID:  r.SeriesID,
		LectureID: r.LectureID,
		Tags:      splitTags(r.Tags),
	}
	if r.SeriesTitle != nil {
		detail.SeriesTitle = *r.SeriesTitle
	}
	if r.LectureTitle != nil {
		detail.LectureTitle = *r.LectureTitle
	}
	return detail
}

func splitTags(joined *string) []string {
	if joined == nil || *joined == "" {
		return []string{}
	}
	return strings.Split(*joined, ",")
}

// Summary is a truncated post row for parent listing pages.
type Summary struct {
	ID        int64     `gorm:"column:id" json:"id"`
	Title     string    `gorm:"column:title" json:"title"`
	Body      string    `gorm:"column:body" json:"body"`
	LikeCount int64     `gorm:"column:likes" json:"likes"`
	MakeDate  time.Time `gorm:"column:make_date" json:"makeDate"`
	Tags      *string   `gorm:"column:tags" json:"tags"`
}

// RecentPost is one of the newest posts with its series thumbnail.
type RecentPost struct {
	ID        int64     `gorm:"column:id" json:"id"`
	Title     string    `gorm:"column:title" json:"title"`
	Body      string    `gorm:"column:body" json:"body"`
	Thumbnail *string   `gorm:"column:thumbnail" json:"thumbnail"`
	MakeDate  time.Time `gorm:"column:make_date" json:"makeDate"`
}

// LikedPost is one entry of the top-liked ranking.
type LikedPost struct {
	ID        int64     `gorm:"column:id" json:"id"`
	Title     string    `gorm:"column:title" json:"title"`
	LikeCount int64     `gorm:"column:likes" json:"likes"`
	MakeDate  time.Time `gorm:"column:make_date" json:"makeDate"`
}

// ViewedPost is one entry of the most-viewed ranking.
type ViewedPost struct {
	ID        int64  `gorm:"column:id" json:"id"`
	Title     string `gorm:"column:title" json:"title"`
	ViewCount int64  `gorm:"column:view" json:"view"`
}
