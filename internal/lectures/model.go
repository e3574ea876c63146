package lectures

import "time"

// Lecture is a course container for posts, carrying its own thumbnail.
type Lecture struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Title     string    `gorm:"column:title;size:255;not null"`
	Thumbnail string    `gorm:"column:thumbnail;size:512;not null;default:''"`
	MakeDate  time.Time `gorm:"column:make_date;autoCreateTime"`
}

// TableName exposes the table backing lecture rows.
func (Lecture) TableName() string {
	return "lectures"
}

// Summary is a read-only row of lectures_view.
type Summary struct {
	ID           int64      `gorm:"column:id" json:"id"`
	Title        string     `gorm:"column:title" json:"title"`
	Thumbnail    string     `gorm:"column:thumbnail" json:"thumbnail"`
	MakeDate     time.Time  `gorm:"column:make_date" json:"makeDate"`
	PostCount    int64      `gorm:"column:post_count" json:"postCount"`
	LastPostDate *time.Time `gorm:"column:last_post_date" json:"lastPostDate"`
}

// Recommendation is a top-liked lecture with its latest activity date.
type Recommendation struct {
	ID           int64      `gorm:"column:id" json:"id"`
	Title        string     `gorm:"column:title" json:"title"`
	LastPostDate *time.Time `gorm:"column:last_post_date" json:"lastPostDate"`
}
