package series

import "time"

// Series groups posts under a shared title and thumbnail image.
type Series struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Title     string    `gorm:"column:title;size:255;not null"`
	Thumbnail string    `gorm:"column:thumbnail;size:512;not null;default:''"`
	MakeDate  time.Time `gorm:"column:make_date;autoCreateTime"`
}

// TableName exposes the table backing series rows.
func (Series) TableName() string {
	return "series"
}

// Summary is a read-only row of series_view: the series joined with its
// derived post count and most recent post date.
type Summary struct {
	ID           int64      `gorm:"column:id" json:"id"`
	Title        string     `gorm:"column:title" json:"title"`
	Thumbnail    string     `gorm:"column:thumbnail" json:"thumbnail"`
	MakeDate     time.Time  `gorm:"column:make_date" json:"makeDate"`
	PostCount    int64      `gorm:"column:post_count" json:"postCount"`
	LastPostDate *time.Time `gorm:"column:last_post_date" json:"lastPostDate"`
}

// Recommendation is a top-liked series with its latest activity date.
type Recommendation struct {
	ID           int64      `gorm:"column:id" json:"id"`
	Title        string     `gorm:"column:title" json:"title"`
	LastPostDate *time.Time `gorm:"column:last_post_date" json:"lastPostDate"`
}
