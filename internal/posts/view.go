package posts

import "gorm.io/gorm"

// EnsureView recreates posts_view: post rows joined with parent titles
// and a comma-joined tag list. The series and lectures tables must be
// migrated before this runs.
func EnsureView(db *gorm.DB) error {
	if err := db.Exec("DROP VIEW IF EXISTS posts_view").Error; err != nil {
		return err
	}
	return db.Exec(`
		CREATE VIEW posts_view AS
		SELECT p.id, p.title, p.body, p.view, p.likes, p.make_date,
		       p.series_id, p.lecture_id,
		       s.title AS series_title,
		       l.title AS lecture_title,
		       (SELECT GROUP_CONCAT(t.tag) FROM tags t WHERE t.post_id = p.id) AS tags
		FROM posts p
		LEFT JOIN series s ON p.series_id = s.id
		LEFT JOIN lectures l ON p.lecture_id = l.id`).Error
}
