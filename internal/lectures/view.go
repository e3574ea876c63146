package lectures

import "gorm.io/gorm"

// EnsureView recreates lectures_view so schema changes always propagate.
// The posts table must already be migrated when this runs.
func EnsureView(db *gorm.DB) error {
	if err := db.Exec("DROP VIEW IF EXISTS lectures_view").Error; err != nil {
		return err
	}
	return db.Exec(`
		CREATE VIEW lectures_view AS
		SELECT l.id, l.title, l.thumbnail, l.make_date,
		       COUNT(p.id) AS post_count,
		       MAX(p.make_date) AS last_post_date
		FROM lectures l
		LEFT JOIN posts p ON p.lecture_id = l.id
		GROUP BY l.id, l.title, l.thumbnail, l.make_date`).Error
}
