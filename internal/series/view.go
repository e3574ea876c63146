package series

import "gorm.io/gorm"

// EnsureView recreates series_view so schema changes always propagate.
// The posts table must already be migrated when this runs.
func EnsureView(db *gorm.DB) error {
	if err := db.Exec("DROP VIEW IF EXISTS series_view").Error; err != nil {
		return err
	}
	return db.Exec(`
		CREATE VIEW series_view AS
		SELECT s.id, s.title, s.thumbnail, s.make_date,
		       COUNT(p.id) AS post_count,
		       MAX(p.make_date) AS last_post_date
		FROM series s
		LEFT JOIN posts p ON p.series_id = s.id
		GROUP BY s.id, s.title, s.thumbnail, s.make_date`).Error
}
