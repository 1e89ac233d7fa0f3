package entity

import "gorm.io/gorm"

// MigrateTable creates or updates every table to the latest schema.
func MigrateTable(db *gorm.DB) error {
	return db.AutoMigrate(
		&Migration{},
		&ActivityEvent{},
		&PointTransaction{},
		&SkillRawMetrics{},
		&UserSkillScore{},
		&RadarSnapshot{},
		&UserProgression{},
		&Achievement{},
		&UserAchievement{},
	)
}
