package entity

import (
	"time"
)

// SnowFlakeBase is embedded by append-only entities. Snowflake ids grow with
// time, so ordering by id is ordering by creation within a node.
type SnowFlakeBase struct {
	ID        int64 `gorm:"primaryKey;autoIncrement:false"`
	CreatedAt time.Time
}
