package order

import (
	"time"
)

// DailyCounter backs the per-day pickup token sequence. One row per
// calendar day, incremented atomically inside the mark-paid transaction.
type DailyCounter struct {
	Day       string    `gorm:"type:varchar(10);primaryKey" json:"day"` // YYYY-MM-DD
	Seq       int       `gorm:"not null;default:0" json:"seq"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName sets the table name for the DailyCounter model
func (DailyCounter) TableName() string {
	return "daily_counters"
}
