package token

import (
	"time"

	orderModel "canteen-bot/models/order"
	"canteen-bot/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Assigner hands out the human-readable daily pickup tokens. The sequence is
// backed by a per-day counter row; the increment is an upsert so concurrent
// mark-paid transactions serialize on the row lock instead of racing a
// read-then-write.
type Assigner struct{}

func NewAssigner() *Assigner {
	return &Assigner{}
}

// Next returns the next token for the calendar day of t. It must be called
// inside the transaction that marks the order paid, so the token is only
// consumed when the status transition commits.
func (a *Assigner) Next(tx *gorm.DB, t time.Time) (int, error) {
	day := utils.DayKey(t)

	ctr := orderModel.DailyCounter{Day: day, Seq: 1}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "day"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"seq": gorm.Expr("daily_counters.seq + 1")}),
	}).Create(&ctr).Error
	if err != nil {
		return 0, err
	}

	// Re-read under the row lock taken by the upsert; the value cannot move
	// until this transaction commits.
	var current orderModel.DailyCounter
	if err := tx.Where("day = ?", day).Take(&current).Error; err != nil {
		return 0, err
	}
	return current.Seq, nil
}
