package token

import (
	"testing"
	"time"

	"canteen-bot/database"
	orderModel "canteen-bot/models/order"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTokenTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

func TestNextStartsAtOneAndIncrements(t *testing.T) {
	db := setupTokenTestDB(t)
	assigner := NewAssigner()
	day := time.Date(2025, 3, 7, 12, 0, 0, 0, time.Local)

	for want := 1; want <= 5; want++ {
		var got int
		err := db.Transaction(func(tx *gorm.DB) error {
			var err error
			got, err = assigner.Next(tx, day)
			return err
		})
		assert.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestNextResetsEachDay(t *testing.T) {
	db := setupTokenTestDB(t)
	assigner := NewAssigner()

	friday := time.Date(2025, 3, 7, 12, 0, 0, 0, time.Local)
	saturday := friday.Add(24 * time.Hour)

	err := db.Transaction(func(tx *gorm.DB) error {
		for i := 0; i < 3; i++ {
			if _, err := assigner.Next(tx, friday); err != nil {
				return err
			}
		}
		return nil
	})
	assert.NoError(t, err)

	var got int
	err = db.Transaction(func(tx *gorm.DB) error {
		var err error
		got, err = assigner.Next(tx, saturday)
		return err
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, got)

	// Friday's counter is untouched by Saturday's sequence.
	var fridayCtr orderModel.DailyCounter
	assert.NoError(t, db.Where("day = ?", "2025-03-07").Take(&fridayCtr).Error)
	assert.Equal(t, 3, fridayCtr.Seq)
}

func TestNextRollsBackWithTransaction(t *testing.T) {
	db := setupTokenTestDB(t)
	assigner := NewAssigner()
	day := time.Date(2025, 3, 7, 12, 0, 0, 0, time.Local)

	err := db.Transaction(func(tx *gorm.DB) error {
		if _, err := assigner.Next(tx, day); err != nil {
			return err
		}
		return assert.AnError
	})
	assert.Error(t, err)

	// The aborted transaction must not burn a token.
	var got int
	err = db.Transaction(func(tx *gorm.DB) error {
		var err error
		got, err = assigner.Next(tx, day)
		return err
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, got)
}
