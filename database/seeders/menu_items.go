package seeders

import (
	"fmt"

	"canteen-bot/logger"
	menuModel "canteen-bot/models/menu"

	"gorm.io/gorm"
)

// SeedMenuItems loads a starter catalog into an empty menu. It never touches
// a menu the operator has already populated.
func SeedMenuItems(db *gorm.DB) error {
	var count int64
	if err := db.Model(&menuModel.Item{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	items := []menuModel.Item{
		{Name: "Samosa", Price: 15, Section: "snacks", Available: true},
		{Name: "Vada Pav", Price: 20, Section: "snacks", Available: true},
		{Name: "Veg Thali", Price: 80, Section: "meals", Available: true},
		{Name: "Paneer Roll", Price: 60, Section: "meals", Available: true},
		{Name: "Masala Chai", Price: 10, Section: "drinks", Available: true},
		{Name: "Cold Coffee", Price: 40, Section: "drinks", Available: true},
	}
	if err := db.Create(&items).Error; err != nil {
		return err
	}

	logger.Success(fmt.Sprintf("Seeded %d menu items", len(items)))
	return nil
}
