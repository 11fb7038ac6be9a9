package menu

import (
	"time"
)

// Item is a catalog entry. Items are soft-deleted via Available so order
// snapshots referencing them stay historically valid.
type Item struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Price     float64   `gorm:"not null" json:"price"`
	Section   string    `gorm:"type:varchar(100);not null;index" json:"section"`
	Available bool      `gorm:"not null;default:true" json:"available"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName sets the table name for the Item model
func (Item) TableName() string {
	return "menu_items"
}
