package menu

import (
	"errors"
	"strings"

	menuModel "canteen-bot/models/menu"

	"gorm.io/gorm"
)

// Store wraps catalog access for the router's admin commands and the
// operator HTTP endpoints.
type Store struct {
	DB *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{DB: db}
}

// Available returns all purchasable items ordered by section then name.
func (s *Store) Available() ([]menuModel.Item, error) {
	var items []menuModel.Item
	err := s.DB.Where("available = ?", true).Order("section, name").Find(&items).Error
	return items, err
}

// Get returns a single available item, or nil when hidden or unknown.
func (s *Store) Get(itemID uint) (*menuModel.Item, error) {
	var item menuModel.Item
	err := s.DB.Where("id = ? AND available = ?", itemID, true).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Upsert adds a new item or, when an item with the same name already exists
// (case-insensitively), syncs its price and section and makes it available
// again. Returns the item and whether it was newly created.
func (s *Store) Upsert(name string, price float64, section string) (*menuModel.Item, bool, error) {
	name = strings.TrimSpace(name)
	section = strings.ToLower(strings.TrimSpace(section))

	var item menuModel.Item
	created := false
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("lower(name) = lower(?)", name).First(&item).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			item = menuModel.Item{Name: name, Price: price, Section: section, Available: true}
			created = true
			return tx.Create(&item).Error
		}
		if err != nil {
			return err
		}
		item.Price = price
		item.Section = section
		item.Available = true
		return tx.Save(&item).Error
	})
	if err != nil {
		return nil, false, err
	}
	return &item, created, nil
}

// UpdatePrice changes the price of an existing item by id.
func (s *Store) UpdatePrice(itemID uint, price float64) (*menuModel.Item, error) {
	var item menuModel.Item
	if err := s.DB.First(&item, itemID).Error; err != nil {
		return nil, err
	}
	item.Price = price
	if err := s.DB.Save(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// Remove hides an item from the menu. Items are never hard-deleted because
// order snapshots reference them.
func (s *Store) Remove(itemID uint) (*menuModel.Item, error) {
	var item menuModel.Item
	if err := s.DB.First(&item, itemID).Error; err != nil {
		return nil, err
	}
	item.Available = false
	if err := s.DB.Save(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}
