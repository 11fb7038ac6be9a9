package session

import (
	"time"
)

// Session is the per-customer conversational record, independent of any
// single order. It is created lazily on first contact and removed only by
// the idle sweep.
type Session struct {
	CustomerID string `gorm:"type:varchar(64);primaryKey" json:"customer_id"`

	// State is a closed enum; the item parameter of the quantity states is
	// carried as a typed column instead of being concatenated into the
	// state string.
	State       StateKind `gorm:"size:40;not null;default:initial" json:"state"`
	StateItemID *uint     `gorm:"" json:"state_item_id,omitempty"`

	CurrentOrderID *uint   `gorm:"index" json:"current_order_id,omitempty"`
	PhoneNumber    *string `gorm:"type:varchar(20)" json:"phone_number,omitempty"`

	LastActive time.Time `gorm:"not null;index" json:"last_active"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName sets the table name for the Session model
func (Session) TableName() string {
	return "sessions"
}

// ItemID returns the item parameter for the quantity states, or 0.
func (s *Session) ItemID() uint {
	if s.StateItemID == nil {
		return 0
	}
	return *s.StateItemID
}
