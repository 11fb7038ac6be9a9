package order

import (
	"time"
)

// StatusEvent records one status change of an order for the operator's
// audit trail. Events are written in the same transaction as the change.
type StatusEvent struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	OrderID uint  `gorm:"not null;index" json:"order_id"`
	Order   Order `gorm:"foreignKey:OrderID" json:"order"`

	Status    Status    `gorm:"size:20;not null" json:"status"`
	EventType string    `gorm:"type:varchar(50);not null;index" json:"event_type"` // created, payment_link_created, paid, delivered, cancelled
	CreatedBy string    `gorm:"type:varchar(64);not null" json:"created_by"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName sets the table name for the StatusEvent model
func (StatusEvent) TableName() string {
	return "order_status_events"
}
