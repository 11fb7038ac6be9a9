package order

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Line is one price-snapshotted cart entry. Menu price changes never alter
// lines already in an order, so the unit price is copied at add-time.
type Line struct {
	ItemID    uint    `json:"item_id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"price"`
	Quantity  int     `json:"qty"`
}

// Order is the aggregate all cart, payment and fulfilment mutations go
// through. Every state-changing write is conditional on the current Status.
type Order struct {
	ID         uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	CustomerID string `gorm:"type:varchar(64);not null;index" json:"customer_id"`

	Items       datatypes.JSON `gorm:"type:jsonb" json:"items"`
	TotalAmount float64        `gorm:"not null;default:0" json:"total_amount"`

	Status      Status       `gorm:"size:20;not null;default:pending;index" json:"status"`
	ServiceType *ServiceType `gorm:"size:20" json:"service_type,omitempty"`

	PaymentLinkRef *string `gorm:"type:varchar(64);index" json:"payment_link_ref,omitempty"`
	PaymentLinkURL *string `gorm:"type:text" json:"payment_link_url,omitempty"`

	// PickupCode and DailyToken are write-once, set at the Pending->Paid
	// transition. Repeated writes are detected and ignored.
	PickupCode *string `gorm:"type:varchar(16)" json:"pickup_code,omitempty"`
	DailyToken *int    `gorm:"" json:"daily_token,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName sets the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// Lines decodes the item snapshot column. A missing column yields an empty
// slice; malformed JSON is surfaced to the caller.
func (o *Order) Lines() ([]Line, error) {
	if len(o.Items) == 0 {
		return []Line{}, nil
	}
	var lines []Line
	if err := json.Unmarshal(o.Items, &lines); err != nil {
		return nil, err
	}
	return lines, nil
}

// SetLines encodes the item snapshot column.
func (o *Order) SetLines(lines []Line) error {
	raw, err := json.Marshal(lines)
	if err != nil {
		return err
	}
	o.Items = datatypes.JSON(raw)
	return nil
}

// HasPaymentLink reports whether a gateway link is already attached.
func (o *Order) HasPaymentLink() bool {
	return o.PaymentLinkRef != nil && *o.PaymentLinkRef != ""
}
