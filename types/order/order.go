package order

// DeliverRequest marks a paid order as handed over.
type DeliverRequest struct {
	OrderID uint `json:"order_id"`
}

// PickupLine is one item row on the public pickup verification page.
type PickupLine struct {
	Name      string  `json:"name"`
	Quantity  int     `json:"qty"`
	UnitPrice float64 `json:"price"`
}

// PickupSummary is the public view of an order exposed when the pickup code
// matches. It never includes the customer's contact details.
type PickupSummary struct {
	OrderID     uint         `json:"order_id"`
	Status      string       `json:"status"`
	ServiceType string       `json:"service_type,omitempty"`
	DailyToken  int          `json:"daily_token,omitempty"`
	TotalAmount float64      `json:"total_amount"`
	Items       []PickupLine `json:"items"`
}

// Stats aggregates order counts and revenue for the operator report.
type Stats struct {
	TotalOrders  int64            `json:"total_orders"`
	TotalRevenue float64          `json:"total_revenue"`
	TodayOrders  int64            `json:"today_orders"`
	StatusCounts map[string]int64 `json:"status_counts"`
}
