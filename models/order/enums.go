package order

// Status enumerates the order lifecycle.
type Status string

const (
	StatusPending        Status = "pending"
	StatusPaymentPending Status = "payment_pending"
	StatusPaid           Status = "paid"
	StatusDelivered      Status = "delivered"
	StatusCancelled      Status = "cancelled"
	StatusExpired        Status = "expired"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusPaymentPending, StatusPaid, StatusDelivered, StatusCancelled, StatusExpired:
		return true
	default:
		return false
	}
}

// IsFinal reports whether the order can no longer be paid. Paid itself is
// final for payment purposes; only the operator's Paid->Delivered move
// remains.
func (s Status) IsFinal() bool {
	return s == StatusPaid || s == StatusDelivered || s == StatusCancelled || s == StatusExpired
}

// IsCancellable reports whether a customer cancel is still legal. After
// payment, cancellation needs a refund workflow outside this service.
func (s Status) IsCancellable() bool {
	return s == StatusPending || s == StatusPaymentPending
}

// GetAllStatuses returns all valid order statuses
func GetAllStatuses() []Status {
	return []Status{
		StatusPending,
		StatusPaymentPending,
		StatusPaid,
		StatusDelivered,
		StatusCancelled,
		StatusExpired,
	}
}

// ServiceType distinguishes dine-in from parcel orders, set once at checkout.
type ServiceType string

const (
	ServiceDineIn ServiceType = "dine_in"
	ServiceParcel ServiceType = "parcel"
)

func (st ServiceType) String() string {
	return string(st)
}

func (st ServiceType) IsValid() bool {
	return st == ServiceDineIn || st == ServiceParcel
}
