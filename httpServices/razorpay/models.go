package razorpay

// CustomerDetails is the optional contact block attached to a payment link.
type CustomerDetails struct {
	Name    string `json:"name,omitempty"`
	Contact string `json:"contact,omitempty"`
	Email   string `json:"email,omitempty"`
}

// PaymentLinkRequest is the create-payment-link payload. Amount is in the
// currency's smallest unit (paise for INR).
type PaymentLinkRequest struct {
	Amount         int64             `json:"amount"`
	Currency       string            `json:"currency"`
	ReferenceID    string            `json:"reference_id,omitempty"`
	Description    string            `json:"description,omitempty"`
	Customer       *CustomerDetails  `json:"customer,omitempty"`
	Notes          map[string]string `json:"notes,omitempty"`
	CallbackURL    string            `json:"callback_url,omitempty"`
	CallbackMethod string            `json:"callback_method,omitempty"`
}

// PaymentLinkEntity is the gateway's representation of a payment link, both
// in API responses and inside webhook payloads.
type PaymentLinkEntity struct {
	ID          string            `json:"id"`
	ReferenceID string            `json:"reference_id"`
	ShortURL    string            `json:"short_url"`
	Status      string            `json:"status"`
	Description string            `json:"description"`
	Amount      int64             `json:"amount"`
	AmountPaid  int64             `json:"amount_paid"`
	Notes       map[string]string `json:"notes"`
}

type errorResponse struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}
