package webhook

// Gateway events the reconciler acts on; everything else is acknowledged
// and ignored.
const (
	EventPaymentLinkPaid    = "payment_link.paid"
	EventPaymentLinkExpired = "payment_link.expired"
)

// Envelope is the gateway's webhook body. The nested entity shape varies by
// event type, which is why order resolution is tiered.
type Envelope struct {
	Event   string  `json:"event"`
	Payload Payload `json:"payload"`
}

type Payload struct {
	PaymentLink PaymentLinkWrapper `json:"payment_link"`
}

type PaymentLinkWrapper struct {
	Entity PaymentLinkEntity `json:"entity"`
}

// PaymentLinkEntity mirrors the gateway's payment-link object. Notes carries
// the structured reference written at link-creation time; Description is the
// human-readable fallback.
type PaymentLinkEntity struct {
	ID          string            `json:"id"`
	ReferenceID string            `json:"reference_id"`
	Status      string            `json:"status"`
	Description string            `json:"description"`
	AmountPaid  int64             `json:"amount_paid"`
	Notes       map[string]string `json:"notes"`
}
