package payment

import (
	"errors"
	"fmt"

	"canteen-bot/httpServices/razorpay"
	orderModel "canteen-bot/models/order"
	"canteen-bot/services/orders"
	"canteen-bot/types/apperror"
	"canteen-bot/utils"
)

// Gateway is the slice of the payment provider the adapter needs. The real
// implementation is the razorpay client; tests substitute a fake.
type Gateway interface {
	CreatePaymentLink(req *razorpay.PaymentLinkRequest) (*razorpay.PaymentLinkEntity, error)
}

// Adapter sits between checkout and the gateway. Its one job is making link
// creation idempotent per order: however many times confirm is tapped, the
// order ends up with exactly one live payment link.
type Adapter struct {
	Orders      *orders.Store
	Gateway     Gateway
	CallbackURL string
}

func NewAdapter(ordersStore *orders.Store, gateway Gateway, callbackURL string) *Adapter {
	return &Adapter{Orders: ordersStore, Gateway: gateway, CallbackURL: callbackURL}
}

// GetOrCreateLink returns the payment link for an order, creating one at the
// gateway only when the order does not have one yet. A gateway failure leaves
// the order untouched and surfaces as GatewayUnavailable so the caller can
// offer a retry.
func (a *Adapter) GetOrCreateLink(ord *orderModel.Order, phone string) (string, string, error) {
	if ord.Status == orderModel.StatusPaymentPending && ord.HasPaymentLink() {
		return *ord.PaymentLinkRef, *ord.PaymentLinkURL, nil
	}
	if ord.Status != orderModel.StatusPending {
		return "", "", &apperror.StaleOrderState{
			OrderID:  ord.ID,
			Expected: orderModel.StatusPending.String(),
			Actual:   ord.Status.String(),
		}
	}

	req := &razorpay.PaymentLinkRequest{
		Amount:      utils.ToPaise(ord.TotalAmount),
		Currency:    "INR",
		ReferenceID: fmt.Sprintf("order-%d", ord.ID),
		Description: fmt.Sprintf("Canteen order #%d", ord.ID),
		Notes: map[string]string{
			"internal_order_id": fmt.Sprintf("%d", ord.ID),
			"customer_id":       ord.CustomerID,
		},
		CallbackURL:    a.CallbackURL,
		CallbackMethod: "get",
	}
	if phone != "" {
		req.Customer = &razorpay.CustomerDetails{Contact: phone}
	}

	entity, err := a.Gateway.CreatePaymentLink(req)
	if err != nil {
		return "", "", &apperror.GatewayUnavailable{Op: "create payment link", Err: err}
	}

	err = a.Orders.AttachPaymentLink(ord.ID, entity.ID, entity.ShortURL)
	if err == nil {
		return entity.ID, entity.ShortURL, nil
	}

	// A twin request won the attach race; hand out the link it stored so
	// both requests answer with the same URL.
	var stale *apperror.StaleOrderState
	if errors.As(err, &stale) {
		current, readErr := a.Orders.Get(ord.ID)
		if readErr != nil {
			return "", "", readErr
		}
		if current.Status == orderModel.StatusPaymentPending && current.HasPaymentLink() {
			return *current.PaymentLinkRef, *current.PaymentLinkURL, nil
		}
	}
	return "", "", err
}
