package apperror

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across services. Controllers map these onto HTTP
// status codes; the router maps them onto user-facing prompts.
var (
	// ErrSignatureInvalid means a webhook body failed HMAC verification.
	// The request is rejected outright and no state is touched.
	ErrSignatureInvalid = errors.New("webhook signature verification failed")

	// ErrUnresolvableEvent means no resolver tier could map a webhook event
	// to an internal order. The event is acknowledged and logged.
	ErrUnresolvableEvent = errors.New("webhook event could not be resolved to an order")

	// ErrStaleSession means a conditional session update found the session
	// already moved past the expected state (rapid double-tap).
	ErrStaleSession = errors.New("session state changed concurrently")

	// ErrInvalidQuantity covers non-positive or oversized quantities.
	ErrInvalidQuantity = errors.New("quantity must be a whole number between 1 and 100")

	// ErrItemUnavailable covers cart additions of unknown or hidden menu items.
	ErrItemUnavailable = errors.New("menu item is not available")

	// ErrInvalidPhone covers phone numbers failing format validation.
	ErrInvalidPhone = errors.New("invalid phone number format")
)

// RejectedTransition is returned when an inbound event is illegal for the
// session's current state. Nothing is mutated; the customer is re-prompted.
type RejectedTransition struct {
	State  string
	Event  string
	Reason string
}

func (e *RejectedTransition) Error() string {
	return fmt.Sprintf("event %q rejected in state %q: %s", e.Event, e.State, e.Reason)
}

// StaleOrderState is returned when a conditional order update's status
// precondition no longer holds. Callers recover by re-reading the order.
type StaleOrderState struct {
	OrderID  uint
	Expected string
	Actual   string
}

func (e *StaleOrderState) Error() string {
	return fmt.Sprintf("order %d expected status %q but found %q", e.OrderID, e.Expected, e.Actual)
}

// GatewayUnavailable wraps a failed payment-gateway call. The session is
// reset to a retryable state; retrying is the caller's decision.
type GatewayUnavailable struct {
	Op  string
	Err error
}

func (e *GatewayUnavailable) Error() string {
	return fmt.Sprintf("payment gateway unavailable during %s: %v", e.Op, e.Err)
}

func (e *GatewayUnavailable) Unwrap() error {
	return e.Err
}
