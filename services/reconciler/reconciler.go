package reconciler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"canteen-bot/logger"
	orderModel "canteen-bot/models/order"
	sessionModel "canteen-bot/models/session"
	"canteen-bot/services/notify"
	"canteen-bot/services/orders"
	"canteen-bot/services/session"
	"canteen-bot/types/apperror"
	"canteen-bot/types/webhook"
	"canteen-bot/utils"

	"gorm.io/gorm"
)

// Resolver maps a verified payment event to the order it pays for. A resolver
// returns (nil, nil) when it simply cannot identify an order, letting the
// next tier try; a real lookup failure is returned as an error.
type Resolver func(store *orders.Store, entity *webhook.PaymentLinkEntity) (*orderModel.Order, error)

var descriptionOrderRef = regexp.MustCompile(`#(\d+)`)

// ByReferenceNotes reads the internal order id the adapter planted in the
// link's notes when it created the link.
func ByReferenceNotes(store *orders.Store, entity *webhook.PaymentLinkEntity) (*orderModel.Order, error) {
	raw, ok := entity.Notes["internal_order_id"]
	if !ok {
		return nil, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, nil
	}
	ord, err := store.Get(uint(id))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return ord, err
}

// ByDescription recovers the order id from a "#<id>" marker in the link
// description, for links created before notes carried the id.
func ByDescription(store *orders.Store, entity *webhook.PaymentLinkEntity) (*orderModel.Order, error) {
	m := descriptionOrderRef.FindStringSubmatch(entity.Description)
	if m == nil {
		return nil, nil
	}
	id, err := strconv.ParseUint(m[1], 10, 64)
	if err != nil {
		return nil, nil
	}
	ord, err := store.Get(uint(id))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return ord, err
}

// ByLinkID matches the gateway's own payment link id against the reference
// stored on the order.
func ByLinkID(store *orders.Store, entity *webhook.PaymentLinkEntity) (*orderModel.Order, error) {
	if entity.ID == "" {
		return nil, nil
	}
	ord, err := store.GetByLinkRef(entity.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return ord, err
}

// DefaultResolvers is the production resolution chain, most reliable tier
// first.
func DefaultResolvers() []Resolver {
	return []Resolver{ByReferenceNotes, ByDescription, ByLinkID}
}

// Reconciler turns verified gateway webhooks into order state. It is the
// single writer for the PaymentPending -> Paid transition.
type Reconciler struct {
	Orders         *orders.Store
	Sessions       *session.Store
	Notifier       notify.Dispatcher
	Secret         string
	OperatorChatID string
	Resolvers      []Resolver
}

func NewReconciler(ordersStore *orders.Store, sessions *session.Store, notifier notify.Dispatcher, secret, operatorChatID string) *Reconciler {
	return &Reconciler{
		Orders:         ordersStore,
		Sessions:       sessions,
		Notifier:       notifier,
		Secret:         secret,
		OperatorChatID: operatorChatID,
		Resolvers:      DefaultResolvers(),
	}
}

// VerifySignature checks the gateway's HMAC-SHA256 hex signature over the
// raw request body.
func (r *Reconciler) VerifySignature(body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(r.Secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// Process handles one raw webhook delivery. It returns ErrSignatureInvalid
// for a bad signature, ErrUnresolvableEvent when no resolver can place the
// payment, and nil for everything the service has fully absorbed, including
// duplicate deliveries.
func (r *Reconciler) Process(body []byte, signature string) error {
	if !r.VerifySignature(body, signature) {
		return apperror.ErrSignatureInvalid
	}

	var env webhook.Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("malformed webhook body: %w", err)
	}

	entity := &env.Payload.PaymentLink.Entity

	switch env.Event {
	case webhook.EventPaymentLinkPaid:
		// handled below
	case webhook.EventPaymentLinkExpired:
		return r.expire(entity)
	default:
		logger.Info(fmt.Sprintf("Ignoring webhook event %q", env.Event))
		return nil
	}

	ord, err := r.resolve(entity)
	if err != nil {
		return err
	}
	if ord == nil {
		return apperror.ErrUnresolvableEvent
	}

	applied, err := r.Orders.MarkPaid(ord.ID, "webhook", utils.GeneratePickupCode())
	if err != nil {
		return err
	}
	if !applied {
		logger.Info(fmt.Sprintf("Duplicate payment event for order %d; already settled", ord.ID))
		return nil
	}

	paid, err := r.Orders.Get(ord.ID)
	if err != nil {
		return err
	}

	if err := r.Sessions.ForceState(paid.CustomerID, sessionModel.StatePickupReady, &paid.ID); err != nil {
		logger.Error("Failed to move session to pickup_ready after payment", err)
	}

	r.announce(paid)
	return nil
}

// expire closes the order behind a lapsed link and resets the customer's
// conversation. An expiry the service cannot place is acknowledged quietly;
// the link is dead either way.
func (r *Reconciler) expire(entity *webhook.PaymentLinkEntity) error {
	ord, err := r.resolve(entity)
	if err != nil {
		return err
	}
	if ord == nil {
		logger.Info("Ignoring expiry for an unknown payment link")
		return nil
	}

	applied, err := r.Orders.MarkExpired(ord.ID)
	if err != nil {
		return err
	}
	if !applied {
		return nil
	}

	if err := r.Sessions.ForceState(ord.CustomerID, sessionModel.StateInitial, nil); err != nil {
		logger.Error("Failed to reset session after link expiry", err)
	}
	if err := r.Notifier.Send(ord.CustomerID,
		fmt.Sprintf("The payment link for order #%d expired before payment. Tap Menu to order again.", ord.ID)); err != nil {
		logger.Error(fmt.Sprintf("Failed to notify customer about expired order %d", ord.ID), err)
	}
	return nil
}

func (r *Reconciler) resolve(entity *webhook.PaymentLinkEntity) (*orderModel.Order, error) {
	for _, resolve := range r.Resolvers {
		ord, err := resolve(r.Orders, entity)
		if err != nil {
			return nil, err
		}
		if ord != nil {
			return ord, nil
		}
	}
	return nil, nil
}

// announce sends the pickup ticket to the customer and an alert to the
// operator. Both are best-effort; the payment is already committed.
func (r *Reconciler) announce(ord *orderModel.Order) {
	token := 0
	if ord.DailyToken != nil {
		token = *ord.DailyToken
	}
	code := ""
	if ord.PickupCode != nil {
		code = *ord.PickupCode
	}

	ticket := fmt.Sprintf(
		"Payment received for order #%d (%s).\nYour token for today is %d.\nPickup code: %s",
		ord.ID, utils.FormatAmount(ord.TotalAmount), token, code,
	)
	if err := r.Notifier.Send(ord.CustomerID, ticket); err != nil {
		logger.Error(fmt.Sprintf("Failed to send pickup ticket for order %d", ord.ID), err)
	}

	if r.OperatorChatID == "" {
		return
	}
	alert := fmt.Sprintf(
		"Order #%d paid: %s, token %d. %s",
		ord.ID, utils.FormatAmount(ord.TotalAmount), token, summarizeLines(ord),
	)
	if err := r.Notifier.Send(r.OperatorChatID, alert); err != nil {
		logger.Error(fmt.Sprintf("Failed to alert operator about order %d", ord.ID), err)
	}
}

func summarizeLines(ord *orderModel.Order) string {
	lines, err := ord.Lines()
	if err != nil || len(lines) == 0 {
		return ""
	}
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%s x%d", l.Name, l.Quantity)
	}
	return out
}
