package router

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"canteen-bot/logger"
	menuModel "canteen-bot/models/menu"
	orderModel "canteen-bot/models/order"
	sessionModel "canteen-bot/models/session"
	"canteen-bot/services/cart"
	menuStore "canteen-bot/services/menu"
	"canteen-bot/services/orders"
	"canteen-bot/services/payment"
	"canteen-bot/services/session"
	"canteen-bot/types/apperror"
	"canteen-bot/types/chat"
	"canteen-bot/utils"
)

// Router drives the ordering conversation. Every inbound event is matched
// against a per-state transition table; anything outside the table is
// rejected without mutating session or order.
type Router struct {
	Sessions *session.Store
	Orders   *orders.Store
	Menu     *menuStore.Store
	Payment  *payment.Adapter
	AdminIDs map[string]bool
}

func NewRouter(sessions *session.Store, ordersStore *orders.Store, menu *menuStore.Store, pay *payment.Adapter, adminIDs map[string]bool) *Router {
	return &Router{
		Sessions: sessions,
		Orders:   ordersStore,
		Menu:     menu,
		Payment:  pay,
		AdminIDs: adminIDs,
	}
}

// handlerFunc handles one (state, event-key) cell. arg carries the callback
// payload after the colon, e.g. the "7" of "item:7".
type handlerFunc func(r *Router, sess *sessionModel.Session, ev chat.Event, arg string) (*chat.Reply, error)

// transitions is the complete conversational state machine. The "text" key
// matches free-typed input; all other keys match button callbacks.
var transitions = map[sessionModel.StateKind]map[string]handlerFunc{
	sessionModel.StateInitial: {
		"start": (*Router).showMenu,
		"menu":  (*Router).showMenu,
	},
	sessionModel.StateBrowsingMenu: {
		"item":   (*Router).selectItem,
		"start":  (*Router).showMenu,
		"menu":   (*Router).showMenu,
		"cancel": (*Router).cancelFlow,
	},
	sessionModel.StateSelectingQuantity: {
		"qty":       (*Router).chooseQuantity,
		"qty_other": (*Router).askTypedQuantity,
		"cancel":    (*Router).cancelFlow,
	},
	sessionModel.StateAwaitingTypedQuantity: {
		"text":   (*Router).typedQuantity,
		"cancel": (*Router).cancelFlow,
	},
	sessionModel.StateAwaitingAddMore: {
		"add_more": (*Router).addMore,
		"checkout": (*Router).checkout,
		"cancel":   (*Router).cancelFlow,
	},
	sessionModel.StateAwaitingServiceType: {
		"service": (*Router).chooseServiceType,
		"cancel":  (*Router).cancelFlow,
	},
	sessionModel.StateAwaitingPhoneNumber: {
		"text":   (*Router).phoneNumber,
		"cancel": (*Router).cancelFlow,
	},
	sessionModel.StateConfirmingOrder: {
		"confirm": (*Router).confirmOrder,
		"cancel":  (*Router).cancelFlow,
	},
	sessionModel.StateWaitingForPayment: {
		"cancel": (*Router).cancelFlow,
	},
	sessionModel.StatePickupReady: {
		"start": (*Router).showMenu,
		"menu":  (*Router).showMenu,
	},
}

// Handle routes one inbound event through the state machine. A nil error
// with a reply is the normal outcome; RejectedTransition is returned
// alongside the re-prompt so callers can log the illegal event.
func (r *Router) Handle(ev chat.Event) (*chat.Reply, error) {
	if ev.Kind == chat.KindAdminCommand {
		return r.handleAdmin(ev)
	}

	sess, err := r.Sessions.GetOrCreate(ev.CustomerID)
	if err != nil {
		return nil, err
	}

	key, arg := eventKey(ev)
	handlers, ok := transitions[sess.State]
	if ok {
		if h, found := handlers[key]; found {
			reply, err := h(r, sess, ev, arg)
			if errors.Is(err, apperror.ErrStaleSession) {
				// Double-tap: the first request already advanced the
				// session, so this one is a silent no-op.
				return busyReply(sess), nil
			}
			return reply, err
		}
	}

	reply := replyFor(sess.State,
		"Sorry, I wasn't expecting that here. Tap Menu to browse or Cancel to start over.")
	return reply, &apperror.RejectedTransition{
		State:  sess.State.String(),
		Event:  key,
		Reason: "event not legal in current state",
	}
}

// eventKey classifies an event into a transition-table key plus its argument.
func eventKey(ev chat.Event) (string, string) {
	if ev.Kind == chat.KindText {
		return "text", strings.TrimSpace(ev.Text)
	}
	verb, arg, _ := strings.Cut(ev.Callback, ":")
	return verb, arg
}

func replyFor(state sessionModel.StateKind, msgs ...string) *chat.Reply {
	return &chat.Reply{State: state.String(), Messages: msgs}
}

func busyReply(sess *sessionModel.Session) *chat.Reply {
	return replyFor(sess.State, "One moment, still working on your last tap.")
}

// showMenu opens (or re-enters) browsing: it reuses the customer's open
// order if one exists and lists the available catalog.
func (r *Router) showMenu(sess *sessionModel.Session, _ chat.Event, _ string) (*chat.Reply, error) {
	items, err := r.Menu.Available()
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return replyFor(sess.State, "The menu is empty right now. Please check back later."), nil
	}

	ord, err := r.Orders.ReuseOrCreatePending(sess.CustomerID)
	if err != nil {
		return nil, err
	}
	if err := r.Sessions.Transition(sess.CustomerID, sess.State, sessionModel.StateBrowsingMenu, nil, &ord.ID); err != nil {
		return nil, err
	}
	return replyFor(sessionModel.StateBrowsingMenu, renderMenu(items)), nil
}

// selectItem moves into quantity selection for the tapped item.
func (r *Router) selectItem(sess *sessionModel.Session, _ chat.Event, arg string) (*chat.Reply, error) {
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		return replyFor(sess.State, "I couldn't read that item. Please pick one from the menu."), nil
	}
	item, err := r.Menu.Get(uint(id))
	if err != nil {
		return nil, err
	}
	if item == nil {
		return replyFor(sess.State, "That item just went off the menu. Please pick something else."), nil
	}

	itemID := item.ID
	if err := r.Sessions.Transition(sess.CustomerID, sess.State, sessionModel.StateSelectingQuantity, &itemID, sess.CurrentOrderID); err != nil {
		return nil, err
	}
	return replyFor(sessionModel.StateSelectingQuantity,
		fmt.Sprintf("How many %s? Tap a number or choose Other to type one.", item.Name)), nil
}

// chooseQuantity handles the tapped quantity buttons.
func (r *Router) chooseQuantity(sess *sessionModel.Session, _ chat.Event, arg string) (*chat.Reply, error) {
	qty, err := strconv.Atoi(arg)
	if err != nil {
		return replyFor(sess.State, "That quantity didn't make sense. Please tap one of the buttons."), nil
	}
	return r.addToCart(sess, qty)
}

// askTypedQuantity switches to free-typed quantity entry for the same item.
func (r *Router) askTypedQuantity(sess *sessionModel.Session, _ chat.Event, _ string) (*chat.Reply, error) {
	if err := r.Sessions.Transition(sess.CustomerID, sess.State, sessionModel.StateAwaitingTypedQuantity, sess.StateItemID, sess.CurrentOrderID); err != nil {
		return nil, err
	}
	return replyFor(sessionModel.StateAwaitingTypedQuantity,
		fmt.Sprintf("Type the quantity you want (1-%d).", cart.MaxQuantity)), nil
}

// typedQuantity validates free-typed input; an invalid value re-prompts
// without leaving the state.
func (r *Router) typedQuantity(sess *sessionModel.Session, _ chat.Event, arg string) (*chat.Reply, error) {
	qty, err := strconv.Atoi(arg)
	if err != nil || qty <= 0 || qty > cart.MaxQuantity {
		return replyFor(sess.State,
			fmt.Sprintf("Please send a whole number between 1 and %d.", cart.MaxQuantity)), nil
	}
	return r.addToCart(sess, qty)
}

// addToCart snapshots the selected item into the order and moves on to the
// add-more/checkout fork.
func (r *Router) addToCart(sess *sessionModel.Session, qty int) (*chat.Reply, error) {
	if sess.CurrentOrderID == nil {
		return r.resetSession(sess, "Your order expired. Tap Menu to start a new one.")
	}

	item, err := r.Menu.Get(sess.ItemID())
	if err != nil {
		return nil, err
	}
	if item == nil {
		if err := r.Sessions.Transition(sess.CustomerID, sess.State, sessionModel.StateBrowsingMenu, nil, sess.CurrentOrderID); err != nil {
			return nil, err
		}
		return replyFor(sessionModel.StateBrowsingMenu,
			"That item just went off the menu. Please pick something else."), nil
	}

	ord, err := r.Orders.Get(*sess.CurrentOrderID)
	if err != nil {
		return nil, err
	}
	lines, err := ord.Lines()
	if err != nil {
		return nil, err
	}

	lines, total, err := cart.AddLine(lines, item, qty)
	if errors.Is(err, apperror.ErrInvalidQuantity) {
		return replyFor(sess.State,
			fmt.Sprintf("Please choose a quantity between 1 and %d.", cart.MaxQuantity)), nil
	}
	if err != nil {
		return nil, err
	}

	if err := r.Orders.UpdateCart(ord.ID, lines, total); err != nil {
		var stale *apperror.StaleOrderState
		if errors.As(err, &stale) {
			return r.resetSession(sess, "That order is already closed. Tap Menu to start a new one.")
		}
		return nil, err
	}

	if err := r.Sessions.Transition(sess.CustomerID, sess.State, sessionModel.StateAwaitingAddMore, nil, sess.CurrentOrderID); err != nil {
		return nil, err
	}
	return replyFor(sessionModel.StateAwaitingAddMore,
		fmt.Sprintf("Added %d x %s. Cart total: %s.\nAdd more items or checkout?",
			qty, item.Name, utils.FormatAmount(total))), nil
}

// addMore loops back into browsing on the same order.
func (r *Router) addMore(sess *sessionModel.Session, _ chat.Event, _ string) (*chat.Reply, error) {
	items, err := r.Menu.Available()
	if err != nil {
		return nil, err
	}
	if err := r.Sessions.Transition(sess.CustomerID, sess.State, sessionModel.StateBrowsingMenu, nil, sess.CurrentOrderID); err != nil {
		return nil, err
	}
	return replyFor(sessionModel.StateBrowsingMenu, renderMenu(items)), nil
}

// checkout starts the service-type / phone / confirm run-up to payment.
func (r *Router) checkout(sess *sessionModel.Session, _ chat.Event, _ string) (*chat.Reply, error) {
	if err := r.Sessions.Transition(sess.CustomerID, sess.State, sessionModel.StateAwaitingServiceType, nil, sess.CurrentOrderID); err != nil {
		return nil, err
	}
	return replyFor(sessionModel.StateAwaitingServiceType, "Dine in or parcel?"), nil
}

// chooseServiceType records dine-in/parcel; customers with a cached phone
// number skip straight to confirmation.
func (r *Router) chooseServiceType(sess *sessionModel.Session, _ chat.Event, arg string) (*chat.Reply, error) {
	st := orderModel.ServiceType(arg)
	if !st.IsValid() {
		return replyFor(sess.State, "Please choose dine in or parcel."), nil
	}
	if sess.CurrentOrderID == nil {
		return r.resetSession(sess, "Your order expired. Tap Menu to start a new one.")
	}

	if err := r.Orders.SetServiceType(*sess.CurrentOrderID, st); err != nil {
		var stale *apperror.StaleOrderState
		if errors.As(err, &stale) {
			return r.resetSession(sess, "That order is already closed. Tap Menu to start a new one.")
		}
		return nil, err
	}

	if sess.PhoneNumber != nil && *sess.PhoneNumber != "" {
		return r.toConfirmation(sess, sess.State)
	}

	if err := r.Sessions.Transition(sess.CustomerID, sess.State, sessionModel.StateAwaitingPhoneNumber, nil, sess.CurrentOrderID); err != nil {
		return nil, err
	}
	return replyFor(sessionModel.StateAwaitingPhoneNumber,
		"Please send the phone number we should attach to this order."), nil
}

// phoneNumber validates and caches the typed contact number.
func (r *Router) phoneNumber(sess *sessionModel.Session, _ chat.Event, arg string) (*chat.Reply, error) {
	if !utils.ValidPhone(arg) {
		return replyFor(sess.State,
			"That doesn't look like a phone number. Please send digits only, at least 7 of them."), nil
	}
	if err := r.Sessions.SetPhone(sess.CustomerID, arg); err != nil {
		return nil, err
	}
	phone := arg
	sess.PhoneNumber = &phone
	return r.toConfirmation(sess, sess.State)
}

// toConfirmation shows the final order summary with confirm/cancel.
func (r *Router) toConfirmation(sess *sessionModel.Session, from sessionModel.StateKind) (*chat.Reply, error) {
	ord, err := r.Orders.Get(*sess.CurrentOrderID)
	if err != nil {
		return nil, err
	}
	if err := r.Sessions.Transition(sess.CustomerID, from, sessionModel.StateConfirmingOrder, nil, sess.CurrentOrderID); err != nil {
		return nil, err
	}
	summary, err := orderSummary(ord, sess)
	if err != nil {
		return nil, err
	}
	return replyFor(sessionModel.StateConfirmingOrder,
		summary, "Confirm the order to get your payment link, or cancel."), nil
}

// confirmOrder asks the payment adapter for the (single) link and parks the
// session on waiting_for_payment. A gateway outage keeps the session here so
// confirm can simply be tapped again.
func (r *Router) confirmOrder(sess *sessionModel.Session, _ chat.Event, _ string) (*chat.Reply, error) {
	if sess.CurrentOrderID == nil {
		return r.resetSession(sess, "Your order expired. Tap Menu to start a new one.")
	}
	ord, err := r.Orders.Get(*sess.CurrentOrderID)
	if err != nil {
		return nil, err
	}

	phone := ""
	if sess.PhoneNumber != nil {
		phone = *sess.PhoneNumber
	}

	_, url, err := r.Payment.GetOrCreateLink(ord, phone)
	if err != nil {
		var gw *apperror.GatewayUnavailable
		if errors.As(err, &gw) {
			logger.Error(fmt.Sprintf("Payment link creation failed for order %d", ord.ID), err)
			return replyFor(sess.State,
				"The payment service is not responding. Your order is safe; please tap Confirm again in a moment."), nil
		}
		var stale *apperror.StaleOrderState
		if errors.As(err, &stale) {
			return r.resetSession(sess, "That order is already closed. Tap Menu to start a new one.")
		}
		return nil, err
	}

	if err := r.Sessions.Transition(sess.CustomerID, sess.State, sessionModel.StateWaitingForPayment, nil, sess.CurrentOrderID); err != nil {
		return nil, err
	}
	return replyFor(sessionModel.StateWaitingForPayment,
		fmt.Sprintf("Pay here to place your order: %s\nI'll send your token as soon as the payment lands.", url)), nil
}

// cancelFlow abandons the current order (when still cancellable) and resets
// the conversation.
func (r *Router) cancelFlow(sess *sessionModel.Session, _ chat.Event, _ string) (*chat.Reply, error) {
	if sess.CurrentOrderID != nil {
		err := r.Orders.Cancel(*sess.CurrentOrderID, sess.CustomerID)
		var stale *apperror.StaleOrderState
		if errors.As(err, &stale) {
			if stale.Actual == orderModel.StatusPaid.String() {
				return replyFor(sess.State,
					"This order is already paid, so it can't be cancelled. Please collect it at the counter."), nil
			}
			// Already closed some other way; nothing to undo.
		} else if err != nil {
			return nil, err
		}
	}
	return r.resetSession(sess, "Order cancelled. Tap Menu whenever you're hungry again.")
}

func (r *Router) resetSession(sess *sessionModel.Session, msg string) (*chat.Reply, error) {
	if err := r.Sessions.ForceState(sess.CustomerID, sessionModel.StateInitial, nil); err != nil {
		return nil, err
	}
	return replyFor(sessionModel.StateInitial, msg), nil
}

// renderMenu lists available items grouped by section, in store order.
func renderMenu(items []menuModel.Item) string {
	var b strings.Builder
	b.WriteString("Today's menu:\n")
	currentSection := ""
	for _, it := range items {
		if it.Section != currentSection {
			currentSection = it.Section
			b.WriteString(fmt.Sprintf("\n%s\n", strings.ToUpper(currentSection)))
		}
		b.WriteString(fmt.Sprintf("  [%d] %s - %s\n", it.ID, it.Name, utils.FormatAmount(it.Price)))
	}
	b.WriteString("\nTap an item to add it.")
	return b.String()
}

func orderSummary(ord *orderModel.Order, sess *sessionModel.Session) (string, error) {
	lines, err := ord.Lines()
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Order #%d\n", ord.ID))
	for _, l := range lines {
		b.WriteString(fmt.Sprintf("  %s x%d - %s\n", l.Name, l.Quantity, utils.FormatAmount(l.UnitPrice*float64(l.Quantity))))
	}
	b.WriteString(fmt.Sprintf("Total: %s\n", utils.FormatAmount(ord.TotalAmount)))
	if ord.ServiceType != nil {
		b.WriteString(fmt.Sprintf("Service: %s\n", ord.ServiceType.String()))
	}
	if sess.PhoneNumber != nil {
		b.WriteString(fmt.Sprintf("Phone: %s", *sess.PhoneNumber))
	}
	return b.String(), nil
}
