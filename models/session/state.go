package session

// StateKind enumerates the conversational states. Transitions between them
// go only through the router's transition table.
type StateKind string

const (
	StateInitial               StateKind = "initial"
	StateBrowsingMenu          StateKind = "browsing_menu"
	StateSelectingQuantity     StateKind = "selecting_quantity"
	StateAwaitingTypedQuantity StateKind = "awaiting_typed_quantity"
	StateAwaitingAddMore       StateKind = "awaiting_add_more"
	StateAwaitingServiceType   StateKind = "awaiting_service_type"
	StateAwaitingPhoneNumber   StateKind = "awaiting_phone_number"
	StateConfirmingOrder       StateKind = "confirming_order"
	StateWaitingForPayment     StateKind = "waiting_for_payment"
	StatePickupReady           StateKind = "pickup_ready"
)

func (sk StateKind) String() string {
	return string(sk)
}

func (sk StateKind) IsValid() bool {
	switch sk {
	case StateInitial, StateBrowsingMenu, StateSelectingQuantity, StateAwaitingTypedQuantity,
		StateAwaitingAddMore, StateAwaitingServiceType, StateAwaitingPhoneNumber,
		StateConfirmingOrder, StateWaitingForPayment, StatePickupReady:
		return true
	default:
		return false
	}
}

// RequiresOrder reports whether a session in this state must carry a
// current order id.
func (sk StateKind) RequiresOrder() bool {
	return sk != StateInitial
}

// CarriesItem reports whether this state has an item parameter.
func (sk StateKind) CarriesItem() bool {
	return sk == StateSelectingQuantity || sk == StateAwaitingTypedQuantity
}

// GetAllStateKinds returns all valid session states
func GetAllStateKinds() []StateKind {
	return []StateKind{
		StateInitial,
		StateBrowsingMenu,
		StateSelectingQuantity,
		StateAwaitingTypedQuantity,
		StateAwaitingAddMore,
		StateAwaitingServiceType,
		StateAwaitingPhoneNumber,
		StateConfirmingOrder,
		StateWaitingForPayment,
		StatePickupReady,
	}
}
