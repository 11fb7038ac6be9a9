package cart

import (
	menuModel "canteen-bot/models/menu"
	orderModel "canteen-bot/models/order"
	"canteen-bot/types/apperror"
)

// MaxQuantity is the sanity bound on a single typed or tapped quantity.
const MaxQuantity = 100

// AddLine appends a price-snapshotted line for item to lines and returns the
// new line slice together with the recomputed total. Duplicate items stay
// separate lines, each with its own quantity. The function is pure; it never
// touches the gateway or the notifier.
func AddLine(lines []orderModel.Line, item *menuModel.Item, quantity int) ([]orderModel.Line, float64, error) {
	if item == nil || !item.Available {
		return nil, 0, apperror.ErrItemUnavailable
	}
	if quantity <= 0 || quantity > MaxQuantity {
		return nil, 0, apperror.ErrInvalidQuantity
	}

	updated := make([]orderModel.Line, 0, len(lines)+1)
	updated = append(updated, lines...)
	updated = append(updated, orderModel.Line{
		ItemID:    item.ID,
		Name:      item.Name,
		UnitPrice: item.Price,
		Quantity:  quantity,
	})

	return updated, Total(updated), nil
}

// Total recomputes the order total from its lines. The stored total is never
// trusted from client input; it is always derived here.
func Total(lines []orderModel.Line) float64 {
	var sum float64
	for _, l := range lines {
		sum += l.UnitPrice * float64(l.Quantity)
	}
	return sum
}
