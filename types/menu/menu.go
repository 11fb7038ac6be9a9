package menu

// UpsertRequest adds a new menu item or syncs price/section for an existing
// item matched case-insensitively by name.
type UpsertRequest struct {
	Name    string  `json:"name"`
	Price   float64 `json:"price"`
	Section string  `json:"section"`
}

// PriceUpdateRequest changes the price of an existing item by id.
type PriceUpdateRequest struct {
	ItemID uint    `json:"item_id"`
	Price  float64 `json:"price"`
}
