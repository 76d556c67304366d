package domain

// Product is catalog data. Immutable as far as the checkout pipeline is
// concerned; InventoryCount is joined in for listings only.
type Product struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Category       string  `json:"category"`
	Price          float64 `json:"price"`
	Description    string  `json:"description,omitempty"`
	InventoryCount int     `json:"inventory_count"`
}
