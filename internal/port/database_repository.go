package port

import (
	"context"

	"github.com/gana36/Prime-Day-Sim/internal/core/domain"
)

type DatabaseRepository interface {
	// GetInventory returns the ledger row for a product, or nil if none exists.
	GetInventory(ctx context.Context, productID string) (*domain.Inventory, error)

	// DecrementStock applies the guarded conditional decrement:
	//   UPDATE inventory SET count = count - ?, version = version + 1
	//   WHERE product_id = ? AND version = ? AND count >= ?
	// It returns false when zero rows were affected (stale version or
	// insufficient stock at write time).
	DecrementStock(ctx context.Context, productID string, quantity int, expectedVersion int64) (bool, error)

	// CreateOrderWithDecrement runs the same guarded decrement and persists
	// the order row in a single transaction. A false return means the
	// decrement guard failed and nothing was written.
	CreateOrderWithDecrement(ctx context.Context, order domain.Order, expectedVersion int64) (bool, error)

	// GetOrder returns an order by ID, or nil if none exists.
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)

	// SaveOrder upserts an order row keyed on its ID. A terminal status is
	// never overwritten, so a late pending write or a replayed settle leaves
	// the row as it stands.
	SaveOrder(ctx context.Context, order domain.Order) error

	// CreateProduct inserts a product together with its initial ledger row.
	CreateProduct(ctx context.Context, product domain.Product, initialCount int) error

	// ListProducts returns a page of products with their current counts.
	ListProducts(ctx context.Context, offset, limit int) ([]domain.Product, error)
}
