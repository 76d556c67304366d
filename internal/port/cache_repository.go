package port

import (
	"context"

	"github.com/gana36/Prime-Day-Sim/internal/core/domain"
)

// CacheRepository shields the product-listing read path. It has no
// correctness role: entries expire on their own and are never invalidated
// by the write path.
type CacheRepository interface {
	// GetProductListing returns the cached page and true on a hit.
	GetProductListing(ctx context.Context, offset, limit int) ([]domain.Product, bool, error)

	// SetProductListing stores a page under the listing key for the
	// configured TTL.
	SetProductListing(ctx context.Context, offset, limit int, products []domain.Product) error
}
