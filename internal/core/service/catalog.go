package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gana36/Prime-Day-Sim/internal/core/domain"
	"github.com/gana36/Prime-Day-Sim/internal/port"
)

var ErrInvalidProduct = errors.New("invalid product")

// CatalogService serves product reads through the short-TTL cache and owns
// product creation. The cache only shields the read path; a miss or a cache
// failure always falls through to the database.
type CatalogService struct {
	db     port.DatabaseRepository
	cache  port.CacheRepository
	logger *zap.Logger
}

func NewCatalogService(db port.DatabaseRepository, cache port.CacheRepository, logger *zap.Logger) *CatalogService {
	return &CatalogService{db: db, cache: cache, logger: logger}
}

func (s *CatalogService) ListProducts(ctx context.Context, offset, limit int) ([]domain.Product, error) {
	products, hit, err := s.cache.GetProductListing(ctx, offset, limit)
	if err != nil {
		s.logger.Warn("listing cache read failed", zap.Error(err))
	} else if hit {
		return products, nil
	}

	products, err = s.db.ListProducts(ctx, offset, limit)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetProductListing(ctx, offset, limit, products); err != nil {
		s.logger.Warn("listing cache write failed", zap.Error(err))
	}
	return products, nil
}

// CreateProduct inserts the product and its ledger row. The listing cache is
// deliberately not invalidated: entries age out within the TTL.
func (s *CatalogService) CreateProduct(ctx context.Context, product domain.Product, initialCount int) (domain.Product, error) {
	if product.Name == "" || initialCount < 0 {
		return domain.Product{}, ErrInvalidProduct
	}
	if product.ID == "" {
		product.ID = uuid.New().String()
	}

	if err := s.db.CreateProduct(ctx, product, initialCount); err != nil {
		return domain.Product{}, err
	}
	product.InventoryCount = initialCount

	s.logger.Info("product created",
		zap.String("product_id", product.ID),
		zap.Int("initial_inventory", initialCount))
	return product, nil
}
