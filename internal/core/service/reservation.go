package service

import (
	"context"

	"github.com/gana36/Prime-Day-Sim/internal/core/domain"
	"github.com/gana36/Prime-Day-Sim/internal/port"
)

// DefaultRetryBudget bounds how many times a reservation re-reads the ledger
// after losing an optimistic-lock race before giving up with Conflict.
const DefaultRetryBudget = 3

// ReservationService is the single decrement path for the inventory ledger.
// Both the synchronous callers and the fulfillment worker go through it, so
// there is exactly one place that knows the read-check-guarded-write loop.
type ReservationService struct {
	db          port.DatabaseRepository
	retryBudget int
}

func NewReservationService(db port.DatabaseRepository, retryBudget int) *ReservationService {
	if retryBudget <= 0 {
		retryBudget = DefaultRetryBudget
	}
	return &ReservationService{db: db, retryBudget: retryBudget}
}

// Reserve decrements the ledger by quantity. The returned error is reserved
// for infrastructure failures; every expected result, Conflict included,
// arrives as a ReserveResult outcome.
func (s *ReservationService) Reserve(ctx context.Context, productID string, quantity int) (domain.ReserveResult, error) {
	return s.reserve(ctx, productID, quantity, func(expectedVersion int64) (bool, error) {
		return s.db.DecrementStock(ctx, productID, quantity, expectedVersion)
	})
}

// ReserveForOrder runs the same loop but commits the completed order row in
// the same transaction as the decrement, so no decrement can land without
// its order record.
func (s *ReservationService) ReserveForOrder(ctx context.Context, order domain.Order) (domain.ReserveResult, error) {
	order.Status = domain.OrderStatusCompleted
	return s.reserve(ctx, order.ProductID, order.Quantity, func(expectedVersion int64) (bool, error) {
		return s.db.CreateOrderWithDecrement(ctx, order, expectedVersion)
	})
}

func (s *ReservationService) reserve(ctx context.Context, productID string, quantity int, commit func(expectedVersion int64) (bool, error)) (domain.ReserveResult, error) {
	for attempt := 0; attempt < s.retryBudget; attempt++ {
		inv, err := s.db.GetInventory(ctx, productID)
		if err != nil {
			return domain.ReserveResult{}, err
		}
		if inv == nil {
			return domain.ReserveResult{Outcome: domain.ReserveNotFound}, nil
		}
		if inv.Count < quantity {
			return domain.ReserveResult{Outcome: domain.ReserveInsufficientStock}, nil
		}

		applied, err := commit(inv.Version)
		if err != nil {
			return domain.ReserveResult{}, err
		}
		if applied {
			return domain.ReserveResult{
				Outcome:    domain.ReserveApplied,
				NewCount:   inv.Count - quantity,
				NewVersion: inv.Version + 1,
			}, nil
		}
		// Guard failed: someone else committed first. Re-read and retry.
	}
	return domain.ReserveResult{Outcome: domain.ReserveConflict}, nil
}
