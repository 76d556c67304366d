package storage

import (
	"context"
	"database/sql"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/gana36/Prime-Day-Sim/internal/core/domain"
)

// Integration tests against a real MySQL with schema.sql applied. They skip
// when the database is unreachable.
func testDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		dsn = "root:root@tcp(localhost:3306)/primeday?parseTime=true"
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Skipf("mysql unavailable: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("mysql unavailable: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func seedProduct(t *testing.T, adapter *MySQLAdapter, count int) string {
	t.Helper()
	productID := uuid.New().String()
	err := adapter.CreateProduct(context.Background(), domain.Product{
		ID:       productID,
		Name:     "Test Item " + productID[:8],
		Category: "test",
		Price:    9.99,
	}, count)
	if err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return productID
}

func TestMySQLAdapter_GetInventory(t *testing.T) {
	adapter := NewMySQLAdapter(testDB(t))
	productID := seedProduct(t, adapter, 7)

	inv, err := adapter.GetInventory(context.Background(), productID)
	if err != nil {
		t.Fatalf("get inventory: %v", err)
	}
	if inv == nil {
		t.Fatal("expected inventory row")
	}
	if inv.Count != 7 || inv.Version != 1 {
		t.Errorf("expected count 7 version 1, got %d/%d", inv.Count, inv.Version)
	}

	missing, err := adapter.GetInventory(context.Background(), uuid.New().String())
	if err != nil {
		t.Fatalf("get missing inventory: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for unknown product, got %+v", missing)
	}
}

func TestMySQLAdapter_DecrementStock_Guard(t *testing.T) {
	adapter := NewMySQLAdapter(testDB(t))
	productID := seedProduct(t, adapter, 5)
	ctx := context.Background()

	applied, err := adapter.DecrementStock(ctx, productID, 2, 1)
	if err != nil {
		t.Fatalf("decrement: %v", err)
	}
	if !applied {
		t.Fatal("expected decrement to apply at version 1")
	}

	// Stale version: the guard must reject without touching the row.
	applied, err = adapter.DecrementStock(ctx, productID, 1, 1)
	if err != nil {
		t.Fatalf("decrement: %v", err)
	}
	if applied {
		t.Error("stale version must not apply")
	}

	// Quantity above remaining count: rejected even at the right version.
	applied, err = adapter.DecrementStock(ctx, productID, 4, 2)
	if err != nil {
		t.Fatalf("decrement: %v", err)
	}
	if applied {
		t.Error("oversized decrement must not apply")
	}

	inv, err := adapter.GetInventory(ctx, productID)
	if err != nil {
		t.Fatalf("get inventory: %v", err)
	}
	if inv.Count != 3 || inv.Version != 2 {
		t.Errorf("expected count 3 version 2, got %d/%d", inv.Count, inv.Version)
	}
}

func TestMySQLAdapter_CreateOrderWithDecrement(t *testing.T) {
	adapter := NewMySQLAdapter(testDB(t))
	productID := seedProduct(t, adapter, 2)
	ctx := context.Background()

	order := domain.Order{
		ID:        uuid.New().String(),
		UserID:    "user-1",
		ProductID: productID,
		Quantity:  1,
		Status:    domain.OrderStatusCompleted,
		CreatedAt: time.Now().UTC(),
	}
	applied, err := adapter.CreateOrderWithDecrement(ctx, order, 1)
	if err != nil {
		t.Fatalf("create order with decrement: %v", err)
	}
	if !applied {
		t.Fatal("expected commit to apply")
	}

	saved, err := adapter.GetOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if saved == nil || saved.Status != domain.OrderStatusCompleted {
		t.Errorf("expected completed order, got %+v", saved)
	}

	inv, err := adapter.GetInventory(ctx, productID)
	if err != nil {
		t.Fatalf("get inventory: %v", err)
	}
	if inv.Count != 1 || inv.Version != 2 {
		t.Errorf("expected count 1 version 2, got %d/%d", inv.Count, inv.Version)
	}

	// Conflicting commit at the stale version: no order row, no decrement.
	stale := domain.Order{
		ID:        uuid.New().String(),
		UserID:    "user-2",
		ProductID: productID,
		Quantity:  1,
		Status:    domain.OrderStatusCompleted,
		CreatedAt: time.Now().UTC(),
	}
	applied, err = adapter.CreateOrderWithDecrement(ctx, stale, 1)
	if err != nil {
		t.Fatalf("create order with decrement: %v", err)
	}
	if applied {
		t.Error("stale version must not apply")
	}
	ghost, err := adapter.GetOrder(ctx, stale.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if ghost != nil {
		t.Error("rejected commit must not leave an order row")
	}
}

func TestMySQLAdapter_SaveOrderUpsert(t *testing.T) {
	adapter := NewMySQLAdapter(testDB(t))
	productID := seedProduct(t, adapter, 1)
	ctx := context.Background()

	order := domain.Order{
		ID:        uuid.New().String(),
		UserID:    "user-1",
		ProductID: productID,
		Quantity:  1,
		Status:    domain.OrderStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := adapter.SaveOrder(ctx, order); err != nil {
		t.Fatalf("save pending: %v", err)
	}

	order.Status = domain.OrderStatusFailed
	if err := adapter.SaveOrder(ctx, order); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	// Repeat of the same terminal write must be a no-op, not an error.
	if err := adapter.SaveOrder(ctx, order); err != nil {
		t.Fatalf("repeat save: %v", err)
	}

	saved, err := adapter.GetOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if saved.Status != domain.OrderStatusFailed {
		t.Errorf("expected failed after upsert, got %s", saved.Status)
	}

	// A late pending write must not reopen the settled row.
	order.Status = domain.OrderStatusPending
	if err := adapter.SaveOrder(ctx, order); err != nil {
		t.Fatalf("late pending save: %v", err)
	}
	saved, err = adapter.GetOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if saved.Status != domain.OrderStatusFailed {
		t.Errorf("terminal status downgraded to %s", saved.Status)
	}
}

func TestMySQLAdapter_ConcurrentDecrement(t *testing.T) {
	db := testDB(t)
	db.SetMaxOpenConns(20)
	adapter := NewMySQLAdapter(db)
	productID := seedProduct(t, adapter, 20)
	ctx := context.Background()

	var applied atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for attempt := 0; attempt < 30; attempt++ {
				inv, err := adapter.GetInventory(ctx, productID)
				if err != nil {
					t.Errorf("get inventory: %v", err)
					return
				}
				if inv.Count < 1 {
					return
				}
				ok, err := adapter.DecrementStock(ctx, productID, 1, inv.Version)
				if err != nil {
					t.Errorf("decrement: %v", err)
					return
				}
				if ok {
					applied.Add(1)
					return
				}
			}
		}()
	}
	wg.Wait()

	if applied.Load() != 20 {
		t.Errorf("expected exactly 20 applied, got %d", applied.Load())
	}

	inv, err := adapter.GetInventory(ctx, productID)
	if err != nil {
		t.Fatalf("get inventory: %v", err)
	}
	if inv.Count != 0 || inv.Version != 21 {
		t.Errorf("expected {count:0, version:21}, got {count:%d, version:%d}", inv.Count, inv.Version)
	}

	violations, err := adapter.NegativeInventory(ctx)
	if err != nil {
		t.Fatalf("negative inventory: %v", err)
	}
	for _, v := range violations {
		if v.ProductID == productID {
			t.Errorf("product oversold: count %d", v.Count)
		}
	}
}

func TestMySQLAdapter_ListProducts(t *testing.T) {
	adapter := NewMySQLAdapter(testDB(t))
	productID := seedProduct(t, adapter, 3)

	products, err := adapter.ListProducts(context.Background(), 0, 1000)
	if err != nil {
		t.Fatalf("list products: %v", err)
	}
	for _, p := range products {
		if p.ID == productID {
			if p.InventoryCount != 3 {
				t.Errorf("expected inventory count 3 joined in, got %d", p.InventoryCount)
			}
			return
		}
	}
	t.Error("seeded product missing from listing")
}
