package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gana36/Prime-Day-Sim/internal/core/domain"
)

func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		t.Skipf("redis unavailable: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisAdapter_ListingRoundTrip(t *testing.T) {
	adapter := NewRedisAdapter(testRedis(t), 10*time.Second)
	ctx := context.Background()

	page := []domain.Product{
		{ID: "p1", Name: "Widget", Category: "tools", Price: 9.99, InventoryCount: 5},
		{ID: "p2", Name: "Gadget", Category: "tools", Price: 19.99, InventoryCount: 0},
	}
	if err := adapter.SetProductListing(ctx, 40, 20, page); err != nil {
		t.Fatalf("set listing: %v", err)
	}

	got, hit, err := adapter.GetProductListing(ctx, 40, 20)
	if err != nil {
		t.Fatalf("get listing: %v", err)
	}
	if !hit {
		t.Fatal("expected cache hit")
	}
	if len(got) != 2 || got[0].ID != "p1" || got[1].InventoryCount != 0 {
		t.Errorf("round trip mangled the page: %+v", got)
	}
}

func TestRedisAdapter_MissIsNotAnError(t *testing.T) {
	adapter := NewRedisAdapter(testRedis(t), 10*time.Second)

	got, hit, err := adapter.GetProductListing(context.Background(), 99990, 7)
	if err != nil {
		t.Fatalf("get listing: %v", err)
	}
	if hit {
		t.Errorf("expected miss, got %+v", got)
	}
}

func TestRedisAdapter_EntriesExpire(t *testing.T) {
	adapter := NewRedisAdapter(testRedis(t), 100*time.Millisecond)
	ctx := context.Background()

	page := []domain.Product{{ID: "p1", Name: "Widget"}}
	if err := adapter.SetProductListing(ctx, 80, 20, page); err != nil {
		t.Fatalf("set listing: %v", err)
	}

	_, hit, err := adapter.GetProductListing(ctx, 80, 20)
	if err != nil || !hit {
		t.Fatalf("expected immediate hit, hit=%v err=%v", hit, err)
	}

	time.Sleep(200 * time.Millisecond)

	_, hit, err = adapter.GetProductListing(ctx, 80, 20)
	if err != nil {
		t.Fatalf("get listing: %v", err)
	}
	if hit {
		t.Error("entry must expire after the TTL")
	}
}
