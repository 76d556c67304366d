// Command verify is the offline consistency check: it scans the inventory
// ledger for negative counts, which would mean units were sold twice. Any
// violation is a hard failure.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/go-sql-driver/mysql"

	"github.com/gana36/Prime-Day-Sim/internal/adapter/storage"
	"github.com/gana36/Prime-Day-Sim/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()

	db, err := sql.Open("mysql", cfg.MySQL.DSN())
	if err != nil {
		log.Fatalf("failed to open mysql: %v", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping mysql: %v", err)
	}

	adapter := storage.NewMySQLAdapter(db)

	fmt.Println("Verifying inventory consistency...")

	counts, err := adapter.CountOrdersByStatus(ctx)
	if err != nil {
		log.Fatalf("failed to count orders: %v", err)
	}
	var total int64
	for _, n := range counts {
		total += n
	}
	fmt.Printf("Total orders: %d\n", total)
	for status, n := range counts {
		fmt.Printf("  %-10s %d\n", status, n)
	}

	violations, err := adapter.NegativeInventory(ctx)
	if err != nil {
		log.Fatalf("failed to scan inventory: %v", err)
	}

	if len(violations) > 0 {
		fmt.Printf("FAIL: %d products with negative inventory\n", len(violations))
		for _, inv := range violations {
			fmt.Printf("  - product %s: count %d (version %d)\n", inv.ProductID, inv.Count, inv.Version)
		}
		os.Exit(1)
	}

	fmt.Println("PASS: no negative inventory found")
}
