// Command stress hammers the reservation path with concurrent buyers
// competing for a small pool and checks that exactly the available units
// were granted.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/gana36/Prime-Day-Sim/internal/adapter/storage"
	"github.com/gana36/Prime-Day-Sim/internal/config"
	"github.com/gana36/Prime-Day-Sim/internal/core/domain"
	"github.com/gana36/Prime-Day-Sim/internal/core/service"
)

const (
	productID     = "stress-test-item"
	initialStock  = 20
	totalRequests = 50
	retryBudget   = 10
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
	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping mysql: %v", err)
	}

	// Reset the fixture row.
	if _, err := db.ExecContext(ctx, `
		INSERT INTO products (id, name, category, price) VALUES (?, 'Stress Test Item', 'stress', 1.0)
		ON DUPLICATE KEY UPDATE name = name`, productID); err != nil {
		log.Fatalf("failed to seed product: %v", err)
	}
	if _, err := db.ExecContext(ctx, `
		INSERT INTO inventory (product_id, `+"`count`"+`, version) VALUES (?, ?, 1)
		ON DUPLICATE KEY UPDATE `+"`count`"+` = ?, version = 1`,
		productID, initialStock, initialStock); err != nil {
		log.Fatalf("failed to seed inventory: %v", err)
	}

	reservations := service.NewReservationService(storage.NewMySQLAdapter(db), retryBudget)

	var applied, rejected, conflicted atomic.Int32
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := reservations.Reserve(ctx, productID, 1)
			if err != nil {
				log.Printf("reserve error: %v", err)
				return
			}
			switch result.Outcome {
			case domain.ReserveApplied:
				applied.Add(1)
			case domain.ReserveInsufficientStock:
				rejected.Add(1)
			case domain.ReserveConflict:
				conflicted.Add(1)
			}
		}()
	}

	wg.Wait()
	elapsed := time.Since(start)

	var finalCount int
	var finalVersion int64
	if err := db.QueryRowContext(ctx, `
		SELECT `+"`count`"+`, version FROM inventory WHERE product_id = ?`, productID,
	).Scan(&finalCount, &finalVersion); err != nil {
		log.Fatalf("failed to read final inventory: %v", err)
	}

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Initial Stock:     %d\n", initialStock)
	fmt.Printf("Total Requests:    %d\n", totalRequests)
	fmt.Printf("Applied:           %d\n", applied.Load())
	fmt.Printf("Insufficient:      %d\n", rejected.Load())
	fmt.Printf("Conflicted:        %d\n", conflicted.Load())
	fmt.Printf("Duration:          %v\n", elapsed)
	fmt.Printf("Final Count:       %d\n", finalCount)
	fmt.Printf("Final Version:     %d\n", finalVersion)
	fmt.Println("==========================================")

	if applied.Load() == initialStock && finalCount == 0 && finalVersion == initialStock+1 {
		fmt.Println("PASS: every unit sold exactly once")
	} else {
		fmt.Printf("FAIL: expected %d applied and count 0 at version %d\n", initialStock, initialStock+1)
	}
}
