package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gana36/Prime-Day-Sim/internal/core/domain"
)

type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

func (m *MySQLAdapter) GetInventory(ctx context.Context, productID string) (*domain.Inventory, error) {
	var inv domain.Inventory
	err := m.db.QueryRowContext(ctx, `
		SELECT product_id, `+"`count`"+`, version, updated_at
		FROM inventory WHERE product_id = ?`, productID,
	).Scan(&inv.ProductID, &inv.Count, &inv.Version, &inv.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query inventory: %w", err)
	}

	return &inv, nil
}

// DecrementStock is the single guarded statement the whole system leans on.
// The WHERE clause is the optimistic lock: zero rows affected means either
// a competing writer committed first or the count fell short at write time.
func (m *MySQLAdapter) DecrementStock(ctx context.Context, productID string, quantity int, expectedVersion int64) (bool, error) {
	result, err := m.db.ExecContext(ctx, `
		UPDATE inventory
		SET `+"`count`"+` = `+"`count`"+` - ?, version = version + 1, updated_at = NOW()
		WHERE product_id = ? AND version = ? AND `+"`count`"+` >= ?`,
		quantity, productID, expectedVersion, quantity,
	)
	if err != nil {
		return false, fmt.Errorf("update inventory: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return rows == 1, nil
}

func (m *MySQLAdapter) CreateOrderWithDecrement(ctx context.Context, order domain.Order, expectedVersion int64) (bool, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE inventory
		SET `+"`count`"+` = `+"`count`"+` - ?, version = version + 1, updated_at = NOW()
		WHERE product_id = ? AND version = ? AND `+"`count`"+` >= ?`,
		order.Quantity, order.ProductID, expectedVersion, order.Quantity,
	)
	if err != nil {
		return false, fmt.Errorf("update inventory: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return false, nil
	}

	if err := upsertOrder(ctx, tx, order); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit tx: %w", err)
	}
	return true, nil
}

func (m *MySQLAdapter) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	var o domain.Order
	err := m.db.QueryRowContext(ctx, `
		SELECT id, user_id, product_id, quantity, status, created_at, updated_at
		FROM orders WHERE id = ?`, orderID,
	).Scan(&o.ID, &o.UserID, &o.ProductID, &o.Quantity, &o.Status, &o.CreatedAt, &o.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}

	return &o, nil
}

func (m *MySQLAdapter) SaveOrder(ctx context.Context, order domain.Order) error {
	return upsertOrder(ctx, m.db, order)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// upsertOrder writes the order row keyed on its id. A terminal status is
// final: a late pending write from intake must not reopen an order the worker
// already settled, or a redelivery would decrement it a second time.
func upsertOrder(ctx context.Context, ex execer, order domain.Order) error {
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}
	_, err := ex.ExecContext(ctx, `
		INSERT INTO orders (id, user_id, product_id, quantity, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, NOW())
		ON DUPLICATE KEY UPDATE
			status = IF(status IN ('completed', 'failed'), status, VALUES(status)),
			updated_at = NOW()`,
		order.ID, order.UserID, order.ProductID, order.Quantity, order.Status, order.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert order: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) CreateProduct(ctx context.Context, product domain.Product, initialCount int) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO products (id, name, category, price, description)
		VALUES (?, ?, ?, ?, ?)`,
		product.ID, product.Name, product.Category, product.Price, product.Description,
	)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO inventory (product_id, `+"`count`"+`, version)
		VALUES (?, ?, 1)`,
		product.ID, initialCount,
	)
	if err != nil {
		return fmt.Errorf("insert inventory: %w", err)
	}

	return tx.Commit()
}

func (m *MySQLAdapter) ListProducts(ctx context.Context, offset, limit int) ([]domain.Product, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT p.id, p.name, p.category, p.price, COALESCE(p.description, ''), COALESCE(i.`+"`count`"+`, 0)
		FROM products p
		LEFT JOIN inventory i ON i.product_id = p.id
		ORDER BY p.id
		LIMIT ? OFFSET ?`, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.Price, &p.Description, &p.InventoryCount); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// NegativeInventory returns every ledger row with a negative count. The
// offline verifier treats any result here as an overselling violation.
func (m *MySQLAdapter) NegativeInventory(ctx context.Context) ([]domain.Inventory, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT product_id, `+"`count`"+`, version, updated_at
		FROM inventory WHERE `+"`count`"+` < 0`,
	)
	if err != nil {
		return nil, fmt.Errorf("query negative inventory: %w", err)
	}
	defer rows.Close()

	var violations []domain.Inventory
	for rows.Next() {
		var inv domain.Inventory
		if err := rows.Scan(&inv.ProductID, &inv.Count, &inv.Version, &inv.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan inventory: %w", err)
		}
		violations = append(violations, inv)
	}
	return violations, rows.Err()
}

// CountOrdersByStatus reports order totals for the verifier output.
func (m *MySQLAdapter) CountOrdersByStatus(ctx context.Context) (map[domain.OrderStatus]int64, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.OrderStatus]int64)
	for rows.Next() {
		var status domain.OrderStatus
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
