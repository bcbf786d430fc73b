package repository

import (
	"database/sql"
	"fmt"

	"github.com/mahligai-id/backoffice/internal/models"
	"github.com/mahligai-id/backoffice/internal/money"
	"go.uber.org/zap"
)

// OrderRepository handles order and line-item database operations.
type OrderRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewOrderRepository creates a new order repository.
func NewOrderRepository(db *sql.DB, logger *zap.Logger) *OrderRepository {
	return &OrderRepository{db: db, logger: logger}
}

// Create inserts an order with its line items.
func (r *OrderRepository) Create(tx *sql.Tx, o *models.Order) error {
	q := pick(r.db, tx)

	result, err := q.Exec(`
		INSERT INTO orders (client_id, event_date, total_amount, payment_status)
		VALUES (?, ?, ?, ?)`,
		o.ClientID, o.EventDate, o.TotalAmount, string(o.PaymentStatus))
	if err != nil {
		r.logger.Error("Failed to create order", zap.Error(err))
		return fmt.Errorf("failed to create order: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	o.ID = id

	for i := range o.Items {
		o.Items[i].OrderID = id
		if err := r.AddItem(tx, &o.Items[i]); err != nil {
			return err
		}
	}
	return nil
}

// GetByID retrieves an order with its line items.
func (r *OrderRepository) GetByID(tx *sql.Tx, id int64) (*models.Order, error) {
	q := pick(r.db, tx)

	var o models.Order
	var status string
	err := q.QueryRow(`
		SELECT id, client_id, event_date, total_amount, payment_status, created_at, updated_at
		FROM orders WHERE id = ?`, id).Scan(
		&o.ID, &o.ClientID, &o.EventDate, &o.TotalAmount, &status, &o.CreatedAt, &o.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: order %d", ErrNotFound, id)
	}
	if err != nil {
		r.logger.Error("Failed to get order", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	o.PaymentStatus = models.PaymentStatus(status)

	items, err := r.GetItems(tx, id)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return &o, nil
}

// List retrieves orders ordered by creation time, newest first. Line items
// are not loaded for listings.
func (r *OrderRepository) List(limit, offset int) ([]*models.Order, error) {
	rows, err := r.db.Query(`
		SELECT id, client_id, event_date, total_amount, payment_status, created_at, updated_at
		FROM orders ORDER BY created_at DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list orders", zap.Error(err))
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		var o models.Order
		var status string
		if err := rows.Scan(&o.ID, &o.ClientID, &o.EventDate, &o.TotalAmount,
			&status, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		o.PaymentStatus = models.PaymentStatus(status)
		orders = append(orders, &o)
	}
	return orders, rows.Err()
}

// UpdateDerived rewrites the denormalized total and status projection. The
// values are rebuilt from line items and the payment ledger; they are never
// edited directly.
func (r *OrderRepository) UpdateDerived(tx *sql.Tx, id int64, total money.Money, status models.PaymentStatus) error {
	q := pick(r.db, tx)
	result, err := q.Exec(`
		UPDATE orders SET total_amount = ?, payment_status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, total, string(status), id)
	if err != nil {
		r.logger.Error("Failed to update order totals", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to update order totals: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: order %d", ErrNotFound, id)
	}
	return nil
}

// Delete removes an order. Payments and invoices go with it via foreign-key
// cascade.
func (r *OrderRepository) Delete(tx *sql.Tx, id int64) error {
	q := pick(r.db, tx)
	result, err := q.Exec(`DELETE FROM orders WHERE id = ?`, id)
	if err != nil {
		r.logger.Error("Failed to delete order", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete order: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: order %d", ErrNotFound, id)
	}
	return nil
}

// AddItem inserts one line item and assigns its id.
func (r *OrderRepository) AddItem(tx *sql.Tx, item *models.LineItem) error {
	q := pick(r.db, tx)
	result, err := q.Exec(`
		INSERT INTO order_items (order_id, description, unit_price, quantity)
		VALUES (?, ?, ?, ?)`,
		item.OrderID, item.Description, item.UnitPrice, item.Quantity)
	if err != nil {
		r.logger.Error("Failed to add order item", zap.Int64("order_id", item.OrderID), zap.Error(err))
		return fmt.Errorf("failed to add order item: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	item.ID = id
	return nil
}

// DeleteItem removes one line item of the order.
func (r *OrderRepository) DeleteItem(tx *sql.Tx, orderID, itemID int64) error {
	q := pick(r.db, tx)
	result, err := q.Exec(`DELETE FROM order_items WHERE id = ? AND order_id = ?`, itemID, orderID)
	if err != nil {
		r.logger.Error("Failed to delete order item",
			zap.Int64("order_id", orderID), zap.Int64("item_id", itemID), zap.Error(err))
		return fmt.Errorf("failed to delete order item: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: item %d on order %d", ErrNotFound, itemID, orderID)
	}
	return nil
}

// GetItems retrieves the line items of an order in insertion order.
func (r *OrderRepository) GetItems(tx *sql.Tx, orderID int64) ([]models.LineItem, error) {
	q := pick(r.db, tx)
	rows, err := q.Query(`
		SELECT id, order_id, description, unit_price, quantity
		FROM order_items WHERE order_id = ? ORDER BY id`, orderID)
	if err != nil {
		r.logger.Error("Failed to get order items", zap.Int64("order_id", orderID), zap.Error(err))
		return nil, fmt.Errorf("failed to get order items: %w", err)
	}
	defer rows.Close()

	var items []models.LineItem
	for rows.Next() {
		var it models.LineItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.Description, &it.UnitPrice, &it.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
