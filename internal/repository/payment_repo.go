package repository

import (
	"database/sql"
	"fmt"

	"github.com/mahligai-id/backoffice/internal/models"
	"go.uber.org/zap"
)

// PaymentRepository handles payment database operations. The
// (order_id, payment_number) pair is unique at the schema level, so a raced
// duplicate number fails the insert rather than corrupting the sequence.
type PaymentRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPaymentRepository creates a new payment repository.
func NewPaymentRepository(db *sql.DB, logger *zap.Logger) *PaymentRepository {
	return &PaymentRepository{db: db, logger: logger}
}

// Create inserts a new payment and assigns its id.
func (r *PaymentRepository) Create(tx *sql.Tx, p *models.Payment) error {
	q := pick(r.db, tx)
	result, err := q.Exec(`
		INSERT INTO payments (order_id, payment_number, amount, method, paid_at, voided)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.OrderID, p.PaymentNumber, p.Amount, p.Method, p.PaidAt, p.Voided)
	if err != nil {
		r.logger.Error("Failed to create payment",
			zap.Int64("order_id", p.OrderID), zap.Int("payment_number", p.PaymentNumber), zap.Error(err))
		return fmt.Errorf("failed to create payment: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	p.ID = id
	return nil
}

// GetByID retrieves one payment.
func (r *PaymentRepository) GetByID(tx *sql.Tx, id int64) (*models.Payment, error) {
	q := pick(r.db, tx)
	var p models.Payment
	err := q.QueryRow(`
		SELECT id, order_id, payment_number, amount, method, paid_at, voided, invoice_id, created_at
		FROM payments WHERE id = ?`, id).Scan(
		&p.ID, &p.OrderID, &p.PaymentNumber, &p.Amount, &p.Method,
		&p.PaidAt, &p.Voided, &p.InvoiceID, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: payment %d", ErrNotFound, id)
	}
	if err != nil {
		r.logger.Error("Failed to get payment", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return &p, nil
}

// ListByOrder retrieves the full payment history of an order, voided
// entries included, in payment-number order.
func (r *PaymentRepository) ListByOrder(tx *sql.Tx, orderID int64) ([]models.Payment, error) {
	q := pick(r.db, tx)
	rows, err := q.Query(`
		SELECT id, order_id, payment_number, amount, method, paid_at, voided, invoice_id, created_at
		FROM payments WHERE order_id = ? ORDER BY payment_number`, orderID)
	if err != nil {
		r.logger.Error("Failed to list payments", zap.Int64("order_id", orderID), zap.Error(err))
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var payments []models.Payment
	for rows.Next() {
		var p models.Payment
		if err := rows.Scan(&p.ID, &p.OrderID, &p.PaymentNumber, &p.Amount, &p.Method,
			&p.PaidAt, &p.Voided, &p.InvoiceID, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// MarkVoided flips the voided flag. Amount and payment number stay frozen.
func (r *PaymentRepository) MarkVoided(tx *sql.Tx, id int64) error {
	q := pick(r.db, tx)
	result, err := q.Exec(`UPDATE payments SET voided = 1 WHERE id = ? AND voided = 0`, id)
	if err != nil {
		r.logger.Error("Failed to void payment", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to void payment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: payment %d", ErrNotFound, id)
	}
	return nil
}

// SetInvoiceID links a payment to its generated receipt.
func (r *PaymentRepository) SetInvoiceID(tx *sql.Tx, paymentID, invoiceID int64) error {
	q := pick(r.db, tx)
	result, err := q.Exec(`UPDATE payments SET invoice_id = ? WHERE id = ?`, invoiceID, paymentID)
	if err != nil {
		r.logger.Error("Failed to link payment invoice",
			zap.Int64("payment_id", paymentID), zap.Int64("invoice_id", invoiceID), zap.Error(err))
		return fmt.Errorf("failed to link payment invoice: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: payment %d", ErrNotFound, paymentID)
	}
	return nil
}
