package repository

import (
	"database/sql"
	"fmt"

	"github.com/mahligai-id/backoffice/internal/models"
	"go.uber.org/zap"
)

// InvoiceRepository handles generated-document records and the per-tenant
// invoice sequence.
type InvoiceRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewInvoiceRepository creates a new invoice repository.
func NewInvoiceRepository(db *sql.DB, logger *zap.Logger) *InvoiceRepository {
	return &InvoiceRepository{db: db, logger: logger}
}

// NextSequence bumps and returns the tenant's invoice sequence. It must run
// inside the same transaction as the invoice insert so a failed generation
// never burns a number.
func (r *InvoiceRepository) NextSequence(tx *sql.Tx, tenant string) (int64, error) {
	q := pick(r.db, tx)
	_, err := q.Exec(`
		INSERT INTO invoice_sequences (tenant, last_value) VALUES (?, 1)
		ON CONFLICT(tenant) DO UPDATE SET
			last_value = last_value + 1,
			updated_at = CURRENT_TIMESTAMP`, tenant)
	if err != nil {
		r.logger.Error("Failed to bump invoice sequence", zap.String("tenant", tenant), zap.Error(err))
		return 0, fmt.Errorf("failed to bump invoice sequence: %w", err)
	}

	var seq int64
	if err := q.QueryRow(`SELECT last_value FROM invoice_sequences WHERE tenant = ?`, tenant).Scan(&seq); err != nil {
		return 0, fmt.Errorf("failed to read invoice sequence: %w", err)
	}
	return seq, nil
}

// Create inserts a new invoice record and assigns its id.
func (r *InvoiceRepository) Create(tx *sql.Tx, inv *models.Invoice) error {
	q := pick(r.db, tx)
	result, err := q.Exec(`
		INSERT INTO invoices (kind, order_id, payment_id, sequence_number, number,
			checksum, file_path, generated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		string(inv.Kind), inv.OrderID, inv.PaymentID, inv.SequenceNumber,
		inv.Number, inv.Checksum, inv.FilePath, inv.GeneratedAt)
	if err != nil {
		r.logger.Error("Failed to create invoice", zap.Int64("order_id", inv.OrderID), zap.Error(err))
		return fmt.Errorf("failed to create invoice: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	inv.ID = id
	return nil
}

// GetByID retrieves one invoice record.
func (r *InvoiceRepository) GetByID(id int64) (*models.Invoice, error) {
	var inv models.Invoice
	var kind string
	err := r.db.QueryRow(`
		SELECT id, kind, order_id, payment_id, sequence_number, number,
			checksum, file_path, generated_at, created_at
		FROM invoices WHERE id = ?`, id).Scan(
		&inv.ID, &kind, &inv.OrderID, &inv.PaymentID, &inv.SequenceNumber,
		&inv.Number, &inv.Checksum, &inv.FilePath, &inv.GeneratedAt, &inv.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: invoice %d", ErrNotFound, id)
	}
	if err != nil {
		r.logger.Error("Failed to get invoice", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	inv.Kind = models.InvoiceKind(kind)
	return &inv, nil
}

// ListByOrder retrieves an order's invoices in generation order.
func (r *InvoiceRepository) ListByOrder(orderID int64) ([]*models.Invoice, error) {
	rows, err := r.db.Query(`
		SELECT id, kind, order_id, payment_id, sequence_number, number,
			checksum, file_path, generated_at, created_at
		FROM invoices WHERE order_id = ? ORDER BY sequence_number`, orderID)
	if err != nil {
		r.logger.Error("Failed to list invoices", zap.Int64("order_id", orderID), zap.Error(err))
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	var invoices []*models.Invoice
	for rows.Next() {
		var inv models.Invoice
		var kind string
		if err := rows.Scan(&inv.ID, &kind, &inv.OrderID, &inv.PaymentID, &inv.SequenceNumber,
			&inv.Number, &inv.Checksum, &inv.FilePath, &inv.GeneratedAt, &inv.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		inv.Kind = models.InvoiceKind(kind)
		invoices = append(invoices, &inv)
	}
	return invoices, rows.Err()
}
