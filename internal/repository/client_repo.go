package repository

import (
	"database/sql"
	"fmt"

	"github.com/mahligai-id/backoffice/internal/models"
	"go.uber.org/zap"
)

// ClientRepository handles client database operations.
type ClientRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewClientRepository creates a new client repository.
func NewClientRepository(db *sql.DB, logger *zap.Logger) *ClientRepository {
	return &ClientRepository{db: db, logger: logger}
}

// Create inserts a new client and assigns its id.
func (r *ClientRepository) Create(c *models.Client) error {
	query := `
		INSERT INTO clients (bride_name, groom_name, email, phone, address, ceremony_at, reception_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.Exec(query,
		c.BrideName, c.GroomName, c.Email, c.Phone, c.Address, c.CeremonyAt, c.ReceptionAt)
	if err != nil {
		r.logger.Error("Failed to create client", zap.Error(err))
		return fmt.Errorf("failed to create client: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	c.ID = id
	return nil
}

// GetByID retrieves a client by id.
func (r *ClientRepository) GetByID(id int64) (*models.Client, error) {
	query := `
		SELECT id, bride_name, groom_name, email, phone, address,
			ceremony_at, reception_at, created_at, updated_at
		FROM clients WHERE id = ?
	`
	var c models.Client
	err := r.db.QueryRow(query, id).Scan(
		&c.ID, &c.BrideName, &c.GroomName, &c.Email, &c.Phone, &c.Address,
		&c.CeremonyAt, &c.ReceptionAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: client %d", ErrNotFound, id)
	}
	if err != nil {
		r.logger.Error("Failed to get client", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	return &c, nil
}

// List retrieves clients ordered by creation time, newest first.
func (r *ClientRepository) List(limit, offset int) ([]*models.Client, error) {
	query := `
		SELECT id, bride_name, groom_name, email, phone, address,
			ceremony_at, reception_at, created_at, updated_at
		FROM clients ORDER BY created_at DESC LIMIT ? OFFSET ?
	`
	rows, err := r.db.Query(query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list clients", zap.Error(err))
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	var clients []*models.Client
	for rows.Next() {
		var c models.Client
		if err := rows.Scan(
			&c.ID, &c.BrideName, &c.GroomName, &c.Email, &c.Phone, &c.Address,
			&c.CeremonyAt, &c.ReceptionAt, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, &c)
	}
	return clients, rows.Err()
}

// Update rewrites a client's mutable fields.
func (r *ClientRepository) Update(c *models.Client) error {
	query := `
		UPDATE clients
		SET bride_name = ?, groom_name = ?, email = ?, phone = ?, address = ?,
			ceremony_at = ?, reception_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	result, err := r.db.Exec(query,
		c.BrideName, c.GroomName, c.Email, c.Phone, c.Address,
		c.CeremonyAt, c.ReceptionAt, c.ID)
	if err != nil {
		r.logger.Error("Failed to update client", zap.Int64("id", c.ID), zap.Error(err))
		return fmt.Errorf("failed to update client: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: client %d", ErrNotFound, c.ID)
	}
	return nil
}

// Delete removes a client. Clients still referenced by an order are
// protected with ErrClientInUse.
func (r *ClientRepository) Delete(id int64) error {
	var refs int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM orders WHERE client_id = ?`, id).Scan(&refs); err != nil {
		return fmt.Errorf("failed to count client orders: %w", err)
	}
	if refs > 0 {
		return fmt.Errorf("%w: client %d has %d order(s)", ErrClientInUse, id, refs)
	}

	result, err := r.db.Exec(`DELETE FROM clients WHERE id = ?`, id)
	if err != nil {
		r.logger.Error("Failed to delete client", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete client: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: client %d", ErrNotFound, id)
	}
	return nil
}
