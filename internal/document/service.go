package document

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mahligai-id/backoffice/internal/models"
	"github.com/mahligai-id/backoffice/internal/repository"
)

// pdfRenderer produces PDF bytes from a snapshot. *Renderer satisfies it;
// tests substitute a deterministic fake.
type pdfRenderer interface {
	Render(ctx context.Context, snap *Snapshot, kind models.InvoiceKind) ([]byte, error)
}

// docStore persists and serves rendered bytes. *storage.DocumentStore
// satisfies it.
type docStore interface {
	SavePDF(content []byte) (path string, checksum string, err error)
	Read(relPath string) ([]byte, error)
}

type txRunner interface {
	WithTransaction(fn func(*sql.Tx) error) error
}

type orderReader interface {
	GetByID(tx *sql.Tx, id int64) (*models.Order, error)
}

type paymentReader interface {
	GetByID(tx *sql.Tx, id int64) (*models.Payment, error)
	ListByOrder(tx *sql.Tx, orderID int64) ([]models.Payment, error)
	SetInvoiceID(tx *sql.Tx, paymentID, invoiceID int64) error
}

type clientReader interface {
	GetByID(id int64) (*models.Client, error)
}

type invoiceStore interface {
	NextSequence(tx *sql.Tx, tenant string) (int64, error)
	Create(tx *sql.Tx, inv *models.Invoice) error
	GetByID(id int64) (*models.Invoice, error)
	ListByOrder(orderID int64) ([]*models.Invoice, error)
}

// ServiceConfig carries the tenant identity and letterhead.
type ServiceConfig struct {
	Tenant string
	Vendor VendorInfo
}

// Service orchestrates snapshot capture, rendering, persistence, and the
// invoice sequence. Render faults are retried once on a fresh browser
// lease before surfacing.
type Service struct {
	cfg      ServiceConfig
	db       txRunner
	orders   orderReader
	payments paymentReader
	clients  clientReader
	invoices invoiceStore
	renderer pdfRenderer
	store    docStore
	logger   *zap.Logger
}

// NewService wires the document service.
func NewService(cfg ServiceConfig, db txRunner, orders orderReader, payments paymentReader,
	clients clientReader, invoices invoiceStore, renderer pdfRenderer, store docStore,
	logger *zap.Logger) *Service {
	if cfg.Tenant == "" {
		cfg.Tenant = "default"
	}
	return &Service{
		cfg:      cfg,
		db:       db,
		orders:   orders,
		payments: payments,
		clients:  clients,
		invoices: invoices,
		renderer: renderer,
		store:    store,
		logger:   logger,
	}
}

// GenerateFinalInvoice renders the full-order invoice and records it with
// the next sequence number.
func (s *Service) GenerateFinalInvoice(ctx context.Context, orderID int64) (*models.Invoice, error) {
	return s.generate(ctx, orderID, 0, models.KindFinalInvoice)
}

// GeneratePaymentReceipt renders a receipt for one recorded payment of the
// order.
func (s *Service) GeneratePaymentReceipt(ctx context.Context, orderID, paymentID int64) (*models.Invoice, error) {
	return s.generate(ctx, orderID, paymentID, models.KindPaymentReceipt)
}

func (s *Service) generate(ctx context.Context, orderID, paymentID int64, kind models.InvoiceKind) (*models.Invoice, error) {
	o, err := s.orders.GetByID(nil, orderID)
	if err != nil {
		return nil, err
	}
	payments, err := s.payments.ListByOrder(nil, orderID)
	if err != nil {
		return nil, err
	}

	var receiptFor *models.Payment
	if kind == models.KindPaymentReceipt {
		p, err := s.payments.GetByID(nil, paymentID)
		if err != nil {
			return nil, err
		}
		if p.OrderID != orderID {
			return nil, fmt.Errorf("%w: payment %d does not belong to order %d",
				repository.ErrNotFound, paymentID, orderID)
		}
		receiptFor = p
	}

	var client *models.Client
	if o.ClientID != nil {
		client, err = s.clients.GetByID(*o.ClientID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}

	generatedAt := time.Now().UTC()
	snap := BuildSnapshot(o, payments, client, s.cfg.Vendor, receiptFor, generatedAt)

	pdf, err := s.renderWithRetry(ctx, snap, kind)
	if err != nil {
		return nil, err
	}

	path, checksum, err := s.store.SavePDF(pdf)
	if err != nil {
		return nil, err
	}

	inv := &models.Invoice{
		Kind:        kind,
		OrderID:     orderID,
		Checksum:    checksum,
		FilePath:    path,
		GeneratedAt: generatedAt,
	}
	if receiptFor != nil {
		inv.PaymentID = &receiptFor.ID
	}

	err = s.db.WithTransaction(func(tx *sql.Tx) error {
		// The order may have been deleted while we rendered; a document
		// for a vanished order must not be recorded.
		if _, err := s.orders.GetByID(tx, orderID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%w: order %d", ErrSnapshotStale, orderID)
			}
			return err
		}
		seq, err := s.invoices.NextSequence(tx, s.cfg.Tenant)
		if err != nil {
			return err
		}
		inv.SequenceNumber = seq
		inv.Number = models.FormatInvoiceNumber(seq, generatedAt)
		if err := s.invoices.Create(tx, inv); err != nil {
			return err
		}
		if receiptFor != nil {
			return s.payments.SetInvoiceID(tx, receiptFor.ID, inv.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Invoice generated",
		zap.Int64("order_id", orderID),
		zap.String("kind", string(kind)),
		zap.String("number", inv.Number),
		zap.String("checksum", checksum))
	return inv, nil
}

// renderWithRetry retries infrastructure faults exactly once; the second
// attempt naturally lands on a fresh lease because the failed one was
// discarded.
func (s *Service) renderWithRetry(ctx context.Context, snap *Snapshot, kind models.InvoiceKind) ([]byte, error) {
	pdf, err := s.renderer.Render(ctx, snap, kind)
	if err == nil {
		return pdf, nil
	}
	if !errors.Is(err, ErrRenderTimeout) && !errors.Is(err, ErrRenderBackendUnavailable) {
		return nil, err
	}
	s.logger.Warn("Render failed, retrying on fresh backend", zap.Error(err))
	return s.renderer.Render(ctx, snap, kind)
}

// GetInvoice returns invoice metadata.
func (s *Service) GetInvoice(id int64) (*models.Invoice, error) {
	return s.invoices.GetByID(id)
}

// ListInvoices returns an order's generated documents.
func (s *Service) ListInvoices(orderID int64) ([]*models.Invoice, error) {
	return s.invoices.ListByOrder(orderID)
}

// GetPDF returns an invoice and its stored bytes.
func (s *Service) GetPDF(id int64) (*models.Invoice, []byte, error) {
	inv, err := s.invoices.GetByID(id)
	if err != nil {
		return nil, nil, err
	}
	content, err := s.store.Read(inv.FilePath)
	if err != nil {
		return nil, nil, err
	}
	return inv, content, nil
}
