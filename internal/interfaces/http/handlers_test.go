package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/mahligai-id/backoffice/internal/document"
	"github.com/mahligai-id/backoffice/internal/ledger"
	"github.com/mahligai-id/backoffice/internal/models"
	"github.com/mahligai-id/backoffice/internal/money"
	"github.com/mahligai-id/backoffice/internal/order"
	"github.com/mahligai-id/backoffice/internal/repository"
)

type MockClientStore struct {
	clients map[int64]*models.Client
	nextID  int64
	inUse   map[int64]bool
}

func NewMockClientStore() *MockClientStore {
	return &MockClientStore{clients: make(map[int64]*models.Client), inUse: make(map[int64]bool)}
}

func (m *MockClientStore) Create(c *models.Client) error {
	m.nextID++
	c.ID = m.nextID
	m.clients[c.ID] = c
	return nil
}

func (m *MockClientStore) GetByID(id int64) (*models.Client, error) {
	c, ok := m.clients[id]
	if !ok {
		return nil, fmt.Errorf("%w: client %d", repository.ErrNotFound, id)
	}
	return c, nil
}

func (m *MockClientStore) List(limit, offset int) ([]*models.Client, error) {
	out := []*models.Client{}
	for _, c := range m.clients {
		out = append(out, c)
	}
	return out, nil
}

func (m *MockClientStore) Update(c *models.Client) error {
	if _, ok := m.clients[c.ID]; !ok {
		return fmt.Errorf("%w: client %d", repository.ErrNotFound, c.ID)
	}
	m.clients[c.ID] = c
	return nil
}

func (m *MockClientStore) Delete(id int64) error {
	if m.inUse[id] {
		return fmt.Errorf("%w: client %d", repository.ErrClientInUse, id)
	}
	if _, ok := m.clients[id]; !ok {
		return fmt.Errorf("%w: client %d", repository.ErrNotFound, id)
	}
	delete(m.clients, id)
	return nil
}

// MockOrderService returns canned values and records the last call.
type MockOrderService struct {
	order       *models.Order
	view        *order.View
	payment     *models.Payment
	err         error
	lastAmount  money.Money
	lastMethod  string
	deletedID   int64
	recordCalls int
}

func (m *MockOrderService) Create(clientID *int64, eventDate *time.Time, items []models.LineItem) (*models.Order, error) {
	return m.order, m.err
}

func (m *MockOrderService) Get(orderID int64) (*order.View, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.view, nil
}

func (m *MockOrderService) List(limit, offset int) ([]*models.Order, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []*models.Order{m.order}, nil
}

func (m *MockOrderService) AddLineItem(orderID int64, item models.LineItem) (*models.Order, error) {
	return m.order, m.err
}

func (m *MockOrderService) RemoveLineItem(orderID, itemID int64) (*models.Order, error) {
	return m.order, m.err
}

func (m *MockOrderService) RecordPayment(orderID int64, amount money.Money, method string, paidAt time.Time) (*models.Payment, error) {
	m.recordCalls++
	m.lastAmount = amount
	m.lastMethod = method
	if m.err != nil {
		return nil, m.err
	}
	return m.payment, nil
}

func (m *MockOrderService) VoidPayment(orderID, paymentID int64) (*models.Payment, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.payment, nil
}

func (m *MockOrderService) Delete(orderID int64) error {
	m.deletedID = orderID
	return m.err
}

type MockDocumentService struct {
	invoice *models.Invoice
	pdf     []byte
	err     error
}

func (m *MockDocumentService) GenerateFinalInvoice(ctx context.Context, orderID int64) (*models.Invoice, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.invoice, nil
}

func (m *MockDocumentService) GeneratePaymentReceipt(ctx context.Context, orderID, paymentID int64) (*models.Invoice, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.invoice, nil
}

func (m *MockDocumentService) GetInvoice(id int64) (*models.Invoice, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.invoice, nil
}

func (m *MockDocumentService) GetPDF(id int64) (*models.Invoice, []byte, error) {
	if m.err != nil {
		return nil, nil, m.err
	}
	return m.invoice, m.pdf, nil
}

type MockExporter struct{}

func (m *MockExporter) BuildWorkbook(view *order.View, client *models.Client) (*excelize.File, error) {
	return excelize.NewFile(), nil
}

type MockPinger struct{ err error }

func (m *MockPinger) Ping(ctx context.Context) error { return m.err }

type handlerFixture struct {
	server  *Server
	clients *MockClientStore
	orders  *MockOrderService
	docs    *MockDocumentService
	pinger  *MockPinger
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	f := &handlerFixture{
		clients: NewMockClientStore(),
		orders: &MockOrderService{
			order:   &models.Order{ID: 42, TotalAmount: money.MustFromString("20000000")},
			payment: &models.Payment{ID: 1, OrderID: 42, PaymentNumber: 1, Amount: money.MustFromString("8000000")},
		},
		docs: &MockDocumentService{
			invoice: &models.Invoice{ID: 3, OrderID: 42, Number: "INV/2026/000001", Kind: models.KindFinalInvoice},
			pdf:     []byte("%PDF-fake"),
		},
		pinger: &MockPinger{},
	}
	f.orders.view = &order.View{
		Order:      f.orders.order,
		AmountPaid: money.Zero(),
		AmountOwed: f.orders.order.TotalAmount,
	}
	handlers := NewHandlers(f.clients, f.orders, f.docs, &MockExporter{}, f.pinger, zap.NewNop())
	f.server = NewServer(ServerConfig{Host: "127.0.0.1", Port: 0}, handlers, zap.NewNop())
	return f
}

func (f *handlerFixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.server.Router().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHealthCheck(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"healthy"`)
	assert.Contains(t, w.Body.String(), `"renderer":"ok"`)

	// A dead renderer is reported but does not fail the probe.
	f.pinger.err = document.ErrRenderBackendUnavailable
	w = f.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"renderer":"unavailable"`)
}

func TestClientCRUD(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/clients", map[string]interface{}{
		"bride_name": "Sari",
		"groom_name": "Budi",
		"email":      "sari.budi@example.com",
		"phone":      "+62 811-1111-2222",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, decode(t, w).Success)

	w = f.do(t, http.MethodGet, "/api/v1/clients/1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Sari")

	w = f.do(t, http.MethodPut, "/api/v1/clients/1", map[string]interface{}{
		"bride_name": "Sari",
		"groom_name": "Budiman",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Budiman")

	w = f.do(t, http.MethodDelete, "/api/v1/clients/1", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/clients/1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateClientValidation(t *testing.T) {
	f := newHandlerFixture(t)

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{name: "missing names", body: map[string]interface{}{"email": "a@b.co"}},
		{name: "bad email", body: map[string]interface{}{
			"bride_name": "Sari", "groom_name": "Budi", "email": "not-an-email"}},
		{name: "bad phone", body: map[string]interface{}{
			"bride_name": "Sari", "groom_name": "Budi", "phone": "12"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, http.MethodPost, "/api/v1/clients", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.False(t, decode(t, w).Success)
		})
	}
}

func TestDeleteClientInUse(t *testing.T) {
	f := newHandlerFixture(t)
	f.clients.Create(&models.Client{BrideName: "Sari", GroomName: "Budi"})
	f.clients.inUse[1] = true

	w := f.do(t, http.MethodDelete, "/api/v1/clients/1", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCreateOrder(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/orders", map[string]interface{}{
		"items": []map[string]interface{}{
			{"description": "Paket katering", "unit_price": "150000", "quantity": 100},
		},
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	// Unknown client reference is a 404, not a created order.
	w = f.do(t, http.MethodPost, "/api/v1/orders", map[string]interface{}{
		"client_id": 99,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Unparseable money never reaches the service.
	w = f.do(t, http.MethodPost, "/api/v1/orders", map[string]interface{}{
		"items": []map[string]interface{}{
			{"description": "Paket", "unit_price": "banyak", "quantity": 1},
		},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecordPayment(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/orders/42/payments", map[string]interface{}{
		"amount": "8000000",
		"method": "transfer",
	})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "8000000.00", f.orders.lastAmount.String())
	assert.Equal(t, "transfer", f.orders.lastMethod)

	w = f.do(t, http.MethodPost, "/api/v1/orders/42/payments", map[string]interface{}{
		"amount": "delapan juta",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 1, f.orders.recordCalls)
}

func TestDomainErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "overpayment", err: ledger.ErrOverpayment, wantStatus: http.StatusBadRequest},
		{name: "invalid amount", err: money.ErrInvalidAmount, wantStatus: http.StatusBadRequest},
		{name: "order locked", err: order.ErrOrderLocked, wantStatus: http.StatusBadRequest},
		{name: "no items", err: order.ErrNoItems, wantStatus: http.StatusBadRequest},
		{name: "not found", err: repository.ErrNotFound, wantStatus: http.StatusNotFound},
		{name: "payment not found", err: ledger.ErrPaymentNotFound, wantStatus: http.StatusNotFound},
		{name: "unexpected", err: fmt.Errorf("disk on fire"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newHandlerFixture(t)
			f.orders.err = fmt.Errorf("wrapped: %w", tt.err)

			w := f.do(t, http.MethodPost, "/api/v1/orders/42/payments", map[string]interface{}{
				"amount": "1000",
			})
			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusInternalServerError {
				// Internal detail never leaks to the client.
				assert.NotContains(t, w.Body.String(), "disk on fire")
			}
		})
	}
}

func TestVoidPayment(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/orders/42/payments/1/void", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	f.orders.err = fmt.Errorf("%w: payment 9", ledger.ErrPaymentNotFound)
	w = f.do(t, http.MethodPost, "/api/v1/orders/42/payments/9/void", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLineItemRoutes(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/orders/42/items", map[string]interface{}{
		"description": "Dokumentasi", "unit_price": "4000000", "quantity": 1,
	})
	assert.Equal(t, http.StatusOK, w.Code)

	f.orders.err = fmt.Errorf("%w: order 42", order.ErrOrderLocked)
	w = f.do(t, http.MethodDelete, "/api/v1/orders/42/items/7", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerateInvoiceRoutes(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/orders/42/invoice", nil)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "INV/2026/000001")

	w = f.do(t, http.MethodPost, "/api/v1/orders/42/payments/1/receipt", nil)
	assert.Equal(t, http.StatusCreated, w.Code)

	// A stale snapshot means the order is gone.
	f.docs.err = fmt.Errorf("%w: order 42", document.ErrSnapshotStale)
	w = f.do(t, http.MethodPost, "/api/v1/orders/42/invoice", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Render infrastructure faults are opaque server errors.
	f.docs.err = fmt.Errorf("%w after 30s", document.ErrRenderTimeout)
	w = f.do(t, http.MethodPost, "/api/v1/orders/42/invoice", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestGetInvoicePDF(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, http.MethodGet, "/api/v1/invoices/3/pdf", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "INV_2026_000001")
	assert.Equal(t, []byte("%PDF-fake"), w.Body.Bytes())
}

func TestExportLedger(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, http.MethodGet, "/api/v1/orders/42/ledger/export", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "order-42-ledger.xlsx")
}

func TestInvalidIDParams(t *testing.T) {
	f := newHandlerFixture(t)

	for _, path := range []string{
		"/api/v1/orders/abc",
		"/api/v1/orders/0",
		"/api/v1/clients/-1",
		"/api/v1/invoices/xyz",
	} {
		w := f.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
	}
}
