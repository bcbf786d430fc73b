package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/mahligai-id/backoffice/internal/document"
	"github.com/mahligai-id/backoffice/internal/ledger"
	"github.com/mahligai-id/backoffice/internal/models"
	"github.com/mahligai-id/backoffice/internal/money"
	"github.com/mahligai-id/backoffice/internal/order"
	"github.com/mahligai-id/backoffice/internal/repository"
	"github.com/mahligai-id/backoffice/pkg/utils"
)

// orderService is the slice of the order aggregate the handlers call.
type orderService interface {
	Create(clientID *int64, eventDate *time.Time, items []models.LineItem) (*models.Order, error)
	Get(orderID int64) (*order.View, error)
	List(limit, offset int) ([]*models.Order, error)
	AddLineItem(orderID int64, item models.LineItem) (*models.Order, error)
	RemoveLineItem(orderID, itemID int64) (*models.Order, error)
	RecordPayment(orderID int64, amount money.Money, method string, paidAt time.Time) (*models.Payment, error)
	VoidPayment(orderID, paymentID int64) (*models.Payment, error)
	Delete(orderID int64) error
}

// documentService is the slice of the document service the handlers call.
type documentService interface {
	GenerateFinalInvoice(ctx context.Context, orderID int64) (*models.Invoice, error)
	GeneratePaymentReceipt(ctx context.Context, orderID, paymentID int64) (*models.Invoice, error)
	GetInvoice(id int64) (*models.Invoice, error)
	GetPDF(id int64) (*models.Invoice, []byte, error)
}

type clientStore interface {
	Create(c *models.Client) error
	GetByID(id int64) (*models.Client, error)
	List(limit, offset int) ([]*models.Client, error)
	Update(c *models.Client) error
	Delete(id int64) error
}

type ledgerExporter interface {
	BuildWorkbook(view *order.View, client *models.Client) (*excelize.File, error)
}

type backendPinger interface {
	Ping(ctx context.Context) error
}

// Handlers contains all HTTP request handlers
type Handlers struct {
	clients  clientStore
	orders   orderService
	docs     documentService
	exporter ledgerExporter
	backend  backendPinger
	logger   *zap.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(clients clientStore, orders orderService, docs documentService,
	exporter ledgerExporter, backend backendPinger, logger *zap.Logger) *Handlers {
	return &Handlers{
		clients:  clients,
		orders:   orders,
		docs:     docs,
		exporter: exporter,
		backend:  backend,
		logger:   logger,
	}
}

// Response is the standard JSON envelope.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

func ok(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{Success: true, Data: data})
}

// respondError maps domain errors to status codes. Business rejections keep
// their message; unexpected failures surface as a generic 500.
func (h *Handlers) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, ledger.ErrPaymentNotFound),
		errors.Is(err, document.ErrSnapshotStale):
		c.JSON(http.StatusNotFound, Response{Message: err.Error()})
	case errors.Is(err, money.ErrInvalidAmount),
		errors.Is(err, ledger.ErrOverpayment),
		errors.Is(err, order.ErrOrderLocked),
		errors.Is(err, order.ErrNoItems):
		c.JSON(http.StatusBadRequest, Response{Message: err.Error()})
	case errors.Is(err, repository.ErrClientInUse):
		c.JSON(http.StatusConflict, Response{Message: err.Error()})
	default:
		h.logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Message: "internal server error"})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{Message: msg})
}

func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}

func pagination(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	renderer := "ok"
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()
	if err := h.backend.Ping(ctx); err != nil {
		renderer = "unavailable"
	}
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: gin.H{
			"status":   "healthy",
			"renderer": renderer,
			"time":     time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// --- clients -------------------------------------------------------------

type clientRequest struct {
	BrideName   string     `json:"bride_name" binding:"required"`
	GroomName   string     `json:"groom_name" binding:"required"`
	Email       string     `json:"email"`
	Phone       string     `json:"phone"`
	Address     string     `json:"address"`
	CeremonyAt  *time.Time `json:"ceremony_at"`
	ReceptionAt *time.Time `json:"reception_at"`
}

func (req *clientRequest) validate() string {
	req.BrideName = utils.SanitizeString(req.BrideName)
	req.GroomName = utils.SanitizeString(req.GroomName)
	req.Address = utils.SanitizeString(req.Address)
	if req.Email != "" {
		if err := utils.ValidateEmail(req.Email); err != nil {
			return err.Error()
		}
	}
	if req.Phone != "" {
		if err := utils.ValidatePhone(req.Phone); err != nil {
			return err.Error()
		}
	}
	return ""
}

func (req *clientRequest) apply(c *models.Client) {
	c.BrideName = req.BrideName
	c.GroomName = req.GroomName
	c.Email = req.Email
	c.Phone = req.Phone
	c.Address = req.Address
	c.CeremonyAt = req.CeremonyAt
	c.ReceptionAt = req.ReceptionAt
}

// CreateClient handles POST /api/v1/clients
func (h *Handlers) CreateClient(c *gin.Context) {
	var req clientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "bride_name and groom_name are required")
		return
	}
	if msg := req.validate(); msg != "" {
		badRequest(c, msg)
		return
	}
	var client models.Client
	req.apply(&client)
	if err := h.clients.Create(&client); err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusCreated, client)
}

// ListClients handles GET /api/v1/clients
func (h *Handlers) ListClients(c *gin.Context) {
	limit, offset := pagination(c)
	clients, err := h.clients.List(limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, clients)
}

// GetClient handles GET /api/v1/clients/:id
func (h *Handlers) GetClient(c *gin.Context) {
	id, valid := paramID(c, "id")
	if !valid {
		return
	}
	client, err := h.clients.GetByID(id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, client)
}

// UpdateClient handles PUT /api/v1/clients/:id
func (h *Handlers) UpdateClient(c *gin.Context) {
	id, valid := paramID(c, "id")
	if !valid {
		return
	}
	var req clientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "bride_name and groom_name are required")
		return
	}
	if msg := req.validate(); msg != "" {
		badRequest(c, msg)
		return
	}
	client, err := h.clients.GetByID(id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	req.apply(client)
	if err := h.clients.Update(client); err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, client)
}

// DeleteClient handles DELETE /api/v1/clients/:id
func (h *Handlers) DeleteClient(c *gin.Context) {
	id, valid := paramID(c, "id")
	if !valid {
		return
	}
	if err := h.clients.Delete(id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Message: "client deleted"})
}

// --- orders --------------------------------------------------------------

type lineItemRequest struct {
	Description string `json:"description" binding:"required"`
	UnitPrice   string `json:"unit_price" binding:"required"`
	Quantity    int    `json:"quantity" binding:"required"`
}

func (req lineItemRequest) toModel() (models.LineItem, error) {
	price, err := money.FromString(req.UnitPrice)
	if err != nil {
		return models.LineItem{}, err
	}
	return models.LineItem{
		Description: utils.SanitizeString(req.Description),
		UnitPrice:   price,
		Quantity:    req.Quantity,
	}, nil
}

type createOrderRequest struct {
	ClientID  *int64            `json:"client_id"`
	EventDate *time.Time        `json:"event_date"`
	Items     []lineItemRequest `json:"items"`
}

// CreateOrder handles POST /api/v1/orders
func (h *Handlers) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	items := make([]models.LineItem, 0, len(req.Items))
	for _, ir := range req.Items {
		item, err := ir.toModel()
		if err != nil {
			h.respondError(c, err)
			return
		}
		items = append(items, item)
	}
	if req.ClientID != nil {
		if _, err := h.clients.GetByID(*req.ClientID); err != nil {
			h.respondError(c, err)
			return
		}
	}
	o, err := h.orders.Create(req.ClientID, req.EventDate, items)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusCreated, o)
}

// ListOrders handles GET /api/v1/orders
func (h *Handlers) ListOrders(c *gin.Context) {
	limit, offset := pagination(c)
	orders, err := h.orders.List(limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, orders)
}

// GetOrder handles GET /api/v1/orders/:id
func (h *Handlers) GetOrder(c *gin.Context) {
	id, valid := paramID(c, "id")
	if !valid {
		return
	}
	view, err := h.orders.Get(id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, view)
}

// DeleteOrder handles DELETE /api/v1/orders/:id
func (h *Handlers) DeleteOrder(c *gin.Context) {
	id, valid := paramID(c, "id")
	if !valid {
		return
	}
	if err := h.orders.Delete(id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Message: "order deleted"})
}

// AddLineItem handles POST /api/v1/orders/:id/items
func (h *Handlers) AddLineItem(c *gin.Context) {
	id, valid := paramID(c, "id")
	if !valid {
		return
	}
	var req lineItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "description, unit_price and quantity are required")
		return
	}
	item, err := req.toModel()
	if err != nil {
		h.respondError(c, err)
		return
	}
	o, err := h.orders.AddLineItem(id, item)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, o)
}

// RemoveLineItem handles DELETE /api/v1/orders/:id/items/:itemID
func (h *Handlers) RemoveLineItem(c *gin.Context) {
	id, valid := paramID(c, "id")
	if !valid {
		return
	}
	itemID, valid := paramID(c, "itemID")
	if !valid {
		return
	}
	o, err := h.orders.RemoveLineItem(id, itemID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, o)
}

// --- payments ------------------------------------------------------------

type recordPaymentRequest struct {
	Amount string     `json:"amount" binding:"required"`
	Method string     `json:"method"`
	PaidAt *time.Time `json:"paid_at"`
}

// RecordPayment handles POST /api/v1/orders/:id/payments
func (h *Handlers) RecordPayment(c *gin.Context) {
	id, valid := paramID(c, "id")
	if !valid {
		return
	}
	var req recordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "amount is required")
		return
	}
	amount, err := money.FromString(req.Amount)
	if err != nil {
		h.respondError(c, err)
		return
	}
	var paidAt time.Time
	if req.PaidAt != nil {
		paidAt = *req.PaidAt
	}
	p, err := h.orders.RecordPayment(id, amount, req.Method, paidAt)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusCreated, p)
}

// VoidPayment handles POST /api/v1/orders/:id/payments/:paymentID/void
func (h *Handlers) VoidPayment(c *gin.Context) {
	id, valid := paramID(c, "id")
	if !valid {
		return
	}
	paymentID, valid := paramID(c, "paymentID")
	if !valid {
		return
	}
	p, err := h.orders.VoidPayment(id, paymentID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}

// ExportLedger handles GET /api/v1/orders/:id/ledger/export
func (h *Handlers) ExportLedger(c *gin.Context) {
	id, valid := paramID(c, "id")
	if !valid {
		return
	}
	view, err := h.orders.Get(id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	var client *models.Client
	if view.Order.ClientID != nil {
		if cl, err := h.clients.GetByID(*view.Order.ClientID); err == nil {
			client = cl
		}
	}
	f, err := h.exporter.BuildWorkbook(view, client)
	if err != nil {
		h.respondError(c, err)
		return
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		h.respondError(c, err)
		return
	}
	filename := "order-" + strconv.FormatInt(id, 10) + "-ledger.xlsx"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		buf.Bytes())
}

// --- invoices ------------------------------------------------------------

// GenerateFinalInvoice handles POST /api/v1/orders/:id/invoice
func (h *Handlers) GenerateFinalInvoice(c *gin.Context) {
	id, valid := paramID(c, "id")
	if !valid {
		return
	}
	inv, err := h.docs.GenerateFinalInvoice(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusCreated, inv)
}

// GeneratePaymentReceipt handles POST /api/v1/orders/:id/payments/:paymentID/receipt
func (h *Handlers) GeneratePaymentReceipt(c *gin.Context) {
	id, valid := paramID(c, "id")
	if !valid {
		return
	}
	paymentID, valid := paramID(c, "paymentID")
	if !valid {
		return
	}
	inv, err := h.docs.GeneratePaymentReceipt(c.Request.Context(), id, paymentID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusCreated, inv)
}

// GetInvoice handles GET /api/v1/invoices/:id
func (h *Handlers) GetInvoice(c *gin.Context) {
	id, valid := paramID(c, "id")
	if !valid {
		return
	}
	inv, err := h.docs.GetInvoice(id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, inv)
}

// GetInvoicePDF handles GET /api/v1/invoices/:id/pdf
func (h *Handlers) GetInvoicePDF(c *gin.Context) {
	id, valid := paramID(c, "id")
	if !valid {
		return
	}
	inv, content, err := h.docs.GetPDF(id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	filename := strings.ReplaceAll(inv.Number, "/", "_") + ".pdf"
	c.Header("Content-Disposition", `inline; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", content)
}
