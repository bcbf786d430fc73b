// Package http is the thin HTTP adapter: it validates input, calls the
// order/document services, and maps domain errors to status codes. No
// business rules live here.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	handlers   *Handlers
	logger     *zap.Logger
}

// NewServer creates a new HTTP server around the given handlers
func NewServer(config ServerConfig, handlers *Handlers, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	s := &Server{
		config:   config,
		router:   router,
		handlers: handlers,
		logger:   logger,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
	s.router.Use(corsMiddleware())
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handlers.HealthCheck)

	api := s.router.Group("/api/v1")
	{
		api.POST("/clients", s.handlers.CreateClient)
		api.GET("/clients", s.handlers.ListClients)
		api.GET("/clients/:id", s.handlers.GetClient)
		api.PUT("/clients/:id", s.handlers.UpdateClient)
		api.DELETE("/clients/:id", s.handlers.DeleteClient)

		api.POST("/orders", s.handlers.CreateOrder)
		api.GET("/orders", s.handlers.ListOrders)
		api.GET("/orders/:id", s.handlers.GetOrder)
		api.DELETE("/orders/:id", s.handlers.DeleteOrder)
		api.POST("/orders/:id/items", s.handlers.AddLineItem)
		api.DELETE("/orders/:id/items/:itemID", s.handlers.RemoveLineItem)

		api.POST("/orders/:id/payments", s.handlers.RecordPayment)
		api.POST("/orders/:id/payments/:paymentID/void", s.handlers.VoidPayment)
		api.GET("/orders/:id/ledger/export", s.handlers.ExportLedger)

		api.POST("/orders/:id/invoice", s.handlers.GenerateFinalInvoice)
		api.POST("/orders/:id/payments/:paymentID/receipt", s.handlers.GeneratePaymentReceipt)
		api.GET("/invoices/:id", s.handlers.GetInvoice)
		api.GET("/invoices/:id/pdf", s.handlers.GetInvoicePDF)
	}
}

// Start begins listening; it blocks until the server stops.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.config.Host, s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}
	s.logger.Info("HTTP server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Router exposes the gin engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		s.logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
