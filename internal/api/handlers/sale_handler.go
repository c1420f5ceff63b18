package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"

	"github.com/Legalistas/brixar-sub002/internal/config"
	"github.com/Legalistas/brixar-sub002/internal/models"
	"github.com/Legalistas/brixar-sub002/internal/services"
	"github.com/Legalistas/brixar-sub002/internal/storage"
	"github.com/Legalistas/brixar-sub002/internal/tasks"
)

// SaleHandler serves the sale lifecycle endpoints.
type SaleHandler struct {
	cfg         *config.Config
	saleService services.ISaleService
	storage     storage.IS3Storage
	taskClient  IAsynqClient
}

// NewSaleHandler wires the handler; documentStorage may be nil when no bucket is configured.
func NewSaleHandler(cfg *config.Config, saleService services.ISaleService, documentStorage storage.IS3Storage, taskClient IAsynqClient) *SaleHandler {
	return &SaleHandler{cfg: cfg, saleService: saleService, storage: documentStorage, taskClient: taskClient}
}

type CreateSaleRequest struct {
	PropertyID    uint             `json:"propertyId" binding:"required"`
	BuyerID       uint             `json:"buyerId" binding:"required"`
	Price         *decimal.Decimal `json:"price" binding:"required"`
	PaymentMethod string           `json:"paymentMethod"`
	Notes         string           `json:"notes"`
}

type UpdateSaleRequest struct {
	Status           *models.SaleStatus `json:"status"`
	Notes            *string            `json:"notes"`
	PaymentMethod    *string            `json:"paymentMethod"`
	PaymentReference *string            `json:"paymentReference"`
}

type AddDocumentRequest struct {
	Name string `json:"name" binding:"required"`
	Type string `json:"type"`
	URL  string `json:"url" binding:"required"`
}

type AddTransactionRequest struct {
	Amount        *decimal.Decimal         `json:"amount" binding:"required"`
	Type          models.TransactionType   `json:"type" binding:"required"`
	Status        models.TransactionStatus `json:"status"`
	PaymentMethod string                   `json:"paymentMethod"`
	Reference     string                   `json:"reference"`
	Notes         string                   `json:"notes"`
}

type UploadURLRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"contentType"`
}

// CreateSale handles POST /sales.
func (h *SaleHandler) CreateSale(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req CreateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	sale, err := h.saleService.CreateSale(c.Request.Context(), p, services.CreateSaleInput{
		PropertyID:    req.PropertyID,
		BuyerID:       req.BuyerID,
		Price:         *req.Price,
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	enqueue(c, h.taskClient, func() (*asynq.Task, error) {
		return tasks.NewSaleCreatedEmailTask(h.cfg, sale)
	})
	c.JSON(http.StatusCreated, sale)
}

// ListSales handles GET /sales with an optional ?status filter.
func (h *SaleHandler) ListSales(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var status *models.SaleStatus
	if raw := c.Query("status"); raw != "" {
		s := models.SaleStatus(raw)
		if !s.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status filter"})
			return
		}
		status = &s
	}
	sales, err := h.saleService.ListSales(c.Request.Context(), p, status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sales)
}

// ListSalesAdmin handles GET /sales/admin.
func (h *SaleHandler) ListSalesAdmin(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	sales, err := h.saleService.ListSalesAdmin(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sales)
}

// ListMySales handles GET /sales/user.
func (h *SaleHandler) ListMySales(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	sales, err := h.saleService.ListSalesForBuyer(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sales)
}

// GetSale handles GET /sales/:id.
func (h *SaleHandler) GetSale(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	sale, err := h.saleService.GetSale(c.Request.Context(), p, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sale)
}

// UpdateSale handles PATCH /sales/:id.
func (h *SaleHandler) UpdateSale(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req UpdateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	sale, err := h.saleService.UpdateSale(c.Request.Context(), p, id, services.SalePatch{
		Status:           req.Status,
		Notes:            req.Notes,
		PaymentMethod:    req.PaymentMethod,
		PaymentReference: req.PaymentReference,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sale)
}

// AddDocument handles POST /sales/:id/documents.
func (h *SaleHandler) AddDocument(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req AddDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	sale, err := h.saleService.AddDocument(c.Request.Context(), p, id, services.AddDocumentInput{
		Name: req.Name,
		Type: req.Type,
		URL:  req.URL,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sale)
}

// CreateUploadURL handles POST /sales/:id/documents/upload-url.
func (h *SaleHandler) CreateUploadURL(c *gin.Context) {
	if h.storage == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": storage.ErrNotConfigured.Error()})
		return
	}
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req UploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if _, err := h.saleService.GetSale(c.Request.Context(), p, id); err != nil {
		respondError(c, err)
		return
	}
	upload, err := h.storage.PresignSaleDocument(c.Request.Context(), id, req.Filename, req.ContentType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, upload)
}

// AddTransaction handles POST /sales/:id/transactions.
func (h *SaleHandler) AddTransaction(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req AddTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	txn, err := h.saleService.AddTransaction(c.Request.Context(), p, id, services.AddTransactionInput{
		Amount:        *req.Amount,
		Type:          req.Type,
		Status:        req.Status,
		PaymentMethod: req.PaymentMethod,
		Reference:     req.Reference,
		Notes:         req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, txn)
}

// ListTransactions handles GET /sales/:id/transactions.
func (h *SaleHandler) ListTransactions(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	txns, err := h.saleService.ListTransactions(c.Request.Context(), p, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, txns)
}
