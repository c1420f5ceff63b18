package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"

	"github.com/Legalistas/brixar-sub002/internal/config"
	"github.com/Legalistas/brixar-sub002/internal/models"
	"github.com/Legalistas/brixar-sub002/internal/services"
	"github.com/Legalistas/brixar-sub002/internal/tasks"
)

// InquiryHandler serves the negotiation threads, acceptance and sale conversion.
type InquiryHandler struct {
	cfg            *config.Config
	inquiryService services.IInquiryService
	taskClient     IAsynqClient
}

func NewInquiryHandler(cfg *config.Config, inquiryService services.IInquiryService, taskClient IAsynqClient) *InquiryHandler {
	return &InquiryHandler{cfg: cfg, inquiryService: inquiryService, taskClient: taskClient}
}

type CreateInquiryRequest struct {
	PropertyID   uint             `json:"propertyId" binding:"required"`
	Title        string           `json:"title" binding:"required"`
	Message      string           `json:"message"`
	OfferedPrice *decimal.Decimal `json:"offeredPrice"`
}

type UpdateInquiryRequest struct {
	Status          *models.InquiryStatus `json:"status"`
	NegotiatedPrice *decimal.Decimal      `json:"negotiatedPrice"`
	OfferedPrice    *decimal.Decimal      `json:"offeredPrice"`
}

type PostMessageRequest struct {
	Message string `json:"message" binding:"required"`
}

type CompleteTransactionRequest struct {
	PropertyID *uint            `json:"propertyId"`
	Price      *decimal.Decimal `json:"price"`
	BuyerID    *uint            `json:"buyerId"`
}

// CreateInquiry handles POST /inquiries.
func (h *InquiryHandler) CreateInquiry(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req CreateInquiryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	inquiry, err := h.inquiryService.CreateInquiry(c.Request.Context(), p, services.CreateInquiryInput{
		PropertyID:   req.PropertyID,
		Title:        req.Title,
		Message:      req.Message,
		OfferedPrice: req.OfferedPrice,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, inquiry)
}

// ListInquiries handles GET /inquiries.
func (h *InquiryHandler) ListInquiries(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	inquiries, err := h.inquiryService.ListInquiries(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, inquiries)
}

// ListInquiriesByProperty handles GET /inquiries/property/:propertyId.
func (h *InquiryHandler) ListInquiriesByProperty(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	propertyID, ok := parseID(c, "propertyId")
	if !ok {
		return
	}
	inquiries, err := h.inquiryService.ListInquiriesByProperty(c.Request.Context(), p, propertyID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, inquiries)
}

// GetInquiry handles GET /inquiries/:id.
func (h *InquiryHandler) GetInquiry(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	inquiry, err := h.inquiryService.GetInquiry(c.Request.Context(), p, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, inquiry)
}

// UpdateInquiry handles PUT /inquiries/:id.
func (h *InquiryHandler) UpdateInquiry(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req UpdateInquiryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	inquiry, err := h.inquiryService.UpdateInquiry(c.Request.Context(), p, id, services.InquiryPatch{
		Status:          req.Status,
		NegotiatedPrice: req.NegotiatedPrice,
		OfferedPrice:    req.OfferedPrice,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, inquiry)
}

// DeleteInquiry handles DELETE /inquiries/:id.
func (h *InquiryHandler) DeleteInquiry(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.inquiryService.DeleteInquiry(c.Request.Context(), p, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Inquiry deleted"})
}

// ListMessages handles GET /inquiries/:id/messages.
func (h *InquiryHandler) ListMessages(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	messages, err := h.inquiryService.ListMessages(c.Request.Context(), p, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

// PostMessage handles POST /inquiries/:id/messages.
func (h *InquiryHandler) PostMessage(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	msg, err := h.inquiryService.PostMessage(c.Request.Context(), p, id, req.Message)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// AcceptAsAdmin handles POST /inquiries/:id/accept/admin.
func (h *InquiryHandler) AcceptAsAdmin(c *gin.Context) {
	h.accept(c, true)
}

// AcceptAsClient handles POST /inquiries/:id/accept/client.
func (h *InquiryHandler) AcceptAsClient(c *gin.Context) {
	h.accept(c, false)
}

func (h *InquiryHandler) accept(c *gin.Context, asAdmin bool) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var (
		inquiry *models.Inquiry
		flipped bool
		err     error
	)
	if asAdmin {
		inquiry, flipped, err = h.inquiryService.AcceptAsAdmin(c.Request.Context(), p, id)
	} else {
		inquiry, flipped, err = h.inquiryService.AcceptAsClient(c.Request.Context(), p, id)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	if flipped {
		enqueue(c, h.taskClient, func() (*asynq.Task, error) {
			return tasks.NewOfferAcceptedEmailTask(h.cfg, inquiry, asAdmin)
		})
	}
	c.JSON(http.StatusOK, inquiry)
}

// CompleteTransaction handles POST /inquiries/:id/complete-transaction and its alias /complete.
func (h *InquiryHandler) CompleteTransaction(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	// The body is optional.
	var req CompleteTransactionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			respondBindError(c, err)
			return
		}
	}
	sale, err := h.inquiryService.CompleteTransaction(c.Request.Context(), p, id, services.CompleteTransactionInput{
		PropertyID: req.PropertyID,
		Price:      req.Price,
		BuyerID:    req.BuyerID,
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
