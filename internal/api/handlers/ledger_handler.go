package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/Legalistas/brixar-sub002/internal/services"
)

// LedgerHandler serves /costs and /compensations.
type LedgerHandler struct {
	ledgerService services.ILedgerService
}

func NewLedgerHandler(ledgerService services.ILedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerService: ledgerService}
}

// LedgerEntryRequest accepts dates as YYYY-MM-DD or RFC 3339.
type LedgerEntryRequest struct {
	ProjectID     uint             `json:"projectId" binding:"required"`
	Date          string           `json:"date" binding:"required"`
	Category      string           `json:"category" binding:"required"`
	Description   string           `json:"description"`
	AmountPesos   *decimal.Decimal `json:"amountPesos" binding:"required"`
	DollarRate    *decimal.Decimal `json:"dollarRate" binding:"required"`
	AmountDollars *decimal.Decimal `json:"amountDollars" binding:"required"`
	InvestorID    *uint            `json:"investorId"`
}

func parseLedgerDate(raw string) (time.Time, bool) {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// bindLedgerInput answers 400 itself when the body is unusable.
func bindLedgerInput(c *gin.Context) (services.LedgerInput, bool) {
	var req LedgerEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return services.LedgerInput{}, false
	}
	date, ok := parseLedgerDate(req.Date)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date, expected YYYY-MM-DD"})
		return services.LedgerInput{}, false
	}
	return services.LedgerInput{
		ProjectID:     req.ProjectID,
		Date:          date,
		Category:      req.Category,
		Description:   req.Description,
		AmountPesos:   *req.AmountPesos,
		DollarRate:    *req.DollarRate,
		AmountDollars: *req.AmountDollars,
		InvestorID:    req.InvestorID,
	}, true
}

func (h *LedgerHandler) ListCosts(c *gin.Context) {
	report, err := h.ledgerService.ListCosts(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *LedgerHandler) GetCost(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	cost, err := h.ledgerService.GetCost(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cost)
}

func (h *LedgerHandler) CreateCost(c *gin.Context) {
	in, ok := bindLedgerInput(c)
	if !ok {
		return
	}
	cost, err := h.ledgerService.CreateCost(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cost)
}

func (h *LedgerHandler) UpdateCost(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	in, ok := bindLedgerInput(c)
	if !ok {
		return
	}
	cost, err := h.ledgerService.UpdateCost(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cost)
}

func (h *LedgerHandler) DeleteCost(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.ledgerService.DeleteCost(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cost deleted"})
}

func (h *LedgerHandler) ListCompensations(c *gin.Context) {
	report, err := h.ledgerService.ListCompensations(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *LedgerHandler) GetCompensation(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	comp, err := h.ledgerService.GetCompensation(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comp)
}

func (h *LedgerHandler) CreateCompensation(c *gin.Context) {
	in, ok := bindLedgerInput(c)
	if !ok {
		return
	}
	comp, err := h.ledgerService.CreateCompensation(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comp)
}

func (h *LedgerHandler) UpdateCompensation(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	in, ok := bindLedgerInput(c)
	if !ok {
		return
	}
	comp, err := h.ledgerService.UpdateCompensation(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comp)
}

func (h *LedgerHandler) DeleteCompensation(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.ledgerService.DeleteCompensation(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Compensation deleted"})
}
