package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/Legalistas/brixar-sub002/internal/services"
)

// dollarQuoteCode is the currency whose stored rate is the peso price of one dollar.
const dollarQuoteCode = "ARS"

type CurrencyHandler struct {
	currencyService services.ICurrencyService
}

func NewCurrencyHandler(currencyService services.ICurrencyService) *CurrencyHandler {
	return &CurrencyHandler{currencyService: currencyService}
}

type CreateCurrencyRequest struct {
	Code     string           `json:"code" binding:"required"`
	Name     string           `json:"name" binding:"required"`
	Rate     *decimal.Decimal `json:"rate" binding:"required"`
	Symbol   string           `json:"symbol"`
	FlagCode string           `json:"flagCode"`
	ApiURL   *string          `json:"apiUrl"`
}

type UpdateCurrencyRequest struct {
	Name     *string          `json:"name"`
	Rate     *decimal.Decimal `json:"rate"`
	Symbol   *string          `json:"symbol"`
	FlagCode *string          `json:"flagCode"`
	ApiURL   *string          `json:"apiUrl"`
}

type UpdateCurrencyByBodyRequest struct {
	Code string `json:"code" binding:"required"`
	UpdateCurrencyRequest
}

// ListCurrencies handles GET /currencies.
func (h *CurrencyHandler) ListCurrencies(c *gin.Context) {
	currencies, err := h.currencyService.ListCurrencies(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, currencies)
}

// GetCurrency handles GET /currencies/:code.
func (h *CurrencyHandler) GetCurrency(c *gin.Context) {
	currency, err := h.currencyService.GetCurrency(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, currency)
}

// CreateCurrency handles POST /currencies.
func (h *CurrencyHandler) CreateCurrency(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req CreateCurrencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	currency, err := h.currencyService.CreateCurrency(c.Request.Context(), p, services.CurrencyInput{
		Code:     req.Code,
		Name:     req.Name,
		Rate:     *req.Rate,
		Symbol:   req.Symbol,
		FlagCode: req.FlagCode,
		ApiURL:   req.ApiURL,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, currency)
}

// UpdateCurrency handles PUT /currencies/:code.
func (h *CurrencyHandler) UpdateCurrency(c *gin.Context) {
	var req UpdateCurrencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	h.updateCurrency(c, c.Param("code"), req)
}

// UpdateCurrencyByBody handles PUT /currencies, with the code in the body.
func (h *CurrencyHandler) UpdateCurrencyByBody(c *gin.Context) {
	var req UpdateCurrencyByBodyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	h.updateCurrency(c, req.Code, req.UpdateCurrencyRequest)
}

func (h *CurrencyHandler) updateCurrency(c *gin.Context, code string, req UpdateCurrencyRequest) {
	p, ok := principal(c)
	if !ok {
		return
	}
	currency, err := h.currencyService.UpdateCurrency(c.Request.Context(), p, code, services.CurrencyPatch{
		Name:     req.Name,
		Rate:     req.Rate,
		Symbol:   req.Symbol,
		FlagCode: req.FlagCode,
		ApiURL:   req.ApiURL,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, currency)
}

// UpdateDollarRate handles POST /currencies/update-dollar.
func (h *CurrencyHandler) UpdateDollarRate(c *gin.Context) {
	currency, err := h.currencyService.UpdateDollarRate(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, currency)
}

// RefreshRates handles POST /currencies/refresh.
func (h *CurrencyHandler) RefreshRates(c *gin.Context) {
	summary, err := h.currencyService.RefreshAllRates(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetDollarRate handles GET /currencies/usd.
func (h *CurrencyHandler) GetDollarRate(c *gin.Context) {
	view, err := h.currencyService.GetRate(c.Request.Context(), dollarQuoteCode)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
