package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/Legalistas/brixar-sub002/internal/services"
)

// CatalogHandler exposes the minimal property and project surface.
type CatalogHandler struct {
	propertyService services.IPropertyService
	projectService  services.IProjectService
}

func NewCatalogHandler(propertyService services.IPropertyService, projectService services.IProjectService) *CatalogHandler {
	return &CatalogHandler{propertyService: propertyService, projectService: projectService}
}

type CreatePropertyRequest struct {
	Title        string           `json:"title" binding:"required"`
	Slug         string           `json:"slug"`
	Price        *decimal.Decimal `json:"price" binding:"required"`
	CurrencyCode string           `json:"currencyCode"`
}

type CreateProjectRequest struct {
	Name        string `json:"name" binding:"required"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

func (h *CatalogHandler) CreateProperty(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req CreatePropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	property, err := h.propertyService.CreateProperty(c.Request.Context(), p, services.CreatePropertyInput{
		Title:        req.Title,
		Slug:         req.Slug,
		Price:        *req.Price,
		CurrencyCode: req.CurrencyCode,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, property)
}

func (h *CatalogHandler) GetProperty(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	property, err := h.propertyService.GetProperty(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, property)
}

func (h *CatalogHandler) CreateProject(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	project, err := h.projectService.CreateProject(c.Request.Context(), p, req.Slug, req.Name, req.Description)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, project)
}

func (h *CatalogHandler) GetProject(c *gin.Context) {
	project, err := h.projectService.GetProjectBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}
