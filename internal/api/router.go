package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Legalistas/brixar-sub002/internal/api/handlers"
	"github.com/Legalistas/brixar-sub002/internal/api/middleware"
	"github.com/Legalistas/brixar-sub002/internal/config"
	"github.com/Legalistas/brixar-sub002/internal/models"
	"github.com/Legalistas/brixar-sub002/internal/services"
	"github.com/Legalistas/brixar-sub002/internal/storage"
)

// authAttemptsPerMinute bounds register and login calls per client.
const authAttemptsPerMinute = 10

var (
	ledgerReadRoles  = []models.Role{models.RoleAdmin, models.RoleBuilders, models.RoleInvestors}
	ledgerWriteRoles = []models.Role{models.RoleAdmin, models.RoleBuilders}
)

// SetupRouter configures and returns the main Gin engine.
// documentStorage may be nil, in which case upload URLs answer 503.
func SetupRouter(cfg *config.Config, gormDB *gorm.DB, taskClient handlers.IAsynqClient, currencyService services.ICurrencyService, documentStorage storage.IS3Storage) *gin.Engine {
	userService := services.NewUserService(gormDB)
	inquiryService := services.NewInquiryService(gormDB)
	saleService := services.NewSaleService(gormDB)
	ledgerService := services.NewLedgerService(gormDB)
	propertyService := services.NewPropertyService(gormDB)
	projectService := services.NewProjectService(gormDB)

	r := gin.Default()

	rateLimiter := middleware.NewRateLimiterMiddleware(cfg)
	authLimiter := middleware.NewStrictRateLimiter(authAttemptsPerMinute)

	r.Use(middleware.CORSMiddleware(cfg.CorsAllowedOrigins))
	r.Use(rateLimiter.Limit())

	authHandler := handlers.NewAuthHandler(cfg, userService)
	inquiryHandler := handlers.NewInquiryHandler(cfg, inquiryService, taskClient)
	saleHandler := handlers.NewSaleHandler(cfg, saleService, documentStorage, taskClient)
	currencyHandler := handlers.NewCurrencyHandler(currencyService)
	ledgerHandler := handlers.NewLedgerHandler(ledgerService)
	catalogHandler := handlers.NewCatalogHandler(propertyService, projectService)

	requireAuth := middleware.AuthMiddleware(cfg.JwtSecret)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)
	staffOnly := middleware.RequireRoles(services.StaffRoles...)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/ping", func(c *gin.Context) {
			c.String(http.StatusOK, "pong")
		})

		authGroup := apiGroup.Group("/auth", authLimiter.Limit())
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}

		// Public reads
		apiGroup.GET("/currencies", currencyHandler.ListCurrencies)
		apiGroup.GET("/currencies/usd", currencyHandler.GetDollarRate)
		apiGroup.GET("/currencies/:code", currencyHandler.GetCurrency)
		apiGroup.GET("/properties/:id", catalogHandler.GetProperty)
		apiGroup.GET("/projects/:slug", catalogHandler.GetProject)

		authed := apiGroup.Group("/", requireAuth)

		currencies := authed.Group("/currencies", adminOnly)
		{
			currencies.POST("", currencyHandler.CreateCurrency)
			currencies.PUT("", currencyHandler.UpdateCurrencyByBody)
			currencies.PUT("/:code", currencyHandler.UpdateCurrency)
			currencies.POST("/update-dollar", currencyHandler.UpdateDollarRate)
			currencies.POST("/refresh", currencyHandler.RefreshRates)
		}

		authed.POST("/properties", staffOnly, catalogHandler.CreateProperty)
		authed.POST("/projects", adminOnly, catalogHandler.CreateProject)

		inquiries := authed.Group("/inquiries")
		{
			inquiries.POST("", inquiryHandler.CreateInquiry)
			inquiries.GET("", inquiryHandler.ListInquiries)
			inquiries.GET("/property/:propertyId", adminOnly, inquiryHandler.ListInquiriesByProperty)
			inquiries.GET("/:id", inquiryHandler.GetInquiry)
			inquiries.PUT("/:id", inquiryHandler.UpdateInquiry)
			inquiries.DELETE("/:id", inquiryHandler.DeleteInquiry)
			inquiries.GET("/:id/messages", inquiryHandler.ListMessages)
			inquiries.POST("/:id/messages", inquiryHandler.PostMessage)
			inquiries.POST("/:id/accept/admin", adminOnly, inquiryHandler.AcceptAsAdmin)
			inquiries.POST("/:id/accept/client", inquiryHandler.AcceptAsClient)
			inquiries.POST("/:id/complete-transaction", staffOnly, inquiryHandler.CompleteTransaction)
			inquiries.POST("/:id/complete", staffOnly, inquiryHandler.CompleteTransaction)
		}

		sales := authed.Group("/sales")
		{
			sales.GET("", saleHandler.ListSales)
			sales.POST("", staffOnly, saleHandler.CreateSale)
			sales.GET("/admin", adminOnly, saleHandler.ListSalesAdmin)
			sales.GET("/user", saleHandler.ListMySales)
			sales.GET("/:id", saleHandler.GetSale)
			sales.PATCH("/:id", staffOnly, saleHandler.UpdateSale)
			sales.GET("/:id/transactions", saleHandler.ListTransactions)
			sales.POST("/:id/transactions", staffOnly, saleHandler.AddTransaction)
			sales.POST("/:id/documents", staffOnly, saleHandler.AddDocument)
			sales.POST("/:id/documents/upload-url", staffOnly, saleHandler.CreateUploadURL)
		}

		readLedger := middleware.RequireRoles(ledgerReadRoles...)
		writeLedger := middleware.RequireRoles(ledgerWriteRoles...)

		costs := authed.Group("/costs")
		{
			costs.GET("", readLedger, ledgerHandler.ListCosts)
			costs.GET("/proyecto/:slug", readLedger, ledgerHandler.ListCosts)
			costs.GET("/:id", readLedger, ledgerHandler.GetCost)
			costs.POST("", writeLedger, ledgerHandler.CreateCost)
			costs.PUT("/:id", writeLedger, ledgerHandler.UpdateCost)
			costs.DELETE("/:id", writeLedger, ledgerHandler.DeleteCost)
		}

		compensations := authed.Group("/compensations")
		{
			compensations.GET("", readLedger, ledgerHandler.ListCompensations)
			compensations.GET("/proyecto/:slug", readLedger, ledgerHandler.ListCompensations)
			compensations.GET("/:id", readLedger, ledgerHandler.GetCompensation)
			compensations.POST("", writeLedger, ledgerHandler.CreateCompensation)
			compensations.PUT("/:id", writeLedger, ledgerHandler.UpdateCompensation)
			compensations.DELETE("/:id", writeLedger, ledgerHandler.DeleteCompensation)
		}
	}

	return r
}

// SetupServiceRouter configures the internal service engine used by operators and deploy scripts.
// It must never be exposed publicly.
func SetupServiceRouter(currencyService services.ICurrencyService, shutdownChan chan<- struct{}) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	logger := config.GetLogger()

	r.POST("/api", func(c *gin.Context) {
		var req struct {
			Method    string          `json:"method"`
			Arguments json.RawMessage `json:"arguments"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request format"})
			return
		}

		switch req.Method {
		case "shutdown":
			logger.Info("Received shutdown command via Service API")
			c.JSON(http.StatusOK, gin.H{"success": true, "result": "Shutdown initiated"})
			select {
			case shutdownChan <- struct{}{}:
			default:
				logger.Warn("Shutdown channel already signaled")
			}
		case "refreshRates":
			summary, err := currencyService.RefreshAllRates(c.Request.Context())
			if err != nil {
				config.LogError(logger, "api", "SetupServiceRouter", "refreshRates", nil, err)
				c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, gin.H{"success": true, "result": summary})
		default:
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": fmt.Sprintf("Unknown service method: %s", req.Method)})
		}
	})
	return r
}
