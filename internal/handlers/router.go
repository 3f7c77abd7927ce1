package handlers

import (
	"net/http"
	"time"

	"go-pos-inventory/internal/idempotency"
	"go-pos-inventory/internal/metrics"
	"go-pos-inventory/internal/middleware"
	"go-pos-inventory/internal/models"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type RouterConfig struct {
	CORSOrigins []string
	Metrics     *metrics.ServerMetrics // nil disables /metrics
}

// Router wires middleware and every route.
func (h *Handler) Router(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger(h.logger))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}

	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", idempotency.Header, middleware.HeaderRequestID},
			ExposeHeaders:    []string{"Content-Length", "Content-Disposition", middleware.HeaderRequestID},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.GET("/health", h.Health)
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics.Handler()))
	}
	r.POST("/login", h.Login)
	r.Static("/uploads", h.opts.UploadDir)

	// --- FEATURE FLAG: open registration ---
	if h.opts.AllowRegistration {
		r.POST("/register", h.Register)
		h.logger.Warn("Registration route is OPEN. Disable this in production!")
	}

	// --- PROTECTED ROUTES ---
	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware(h.tokens))
	{
		// STAFF & ADMIN
		api.GET("/me", h.Me)
		api.GET("/products", h.GetProducts)
		api.GET("/products/:id", h.GetProduct)
		api.GET("/products/scan/:barcode", h.ScanProduct)
		api.GET("/categories", h.GetCategories)
		api.POST("/checkout", h.ProcessSale)
		api.GET("/transactions", h.GetTransactions)
		api.GET("/transactions/:number", h.GetTransaction)

		// ADMIN ONLY
		admin := api.Group("")
		admin.Use(middleware.RequireRole(models.RoleAdmin))
		{
			admin.POST("/products", h.AddProduct)
			admin.PUT("/products/:id", h.UpdateProduct)
			admin.DELETE("/products/:id", h.DeleteProduct)
			admin.POST("/products/:id/stock", h.AdjustStock)
			admin.POST("/barcodes", h.GenerateBarcode)
			admin.POST("/upload", h.UploadImage)
			admin.POST("/users", h.CreateUser)

			admin.GET("/reports/sales", h.GetSalesReport)
			admin.GET("/reports/inventory", h.GetInventoryReport)
			admin.GET("/reports/valuation", h.GetStockValuation)
			admin.GET("/reports/transactions.xlsx", h.ExportTransactions)

			admin.GET("/activity", h.GetActivity)
			admin.DELETE("/activity", h.ClearActivity)

			admin.POST("/ask", h.AskAI)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
	})
	return r
}
