// internal/api/api.go
package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/andresuchdata/pirs/internal/api/handlers"
	"github.com/andresuchdata/pirs/internal/api/middleware"
	"github.com/andresuchdata/pirs/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Services struct {
	Inventory *service.InventoryService
	Dispatch  *service.DispatchService
	Audit     *service.AuditService
	Safety    *service.SafetyService
	DB        Pinger
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", healthHandler(services))

	apiGroup := router.Group("/api/v1")
	if services == nil {
		return router
	}

	if services.Inventory != nil {
		inventoryHandler := handlers.NewInventoryHandler(services.Inventory)
		apiGroup.GET("/priority/top", inventoryHandler.GetTopPriority)
		apiGroup.GET("/reorder", inventoryHandler.GetReorder)
		apiGroup.GET("/dashboard/summary", inventoryHandler.GetSummary)

		inventoryGroup := apiGroup.Group("/inventory")
		{
			inventoryGroup.GET("/stability", inventoryHandler.GetStability)
			inventoryGroup.GET("/bst-filter", inventoryHandler.GetBSTFilter)
		}

		productGroup := apiGroup.Group("/products")
		{
			productGroup.POST("", inventoryHandler.CreateProduct)
			productGroup.PUT("/:sku/stock", inventoryHandler.UpdateStock)
			productGroup.DELETE("/:sku", inventoryHandler.DeleteProduct)
		}

		apiGroup.GET("/debug/heap-state", inventoryHandler.GetHeapState)
		apiGroup.GET("/debug/bst-structure", inventoryHandler.GetBSTStructure)
	}

	if services.Dispatch != nil {
		shippingHandler := handlers.NewShippingHandler(services.Dispatch)
		orderGroup := apiGroup.Group("/orders")
		{
			orderGroup.POST("", shippingHandler.CreateOrder)
			orderGroup.GET("/history", shippingHandler.GetHistory)
			orderGroup.POST("/:id/dispatch", shippingHandler.Dispatch)
			orderGroup.POST("/:id/partial-dispatch", shippingHandler.PartialDispatch)
			orderGroup.POST("/:id/block", shippingHandler.Block)
			orderGroup.DELETE("/:id", shippingHandler.Cancel)
		}

		shippingGroup := apiGroup.Group("/shipping")
		{
			shippingGroup.GET("/queue", shippingHandler.GetQueue)
			shippingGroup.GET("/dashboard", shippingHandler.GetDashboard)
			shippingGroup.POST("/reconcile", shippingHandler.Reconcile)
		}

		apiGroup.GET("/debug/shipping-heap-state", shippingHandler.GetHeapState)
	}

	if services.Audit != nil {
		auditHandler := handlers.NewAuditHandler(services.Audit)
		apiGroup.GET("/audit/next", auditHandler.GetNext)
		apiGroup.GET("/debug/circular-list-state", auditHandler.GetState)
	}

	if services.Safety != nil {
		safetyHandler := handlers.NewSafetyHandler(services.Safety)
		safetyGroup := apiGroup.Group("/safety/lots")
		{
			safetyGroup.GET("", safetyHandler.ListLots)
			safetyGroup.POST("", safetyHandler.BlockLot)
			safetyGroup.GET("/:lot", safetyHandler.CheckLot)
		}
		apiGroup.GET("/debug/hashset-state", safetyHandler.GetHashSetState)
	}

	return router
}

func healthHandler(services *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		if services != nil && services.DB != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := services.DB.PingContext(ctx); err != nil {
				log.Error().Err(err).Msg("health: database unreachable")
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "pirs"})
	}
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
