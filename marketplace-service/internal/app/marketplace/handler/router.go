package handler

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"stilnovo/pkg/logger"
	"stilnovo/pkg/metrics"
)

const serviceName = "marketplace-service"

// SetupRoutes настраивает все маршруты Marketplace Service с использованием Gin
func SetupRoutes(h *MarketplaceHandler, authMiddleware *AuthMiddleware, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(logger.GinLoggerMiddleware())
	router.Use(metrics.GinPrometheusMiddleware(serviceName))

	router.Use(cors.New(corsConfig(allowedOrigins)))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": serviceName,
		})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Рекомендации доступны и без токена (пустой список)
	router.GET("/recommendations", authMiddleware.OptionalAuthenticate(), h.GetRecommendations)

	// Отзывы о продавце публичны
	router.GET("/sellers/:id/ratings", h.GetSellerRatings)

	listings := router.Group("/listings/:id")
	listings.Use(authMiddleware.Authenticate())
	{
		listings.POST("/purchase", h.PurchaseListing)
		listings.POST("/interactions", h.RecordInteraction)
		listings.POST("/like", h.LikeListing)
	}

	transactions := router.Group("/transactions")
	transactions.Use(authMiddleware.Authenticate())
	{
		transactions.GET("", h.GetTransactions)
		transactions.GET("/pending-ratings", h.GetPendingRatings)
		transactions.GET("/:id", h.GetTransaction)
		transactions.POST("/:id/rating", h.SaveRating)
	}

	ratings := router.Group("/ratings")
	ratings.Use(authMiddleware.Authenticate())
	{
		ratings.GET("", h.GetMyRatings)
		ratings.PATCH("/:id", h.EditRating)
		ratings.DELETE("/:id", h.DeleteRating)
	}

	admin := router.Group("/admin")
	admin.Use(authMiddleware.Authenticate())
	admin.Use(authMiddleware.RequireRole("admin"))
	{
		admin.DELETE("/transactions/:id", h.DeleteTransaction)
		admin.GET("/stats", h.GetPlatformStats)
	}

	return router
}

// corsConfig: "*" или пустой список разрешают любой origin, но без credentials
func corsConfig(allowedOrigins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID"},
		MaxAge:        300 * time.Second,
	}

	if len(allowedOrigins) == 0 || slices.Contains(allowedOrigins, "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}

	cfg.AllowOrigins = allowedOrigins
	cfg.AllowCredentials = true
	return cfg
}
