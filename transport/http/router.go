package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/walletauth/service"
	"go.uber.org/zap"
)

// SetupRouter sets up the Gin router
func SetupRouter(authService *service.AuthService, addressService *service.AddressService, log *zap.Logger) *gin.Engine {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("http")

	router := gin.New()
	router.Use(RequestLogger(log), gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Create handlers
	auth := NewAuthHandlers(authService, log)
	addresses := NewAddressHandlers(addressService, log)
	requireIdentity := AuthMiddleware(authService, log)

	v1 := router.Group("/api/v1")

	// User routes
	users := v1.Group("/users")
	{
		users.POST("/nonce", auth.Nonce)
		users.POST("/create-jwt", auth.Login)
		users.POST("/refresh-jwt", auth.Refresh)
		users.GET("/me", requireIdentity, auth.Me)
	}

	// Protected address routes
	addr := v1.Group("/addresses")
	addr.Use(requireIdentity)
	{
		addr.GET("", addresses.List)
		addr.POST("", addresses.Create)
		addr.PUT("/:id", addresses.Update)
		addr.DELETE("/:id", addresses.Delete)
	}

	return router
}
