package auth

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts /auth. limit guards register and login; requireAuth guards /me.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler, limit gin.HandlerFunc, requireAuth gin.HandlerFunc) {
	auth := router.Group("/auth")
	{
		auth.POST("/register", limit, handler.Register)
		auth.POST("/login", limit, handler.Login)
		auth.GET("/me", requireAuth, handler.Me)
	}
}
