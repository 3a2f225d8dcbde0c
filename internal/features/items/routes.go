package items

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts /items. requireAuth guards everything except the public lists.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler, requireAuth gin.HandlerFunc) {
	items := router.Group("/items")
	{
		items.GET("/verified", handler.Verified)
		items.GET("/all-lost", handler.AllLost)
		items.GET("/all-found", handler.AllFound)
	}

	owned := items.Group("")
	owned.Use(requireAuth)
	{
		owned.POST("/lost", handler.ReportLost)
		owned.POST("/found", handler.ReportFound)
		owned.GET("/lost", handler.ListLost)
		owned.GET("/found", handler.ListFound)
		owned.PUT("/lost/:id", handler.UpdateLost)
		owned.PUT("/found/:id", handler.UpdateFound)
		owned.DELETE("/lost/:id", handler.DeleteLost)
		owned.DELETE("/found/:id", handler.DeleteFound)

		owned.GET("/matches", handler.Matches)
		owned.GET("/dashboard", handler.Dashboard)
		owned.PUT("/verify/:id", handler.Verify)
		// identity only; any authenticated user may reject
		owned.PUT("/reject/:id", handler.Reject)
	}
}
