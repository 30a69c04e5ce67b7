package submission

import "github.com/gin-gonic/gin"

// RegisterRoutes registers the public submission endpoints.
func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	subs := r.Group("/submissions")
	{
		subs.POST("", handler.Create)
		subs.GET("/verify", handler.Verify)
		subs.POST("/send", handler.Send)
	}
}
