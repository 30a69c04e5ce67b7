package tempfile

import "github.com/gin-gonic/gin"

// RegisterRoutes registers the upload staging endpoints.
func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	files := r.Group("/files")
	{
		files.POST("/process", handler.Process)
		files.DELETE("/revert", handler.Revert)
		files.GET("/load/:id", handler.Load)
		files.GET("/restore/:id", handler.Load)
		files.DELETE("/remove/:id", handler.Remove)
	}
}
