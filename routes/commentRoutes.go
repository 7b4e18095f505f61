package routes

import (
	"citycare-be/controllers"
	"citycare-be/middlewares"

	"github.com/gin-gonic/gin"
)

func CommentRoutes(r *gin.RouterGroup, h *controllers.CommentController) {
	comments := r.Group("/comments")
	{
		comments.GET("/:issueId", h.GetComments)
		comments.POST("/:issueId", middlewares.RequireAuth(), h.CreateComment)
	}
}

func AdminRoutes(r *gin.RouterGroup, h *controllers.AdminController) {
	admin := r.Group("/admin", middlewares.RequireAdmin())
	{
		admin.GET("/stats", h.GetDashboardStats)
	}
}
