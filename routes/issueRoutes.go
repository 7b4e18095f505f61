package routes

import (
	"citycare-be/controllers"
	"citycare-be/middlewares"

	"github.com/gin-gonic/gin"
)

// IssueRoutes sets up the issue routes
func IssueRoutes(r *gin.RouterGroup, h *controllers.IssueController) {
	issues := r.Group("/issues")
	{
		issues.GET("", h.GetIssues)
		issues.POST("", middlewares.RequireAuth(), h.CreateIssue)
		issues.GET("/myissues", middlewares.RequireAuth(), h.GetMyIssues)
		issues.GET("/volunteer-requests", middlewares.RequireAdmin(), h.GetVolunteerRequests)
		issues.GET("/:id", h.GetIssue)
		issues.PUT("/:id/status", middlewares.RequireAdmin(), h.UpdateStatus)
		issues.PUT("/:id/feedback", middlewares.RequireAuth(), h.AddFeedback)
		issues.POST("/:id/volunteer", middlewares.RequireAuth(), h.RequestVolunteer)
		issues.PUT("/:id/volunteer/manage", middlewares.RequireAdmin(), h.ManageVolunteerRequest)
		issues.POST("/:id/update", middlewares.RequireAdmin(), h.AddAuthorityUpdate)
	}
}
