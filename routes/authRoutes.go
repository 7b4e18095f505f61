package routes

import (
	"citycare-be/controllers"
	"citycare-be/middlewares"

	"github.com/gin-gonic/gin"
)

// AuthRoutes sets up the authentication routes
func AuthRoutes(r *gin.RouterGroup, h *controllers.AuthController) {
	auth := r.Group("/auth")
	{
		auth.POST("/signup", h.Signup)
		auth.POST("/verify-otp", h.VerifyOTP)
		auth.POST("/login", h.Login)
		auth.GET("/me", middlewares.RequireAuth(), h.Me)
	}
}
