package middlewares

import (
	"context"
	"net/http"
	"strings"

	"citycare-be/models"
	"citycare-be/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const userKey = "user"

// TokenParser returns the user id bound to a bearer token.
type TokenParser interface {
	Parse(token string) (string, error)
}

type UserFinder interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// Authenticate resolves the caller from the Authorization header. Requests
// without a header continue anonymously; a header that does not resolve to
// a stored user is rejected with 401.
func Authenticate(tokens TokenParser, users UserFinder, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || strings.TrimSpace(tokenString) == "" {
			unauthorized(c, "Not authorized, token failed")
			return
		}

		userID, err := tokens.Parse(strings.TrimSpace(tokenString))
		if err != nil {
			logger.Debug("token validation failed", zap.Error(err), zap.String("request_id", GetRequestID(c)))
			unauthorized(c, "Not authorized, token failed")
			return
		}
		id, err := utils.ParseObjectID(userID)
		if err != nil {
			unauthorized(c, "Not authorized, token failed")
			return
		}

		user, err := users.FindByID(c.Request.Context(), id)
		if err != nil {
			logger.Warn("token user lookup failed",
				zap.String("user_id", userID),
				zap.Error(err),
				zap.String("request_id", GetRequestID(c)),
			)
			unauthorized(c, "Not authorized, token failed")
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}

// RequireAuth rejects anonymous callers.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			unauthorized(c, "Not authorized, no token")
			return
		}
		c.Next()
	}
}

// RequireAdmin must run after Authenticate.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			unauthorized(c, "Not authorized, no token")
			return
		}
		if !user.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Not authorized as an admin"})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated caller, or nil for anonymous requests.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

func unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": message})
}
