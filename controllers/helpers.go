package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"citycare-be/apperr"
	"citycare-be/mailer"
	"citycare-be/middlewares"
	"citycare-be/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const requestTimeout = 10 * time.Second

// TokenGenerator mints bearer tokens for a user id.
type TokenGenerator interface {
	Generate(userID string) (string, error)
}

// Notifier delivers best-effort mail and reports whether it went out.
type Notifier interface {
	Deliver(ctx context.Context, msg mailer.Message) bool
}

func requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), requestTimeout)
}

// respondError writes {"message": ...} with the status for err's kind.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	status := apperr.Status(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			zap.Error(err),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.String("request_id", middlewares.GetRequestID(c)),
		)
	}
	c.JSON(status, gin.H{"message": apperr.Message(err)})
}

func idParam(c *gin.Context, name, message string) (primitive.ObjectID, error) {
	id, err := utils.ParseObjectID(c.Param(name))
	if err != nil {
		return primitive.NilObjectID, apperr.BadRequest(message)
	}
	return id, nil
}

// absoluteURL turns a host-relative path into a URL on the API host.
func absoluteURL(c *gin.Context, path string) string {
	if !strings.HasPrefix(path, "/") {
		return path
	}
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + c.Request.Host + path
}
