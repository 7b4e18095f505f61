package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"citycare-be/apperr"
	"citycare-be/mailer"
	"citycare-be/middlewares"
	"citycare-be/models"
	"citycare-be/repository"
	"citycare-be/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const msgInvalidOTP = "Invalid or expired OTP"

type AuthController struct {
	users  repository.UserStore
	tokens TokenGenerator
	mail   Notifier
	otpTTL time.Duration
	logger *zap.Logger
	now    func() time.Time
}

func NewAuthController(users repository.UserStore, tokens TokenGenerator, mail Notifier, otpTTL time.Duration, logger *zap.Logger) *AuthController {
	if otpTTL <= 0 {
		otpTTL = 10 * time.Minute
	}
	return &AuthController{users: users, tokens: tokens, mail: mail, otpTTL: otpTTL, logger: logger, now: time.Now}
}

// Signup creates an unverified account and emails it a verification code.
func (h *AuthController) Signup(c *gin.Context) {
	var input struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, h.logger, apperr.BadRequest("All fields are required"))
		return
	}
	input.Name = strings.TrimSpace(input.Name)
	email := models.NormalizeEmail(input.Email)
	if input.Name == "" || email == "" || input.Password == "" {
		respondError(c, h.logger, apperr.BadRequest("All fields are required"))
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	_, err := h.users.FindByEmail(ctx, email)
	if err == nil {
		respondError(c, h.logger, apperr.BadRequest("Email already exists"))
		return
	}
	if !errors.Is(err, repository.ErrNotFound) {
		respondError(c, h.logger, apperr.Server(err))
		return
	}

	user := &models.User{
		Name:     input.Name,
		Email:    email,
		Password: input.Password,
		Role:     models.RoleCitizen,
	}
	if err := user.HashPassword(); err != nil {
		respondError(c, h.logger, apperr.Server(err))
		return
	}
	code, err := h.issueOTP(user)
	if err != nil {
		respondError(c, h.logger, apperr.Server(err))
		return
	}

	if err := h.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			respondError(c, h.logger, apperr.BadRequest("Email already exists"))
			return
		}
		respondError(c, h.logger, apperr.Server(err))
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "OTP sent to your email",
		"userId":  user.ID,
		"otpSent": h.sendOTP(ctx, c, user.Email, code),
	})
}

// VerifyOTP marks the account verified and returns a token.
func (h *AuthController) VerifyOTP(c *gin.Context) {
	var input struct {
		UserID string `json:"userId"`
		OTP    string `json:"otp"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, h.logger, apperr.BadRequest(msgInvalidOTP))
		return
	}
	id, err := utils.ParseObjectID(input.UserID)
	if err != nil {
		respondError(c, h.logger, apperr.BadRequest(msgInvalidOTP))
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := h.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(c, h.logger, apperr.BadRequest(msgInvalidOTP))
			return
		}
		respondError(c, h.logger, apperr.Server(err))
		return
	}

	if user.OTP == "" || user.OTPExpires == nil || h.now().After(*user.OTPExpires) ||
		!utils.VerifyOTP(strings.TrimSpace(input.OTP), user.OTP) {
		h.logger.Warn("otp verification rejected",
			zap.String("user_id", user.ID.Hex()),
			zap.String("request_id", middlewares.GetRequestID(c)),
		)
		respondError(c, h.logger, apperr.BadRequest(msgInvalidOTP))
		return
	}

	user.IsVerified = true
	user.ClearOTP()
	if err := h.users.Save(ctx, user); err != nil {
		respondError(c, h.logger, apperr.Server(err))
		return
	}

	h.respondWithToken(c, user, "Account verified successfully")
}

// Login returns a token for verified users and re-sends the code otherwise.
func (h *AuthController) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, h.logger, apperr.BadRequest("Please provide email and password"))
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := h.users.FindByEmail(ctx, models.NormalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(c, h.logger, apperr.Unauthorized("Invalid credentials"))
			return
		}
		respondError(c, h.logger, apperr.Server(err))
		return
	}
	if !user.ComparePassword(input.Password) {
		respondError(c, h.logger, apperr.Unauthorized("Invalid credentials"))
		return
	}

	if !user.IsVerified {
		code, err := h.issueOTP(user)
		if err != nil {
			respondError(c, h.logger, apperr.Server(err))
			return
		}
		if err := h.users.Save(ctx, user); err != nil {
			respondError(c, h.logger, apperr.Server(err))
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message": "Account not verified. New OTP sent to email",
			"userId":  user.ID,
			"otpSent": h.sendOTP(ctx, c, user.Email, code),
		})
		return
	}

	h.respondWithToken(c, user, "Login successful")
}

// Me returns the authenticated user's profile
func (h *AuthController) Me(c *gin.Context) {
	c.JSON(http.StatusOK, middlewares.CurrentUser(c))
}

func (h *AuthController) issueOTP(user *models.User) (string, error) {
	code, hash, expires, err := utils.GenerateOTP(h.now(), h.otpTTL)
	if err != nil {
		return "", err
	}
	user.SetOTP(hash, expires)
	return code, nil
}

func (h *AuthController) sendOTP(ctx context.Context, c *gin.Context, to, code string) bool {
	msg, err := mailer.OTPMessage(to, code, h.otpTTL)
	if err != nil {
		h.logger.Error("render otp email", zap.Error(err), zap.String("request_id", middlewares.GetRequestID(c)))
		return false
	}
	msg.RequestID = middlewares.GetRequestID(c)
	return h.mail.Deliver(ctx, msg)
}

func (h *AuthController) respondWithToken(c *gin.Context, user *models.User, message string) {
	token, err := h.tokens.Generate(user.ID.Hex())
	if err != nil {
		respondError(c, h.logger, apperr.Server(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": message,
		"token":   token,
		"user":    user.Public(),
	})
}
