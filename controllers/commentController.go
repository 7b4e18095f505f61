package controllers

import (
	"net/http"
	"strings"

	"citycare-be/apperr"
	"citycare-be/middlewares"
	"citycare-be/models"
	"citycare-be/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CommentController struct {
	comments repository.CommentStore
	issues   repository.IssueStore
	users    repository.UserStore
	logger   *zap.Logger
}

func NewCommentController(comments repository.CommentStore, issues repository.IssueStore, users repository.UserStore, logger *zap.Logger) *CommentController {
	return &CommentController{comments: comments, issues: issues, users: users, logger: logger}
}

// GetComments lists an issue's comments newest first with author names.
func (h *CommentController) GetComments(c *gin.Context) {
	issueID, err := idParam(c, "issueId", msgInvalidIssueID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	comments, err := h.comments.FindByIssue(ctx, issueID)
	if err != nil {
		respondError(c, h.logger, apperr.Server(err))
		return
	}
	views, err := populateComments(ctx, h.users, comments)
	if err != nil {
		respondError(c, h.logger, apperr.Server(err))
		return
	}
	c.JSON(http.StatusOK, views)
}

func (h *CommentController) CreateComment(c *gin.Context) {
	issueID, err := idParam(c, "issueId", msgInvalidIssueID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	var input struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&input); err != nil || strings.TrimSpace(input.Text) == "" {
		respondError(c, h.logger, apperr.BadRequest("Comment text is required"))
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if _, err := h.issues.FindByID(ctx, issueID); err != nil {
		respondError(c, h.logger, lookupError(err))
		return
	}

	comment := &models.Comment{
		Text:  strings.TrimSpace(input.Text),
		User:  middlewares.CurrentUser(c).ID,
		Issue: issueID,
	}
	if err := h.comments.Create(ctx, comment); err != nil {
		respondError(c, h.logger, apperr.Server(err))
		return
	}
	c.JSON(http.StatusCreated, comment)
}
