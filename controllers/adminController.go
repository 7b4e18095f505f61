package controllers

import (
	"net/http"
	"time"

	"citycare-be/apperr"
	"citycare-be/models"
	"citycare-be/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// resolvedWindow is the look-back used for the "resolved recently" counter.
const resolvedWindow = 30 * 24 * time.Hour

type AdminController struct {
	issues repository.IssueStore
	users  repository.UserStore
	logger *zap.Logger
	now    func() time.Time
}

func NewAdminController(issues repository.IssueStore, users repository.UserStore, logger *zap.Logger) *AdminController {
	return &AdminController{issues: issues, users: users, logger: logger, now: time.Now}
}

type DashboardStats struct {
	TotalUsers         int64 `json:"totalUsers"`
	TotalIssues        int64 `json:"totalIssues"`
	PendingVolunteers  int64 `json:"pendingVolunteers"`
	ResolvedLast30Days int64 `json:"resolvedLast30Days"`
}

func (h *AdminController) GetDashboardStats(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	var stats DashboardStats
	var err error
	if stats.TotalUsers, err = h.users.CountNonAdmins(ctx); err != nil {
		respondError(c, h.logger, apperr.Server(err))
		return
	}
	if stats.TotalIssues, err = h.issues.Count(ctx, repository.IssueFilter{}); err != nil {
		respondError(c, h.logger, apperr.Server(err))
		return
	}
	if stats.PendingVolunteers, err = h.issues.Count(ctx, repository.IssueFilter{VolunteerRequest: models.VolunteerPending}); err != nil {
		respondError(c, h.logger, apperr.Server(err))
		return
	}
	since := h.now().Add(-resolvedWindow)
	if stats.ResolvedLast30Days, err = h.issues.Count(ctx, repository.IssueFilter{Status: models.StatusResolved, UpdatedSince: &since}); err != nil {
		respondError(c, h.logger, apperr.Server(err))
		return
	}

	c.JSON(http.StatusOK, stats)
}
